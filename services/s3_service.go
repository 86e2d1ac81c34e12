package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// maxImageBytes caps a single profile image download.
const maxImageBytes = 10 * 1024 * 1024

// S3API is the slice of the S3 client used for object downloads.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Service downloads profile images and issues presigned URLs for uploads
// and reads. DownloadImage is the fetch function behind the image cache.
type S3Service struct {
	Client    S3API
	Presigner *s3.PresignClient
	Bucket    string
}

// NewS3Service builds the S3 client for the given region and bucket.
func NewS3Service(region, bucket string) *S3Service {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS config")
	}
	client := s3.NewFromConfig(cfg)
	return &S3Service{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// DownloadImage fetches an object's bytes by key.
func (ss *S3Service) DownloadImage(ctx context.Context, key string) ([]byte, error) {
	output, err := ss.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(io.LimitReader(output.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}
	return data, nil
}

// GenerateUploadURL generates a presigned URL for uploading a file. Returns
// the URL and the object key the client should use.
func (ss *S3Service) GenerateUploadURL(ctx context.Context, fileName, fileType string) (string, string, error) {
	key := "profile-pics/" + time.Now().Format("20060102150405") + "-" + fileName
	params := &s3.PutObjectInput{
		Bucket:      aws.String(ss.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}
	presigned, err := ss.Presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", "", err
	}
	return presigned.URL, key, nil
}

// GenerateReadURL generates a presigned URL for reading a file.
func (ss *S3Service) GenerateReadURL(ctx context.Context, key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(ss.Bucket),
		Key:    aws.String(key),
	}
	presigned, err := ss.Presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}
