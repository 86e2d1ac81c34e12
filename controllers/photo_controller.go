package controllers

import (
	"encoding/json"
	"net/http"

	"lymbo_server/cache"
	"lymbo_server/services"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// prefetchConcurrency bounds parallel downloads during a bulk warm.
const prefetchConcurrency = 4

// PhotoController serves profile images through the bounded cache and issues
// presigned S3 URLs for uploads and direct reads.
type PhotoController struct {
	Cache *cache.ImageCache
	S3    *services.S3Service
}

// NewPhotoController creates a new PhotoController instance.
func NewPhotoController(imageCache *cache.ImageCache, s3Service *services.S3Service) *PhotoController {
	return &PhotoController{Cache: imageCache, S3: s3Service}
}

// GetPhoto returns the image bytes for a storage key, served from cache when
// possible.
func (pc *PhotoController) GetPhoto(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	data, err := pc.Cache.Get(r.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to load photo")
		http.Error(w, "Failed to load photo", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// InvalidatePhoto drops a cached image, e.g. after a profile edit replaced
// the object behind the key.
func (pc *PhotoController) InvalidatePhoto(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Key == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	pc.Cache.Invalidate(payload.Key)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Invalidated"})
}

// PrefetchPhotos warms the cache for a batch of keys, e.g. the photos of a
// fresh deck of profiles. Failures on individual keys are logged and skipped.
func (pc *PhotoController) PrefetchPhotos(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Keys) == 0 {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(prefetchConcurrency)
	for _, key := range payload.Keys {
		key := key
		g.Go(func() error {
			if _, err := pc.Cache.Get(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("prefetch skipped")
			}
			return nil
		})
	}
	g.Wait()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Prefetch completed",
		"cached":  pc.Cache.Len(),
	})
}

// GeneratePresignedURL generates a presigned URL for uploading a photo.
func (pc *PhotoController) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.FileName == "" || payload.FileType == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	url, key, err := pc.S3.GenerateUploadURL(r.Context(), payload.FileName, payload.FileType)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate upload URL")
		http.Error(w, "Failed to generate pre-signed URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url, "fileName": key})
}

// GetPresignedReadURL generates a presigned URL for reading a photo directly
// from S3, bypassing the cache.
func (pc *PhotoController) GetPresignedReadURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Key == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	url, err := pc.S3.GenerateReadURL(r.Context(), payload.Key)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate read URL")
		http.Error(w, "Failed to generate read pre-signed URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}
