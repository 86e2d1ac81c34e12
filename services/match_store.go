package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"lymbo_server/apperrors"
	"lymbo_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchStore is the persistence surface the match engine depends on. The
// production implementation sits on DynamoDB; tests inject an in-memory one.
type MatchStore interface {
	// CreateLikeIfAbsent stores the like unless the ordered pair
	// (from, to) already has one. Returns false when it already existed.
	CreateLikeIfAbsent(ctx context.Context, like models.Like) (bool, error)

	// HasLike reports whether fromUserID has liked toUserID.
	HasLike(ctx context.Context, fromUserID, toUserID string) (bool, error)

	// LikesTo returns likes received by userID, newest first.
	LikesTo(ctx context.Context, userID string) ([]models.Like, error)

	// LikesFrom returns likes sent by userID, newest first.
	LikesFrom(ctx context.Context, userID string) ([]models.Like, error)

	// CreateMatchIfAbsent stores the match unless its id already exists.
	// Returns false when it already existed.
	CreateMatchIfAbsent(ctx context.Context, match models.Match) (bool, error)

	// ActiveMatchesFor returns the active matches userID participates in,
	// most recent first.
	ActiveMatchesFor(ctx context.Context, userID string) ([]models.Match, error)

	// DeactivateMatch flips isActive to false. apperrors.ErrNotFound when
	// no such match exists.
	DeactivateMatch(ctx context.Context, matchID string) error

	// SetLastMessageAt records the timestamp of the latest message on a
	// match. apperrors.ErrNotFound when no such match exists.
	SetLastMessageAt(ctx context.Context, matchID, timestamp string) error
}

// DynamoMatchStore implements MatchStore on DynamoDB. Uniqueness is enforced
// by the store itself: the Likes table keys on the ordered pair, and match
// ids are deterministic, so conditional puts never produce duplicates even
// under concurrent writers.
type DynamoMatchStore struct {
	Dynamo *DynamoService
}

// NewDynamoMatchStore creates a store over the given DynamoDB wrapper.
func NewDynamoMatchStore(dynamo *DynamoService) *DynamoMatchStore {
	return &DynamoMatchStore{Dynamo: dynamo}
}

func (s *DynamoMatchStore) CreateLikeIfAbsent(ctx context.Context, like models.Like) (bool, error) {
	err := s.Dynamo.PutItemIfAbsent(ctx, models.LikesTable, "fromUserId", like)
	if errors.Is(err, ErrItemExists) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStoreError("create like", err)
	}
	return true, nil
}

func (s *DynamoMatchStore) HasLike(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	key := map[string]types.AttributeValue{
		"fromUserId": &types.AttributeValueMemberS{Value: fromUserID},
		"toUserId":   &types.AttributeValueMemberS{Value: toUserID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.LikesTable, key)
	if err != nil {
		return false, apperrors.NewStoreError("get like", err)
	}
	return item != nil, nil
}

func (s *DynamoMatchStore) LikesTo(ctx context.Context, userID string) ([]models.Like, error) {
	items, err := s.Dynamo.QueryItems(
		ctx,
		models.LikesTable,
		models.ToUserCreatedAtIndex,
		"toUserId = :user",
		map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
		"",
		0,
		true, // GSI sort key is createdAt, walk it newest first
	)
	if err != nil {
		return nil, apperrors.NewStoreError("query received likes", err)
	}
	return unmarshalLikes(items)
}

func (s *DynamoMatchStore) LikesFrom(ctx context.Context, userID string) ([]models.Like, error) {
	items, err := s.Dynamo.QueryItems(
		ctx,
		models.LikesTable,
		"",
		"fromUserId = :user",
		map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
		"",
		0,
		false,
	)
	if err != nil {
		return nil, apperrors.NewStoreError("query sent likes", err)
	}
	likes, err := unmarshalLikes(items)
	if err != nil {
		return nil, err
	}
	// The main table sorts on toUserId; reorder by recency here.
	sort.Slice(likes, func(i, j int) bool { return likes[i].CreatedAt > likes[j].CreatedAt })
	return likes, nil
}

func (s *DynamoMatchStore) CreateMatchIfAbsent(ctx context.Context, match models.Match) (bool, error) {
	err := s.Dynamo.PutItemIfAbsent(ctx, models.MatchesTable, "matchId", match)
	if errors.Is(err, ErrItemExists) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStoreError("create match", err)
	}
	return true, nil
}

func (s *DynamoMatchStore) ActiveMatchesFor(ctx context.Context, userID string) ([]models.Match, error) {
	var all []models.Match

	// A user can sit in either slot of the sorted pair, so the lookup is a
	// union of two GSI queries.
	for _, index := range []struct{ name, keyAttr string }{
		{models.User1Index, "user1Id"},
		{models.User2Index, "user2Id"},
	} {
		items, err := s.Dynamo.QueryItems(
			ctx,
			models.MatchesTable,
			index.name,
			fmt.Sprintf("%s = :user", index.keyAttr),
			map[string]types.AttributeValue{
				":user":   &types.AttributeValueMemberS{Value: userID},
				":active": &types.AttributeValueMemberBOOL{Value: true},
			},
			"isActive = :active",
			0,
			false,
		)
		if err != nil {
			return nil, apperrors.NewStoreError("query matches", err)
		}

		var matches []models.Match
		if err := attributevalue.UnmarshalListOfMaps(items, &matches); err != nil {
			return nil, apperrors.NewStoreError("unmarshal matches", err)
		}
		all = append(all, matches...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].MatchedAt > all[j].MatchedAt })
	return all, nil
}

func (s *DynamoMatchStore) DeactivateMatch(ctx context.Context, matchID string) error {
	return s.updateMatch(ctx, matchID, "SET isActive = :inactive", map[string]types.AttributeValue{
		":inactive": &types.AttributeValueMemberBOOL{Value: false},
	})
}

func (s *DynamoMatchStore) SetLastMessageAt(ctx context.Context, matchID, timestamp string) error {
	return s.updateMatch(ctx, matchID, "SET lastMessageAt = :ts", map[string]types.AttributeValue{
		":ts": &types.AttributeValueMemberS{Value: timestamp},
	})
}

func (s *DynamoMatchStore) updateMatch(ctx context.Context, matchID, updateExpression string, values map[string]types.AttributeValue) error {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	err := s.Dynamo.UpdateItemIfExists(ctx, models.MatchesTable, "matchId", key, updateExpression, values)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Errorf("match %s: %w", matchID, apperrors.ErrNotFound)
	}
	if err != nil {
		return apperrors.NewStoreError("update match", err)
	}
	return nil
}

func unmarshalLikes(items []map[string]types.AttributeValue) ([]models.Like, error) {
	var likes []models.Like
	if err := attributevalue.UnmarshalListOfMaps(items, &likes); err != nil {
		return nil, apperrors.NewStoreError("unmarshal likes", err)
	}
	return likes, nil
}
