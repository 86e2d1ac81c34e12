package services

import (
	"context"
	"time"

	"lymbo_server/apperrors"
	"lymbo_server/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MatchNotifier pushes match events to connected clients. Optional; the
// engine works without one.
type MatchNotifier interface {
	MatchCreated(match models.Match)
}

// LikeResult tells the caller whether their like completed a match.
type LikeResult struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"matchId,omitempty"`
}

// MatchService owns the like/match lifecycle: recording likes, detecting
// reciprocity and establishing matches exactly once per user pair. It holds
// no in-process state; every invariant lives in the store.
type MatchService struct {
	Store    MatchStore
	Notifier MatchNotifier

	// now is swappable in tests.
	now func() time.Time
}

// NewMatchService creates a match engine over the given store. notifier may
// be nil.
func NewMatchService(store MatchStore, notifier MatchNotifier) *MatchService {
	return &MatchService{
		Store:    store,
		Notifier: notifier,
		now:      time.Now,
	}
}

func (ms *MatchService) timestamp() string {
	return ms.now().UTC().Format(time.RFC3339)
}

// Like records a directed like and, when the reverse like already exists,
// establishes the match. Repeating the call is safe: the like insert is a
// no-op on the duplicate path and match creation is idempotent, so a retry
// reports the same outcome.
func (ms *MatchService) Like(ctx context.Context, fromUserID, toUserID string, isSuperLike bool) (LikeResult, error) {
	if fromUserID == "" || toUserID == "" {
		return LikeResult{}, apperrors.InvalidArgument("fromUserId and toUserId are required")
	}
	if fromUserID == toUserID {
		return LikeResult{}, apperrors.InvalidArgument("cannot like yourself")
	}

	like := models.Like{
		LikeID:      uuid.NewString(),
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		CreatedAt:   ms.timestamp(),
		IsSuperLike: isSuperLike,
	}

	created, err := ms.Store.CreateLikeIfAbsent(ctx, like)
	if err != nil {
		return LikeResult{}, err
	}
	if !created {
		log.Debug().Str("from", fromUserID).Str("to", toUserID).Msg("duplicate like ignored")
	}

	// Reciprocity check. Runs on the duplicate path too, so a retried call
	// still re-derives whether the pair is matched.
	reciprocal, err := ms.Store.HasLike(ctx, toUserID, fromUserID)
	if err != nil {
		// The like is already recorded; the caller can retry the whole
		// operation to pick up match detection.
		return LikeResult{}, err
	}
	if !reciprocal {
		return LikeResult{}, nil
	}

	return ms.createMatchIfAbsent(ctx, fromUserID, toUserID)
}

// createMatchIfAbsent establishes the match for the unordered pair exactly
// once. The deterministic match id makes the insert idempotent: both sides
// of a near-simultaneous mutual like compute the same id, and the store's
// conditional put lets only one through.
func (ms *MatchService) createMatchIfAbsent(ctx context.Context, userA, userB string) (LikeResult, error) {
	user1, user2 := models.SortPair(userA, userB)
	match := models.Match{
		MatchID:   models.NewMatchID(userA, userB),
		User1ID:   user1,
		User2ID:   user2,
		MatchedAt: ms.timestamp(),
		IsActive:  true,
	}

	created, err := ms.Store.CreateMatchIfAbsent(ctx, match)
	if err != nil {
		return LikeResult{}, err
	}
	if created {
		log.Info().Str("matchId", match.MatchID).Str("user1", user1).Str("user2", user2).Msg("match created")
		if ms.Notifier != nil {
			ms.Notifier.MatchCreated(match)
		}
	}

	return LikeResult{Matched: true, MatchID: match.MatchID}, nil
}

// FetchMatches returns the user's active matches, most recent first. An
// empty slice is a valid result.
func (ms *MatchService) FetchMatches(ctx context.Context, userID string) ([]models.Match, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("userId is required")
	}
	return ms.Store.ActiveMatchesFor(ctx, userID)
}

// FetchReceivedLikes returns likes received by the user, newest first.
func (ms *MatchService) FetchReceivedLikes(ctx context.Context, userID string) ([]models.Like, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("userId is required")
	}
	return ms.Store.LikesTo(ctx, userID)
}

// FetchSentLikes returns likes sent by the user, newest first.
func (ms *MatchService) FetchSentLikes(ctx context.Context, userID string) ([]models.Like, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("userId is required")
	}
	return ms.Store.LikesFrom(ctx, userID)
}

// Unmatch soft-deletes a match. The likes that produced it are immutable
// history and stay untouched.
func (ms *MatchService) Unmatch(ctx context.Context, matchID string) error {
	if matchID == "" {
		return apperrors.InvalidArgument("matchId is required")
	}
	return ms.Store.DeactivateMatch(ctx, matchID)
}

// TouchLastMessage stamps lastMessageAt with the current time. Called by the
// chat layer whenever a message lands on a match.
func (ms *MatchService) TouchLastMessage(ctx context.Context, matchID string) error {
	if matchID == "" {
		return apperrors.InvalidArgument("matchId is required")
	}
	return ms.Store.SetLastMessageAt(ctx, matchID, ms.timestamp())
}
