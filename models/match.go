package models

import (
	"github.com/google/uuid"
)

// Match is an undirected relationship between two users, created once when
// both have liked each other. User1ID/User2ID are stored in sorted order so
// the unordered pair has a single canonical representation.
type Match struct {
	MatchID       string `dynamodbav:"matchId" json:"matchId"` // Partition key
	User1ID       string `dynamodbav:"user1Id" json:"user1Id"`
	User2ID       string `dynamodbav:"user2Id" json:"user2Id"`
	MatchedAt     string `dynamodbav:"matchedAt" json:"matchedAt"` // RFC3339 UTC
	LastMessageAt string `dynamodbav:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	IsActive      bool   `dynamodbav:"isActive" json:"isActive"`
}

// OtherParticipant returns whichever participant is not currentUserID.
func (m Match) OtherParticipant(currentUserID string) string {
	if m.User1ID == currentUserID {
		return m.User2ID
	}
	return m.User1ID
}

// MatchesTable is the DynamoDB table name for matches.
const MatchesTable = "Matches"

// GSIs used to find a user's matches regardless of which slot they occupy.
const (
	User1Index = "user1Id-index"
	User2Index = "user2Id-index"
)

// matchNamespace seeds deterministic match ids.
var matchNamespace = uuid.MustParse("9a7a1d5e-21c6-4b8a-9d5f-6c2e8f3b0a44")

// SortPair returns the two user ids in canonical sorted order.
func SortPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// NewMatchID derives the match id from the unordered user pair. Both sides of
// a mutual like compute the same id, so a conditional put on matchId makes
// match creation idempotent under concurrent writers.
func NewMatchID(a, b string) string {
	u1, u2 := SortPair(a, b)
	return uuid.NewSHA1(matchNamespace, []byte(u1+"#"+u2)).String()
}
