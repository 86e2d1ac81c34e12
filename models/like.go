package models

// Like is a directed interest edge from one user to another. Likes are
// immutable history: they are never updated or deleted, even after an
// unmatch.
type Like struct {
	LikeID      string `dynamodbav:"likeId" json:"likeId"`
	FromUserID  string `dynamodbav:"fromUserId" json:"fromUserId"` // Partition key
	ToUserID    string `dynamodbav:"toUserId" json:"toUserId"`     // Sort key
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`   // RFC3339 UTC
	IsSuperLike bool   `dynamodbav:"isSuperLike" json:"isSuperLike"`
}

// LikesTable is the DynamoDB table name for likes. The composite primary key
// (fromUserId, toUserId) makes the ordered pair unique at the store level.
const LikesTable = "Likes"

// ToUserCreatedAtIndex is the GSI used to list likes received by a user,
// newest first.
const ToUserCreatedAtIndex = "toUserId-createdAt-index"
