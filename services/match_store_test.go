package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"lymbo_server/apperrors"
	"lymbo_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoClient implements DynamoDBAPI in memory. It understands the
// equality-only expressions this codebase issues ("attr = :placeholder")
// and the attribute_exists / attribute_not_exists conditions.
type fakeDynamoClient struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamoClient) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f.tables[name]
}

// itemKey mirrors the primary key layout of each table.
func itemKey(tableName string, item map[string]types.AttributeValue) string {
	switch tableName {
	case models.LikesTable:
		return strAttr(item, "fromUserId") + "|" + strAttr(item, "toUserId")
	case models.MatchesTable:
		return strAttr(item, "matchId")
	}
	return ""
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func boolAttr(item map[string]types.AttributeValue, name string) bool {
	if v, ok := item[name].(*types.AttributeValueMemberBOOL); ok {
		return v.Value
	}
	return false
}

// parseEquality splits "attr = :placeholder" into its two sides.
func parseEquality(expr string) (attr, placeholder string, err error) {
	parts := strings.Split(expr, " = ")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("unsupported expression %q", expr)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(*params.TableName)
	key := itemKey(*params.TableName, params.Item)
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := table[key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	table[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item := f.table(*params.TableName)[itemKey(*params.TableName, params.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keyAttr, keyPH, err := parseEquality(*params.KeyConditionExpression)
	if err != nil {
		return nil, err
	}
	want := strAttr(params.ExpressionAttributeValues, keyPH)

	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		if strAttr(item, keyAttr) != want {
			continue
		}
		if params.FilterExpression != nil {
			filterAttr, filterPH, err := parseEquality(*params.FilterExpression)
			if err != nil {
				return nil, err
			}
			wantBool, ok := params.ExpressionAttributeValues[filterPH].(*types.AttributeValueMemberBOOL)
			if !ok || boolAttr(item, filterAttr) != wantBool.Value {
				continue
			}
		}
		items = append(items, item)
	}

	// The received-likes GSI sorts on createdAt.
	if params.IndexName != nil && *params.IndexName == models.ToUserCreatedAtIndex {
		descending := params.ScanIndexForward != nil && !*params.ScanIndexForward
		sort.Slice(items, func(i, j int) bool {
			if descending {
				return strAttr(items[i], "createdAt") > strAttr(items[j], "createdAt")
			}
			return strAttr(items[i], "createdAt") < strAttr(items[j], "createdAt")
		})
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(*params.TableName)
	key := itemKey(*params.TableName, params.Key)
	item, exists := table[key]
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_exists") && !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}

	attr, placeholder, err := parseEquality(strings.TrimPrefix(*params.UpdateExpression, "SET "))
	if err != nil {
		return nil, err
	}
	item[attr] = params.ExpressionAttributeValues[placeholder]
	table[key] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamoClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.table(*params.TableName), itemKey(*params.TableName, params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func newTestStore() (*DynamoMatchStore, *fakeDynamoClient) {
	client := newFakeDynamoClient()
	return NewDynamoMatchStore(&DynamoService{Client: client}), client
}

func TestStoreCreateLikeIfAbsent(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore()

	like := models.Like{LikeID: "l1", FromUserID: "u1", ToUserID: "u2", CreatedAt: "2025-06-01T12:00:00Z"}
	created, err := store.CreateLikeIfAbsent(ctx, like)
	require.NoError(t, err)
	assert.True(t, created)

	// Same ordered pair loses the conditional write.
	created, err = store.CreateLikeIfAbsent(ctx, like)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, client.tables[models.LikesTable], 1)

	// The reverse direction is a different pair.
	created, err = store.CreateLikeIfAbsent(ctx, models.Like{LikeID: "l2", FromUserID: "u2", ToUserID: "u1", CreatedAt: "2025-06-01T12:00:01Z"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestStoreHasLike(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	_, err := store.CreateLikeIfAbsent(ctx, models.Like{LikeID: "l1", FromUserID: "u1", ToUserID: "u2", CreatedAt: "2025-06-01T12:00:00Z"})
	require.NoError(t, err)

	has, err := store.HasLike(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasLike(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStoreCreateMatchIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore()

	// Both sides derive the same id regardless of argument order.
	id := models.NewMatchID("u1", "u2")
	assert.Equal(t, id, models.NewMatchID("u2", "u1"))

	u1, u2 := models.SortPair("u2", "u1")
	match := models.Match{MatchID: id, User1ID: u1, User2ID: u2, MatchedAt: "2025-06-01T12:00:02Z", IsActive: true}

	created, err := store.CreateMatchIfAbsent(ctx, match)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateMatchIfAbsent(ctx, match)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, client.tables[models.MatchesTable], 1)
}

func TestStoreLikesToNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	for i, from := range []string{"u2", "u3", "u4"} {
		_, err := store.CreateLikeIfAbsent(ctx, models.Like{
			LikeID:     fmt.Sprintf("l%d", i),
			FromUserID: from,
			ToUserID:   "u1",
			CreatedAt:  fmt.Sprintf("2025-06-01T12:00:0%dZ", i),
		})
		require.NoError(t, err)
	}

	likes, err := store.LikesTo(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, likes, 3)
	assert.Equal(t, "u4", likes[0].FromUserID)
	assert.Equal(t, "u2", likes[2].FromUserID)
}

func TestStoreActiveMatchesFor(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	mkMatch := func(a, b, at string) models.Match {
		u1, u2 := models.SortPair(a, b)
		return models.Match{MatchID: models.NewMatchID(a, b), User1ID: u1, User2ID: u2, MatchedAt: at, IsActive: true}
	}

	// u1 sits in both pair slots across these matches.
	first := mkMatch("u1", "u2", "2025-06-01T12:00:00Z")
	second := mkMatch("u9", "u1", "2025-06-01T12:00:05Z")
	other := mkMatch("u3", "u4", "2025-06-01T12:00:03Z")

	for _, m := range []models.Match{first, second, other} {
		_, err := store.CreateMatchIfAbsent(ctx, m)
		require.NoError(t, err)
	}

	matches, err := store.ActiveMatchesFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, second.MatchID, matches[0].MatchID, "most recent first")
	assert.Equal(t, first.MatchID, matches[1].MatchID)

	// Deactivation hides a match from the listing.
	require.NoError(t, store.DeactivateMatch(ctx, first.MatchID))
	matches, err = store.ActiveMatchesFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, second.MatchID, matches[0].MatchID)
}

func TestStoreDeactivateMissingMatch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	err := store.DeactivateMatch(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoreSetLastMessageAt(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore()

	match := models.Match{MatchID: "m1", User1ID: "u1", User2ID: "u2", MatchedAt: "2025-06-01T12:00:00Z", IsActive: true}
	_, err := store.CreateMatchIfAbsent(ctx, match)
	require.NoError(t, err)

	require.NoError(t, store.SetLastMessageAt(ctx, "m1", "2025-06-01T13:00:00Z"))
	item := client.tables[models.MatchesTable]["m1"]
	assert.Equal(t, "2025-06-01T13:00:00Z", strAttr(item, "lastMessageAt"))

	err = store.SetLastMessageAt(ctx, "missing", "2025-06-01T13:00:00Z")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
