package dynamodb

import (
	"context"
	"errors"
	"testing"

	"marketplace-backend/domain/records"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockClient) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *mockClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func newStore(client Client) *RecordStore {
	return NewRecordStore(client, Config{
		TableName: "marketplace",
		Indexes:   map[records.IndexName]string{records.StatusIndex: "status-createdAt-index"},
	}, zap.NewNop())
}

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func TestRecordStore_GetMissing(t *testing.T) {
	client := new(mockClient)
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, found, err := newStore(client).Get(context.Background(), records.KeyPair{PartitionKey: "CARD#x", SortKey: "m"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordStore_GetFound(t *testing.T) {
	client := new(mockClient)
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		pk, _ := in.Key["PK"].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "marketplace" && pk != nil && pk.Value == "AUCTION#a"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":         s("AUCTION#a"),
		"SK":         s("m"),
		"GSI1PK":     s("g"),
		"GSI1SK":     s("h"),
		"highestBid": &types.AttributeValueMemberN{Value: "42.5"},
		"status":     s("OPEN"),
	}}, nil)

	rec, found, err := newStore(client).Get(context.Background(), records.KeyPair{PartitionKey: "AUCTION#a", SortKey: "m"})
	require.NoError(t, err)
	require.True(t, found)

	amount, ok := rec.Number("highestBid")
	assert.True(t, ok)
	assert.Equal(t, 42.5, amount)
	assert.Equal(t, "OPEN", rec.String("status"))
	assert.Equal(t, records.KeyPair{PartitionKey: "g", SortKey: "h"}, rec.SecondaryKeys[records.GSI1])
}

func TestRecordStore_PutConditionFailed(t *testing.T) {
	client := new(mockClient)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil && len(in.ExpressionAttributeNames) > 0
	})).Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	rec := records.Record{PartitionKey: "CARD#x", SortKey: "m", Attributes: map[string]any{"title": "t"}}
	err := newStore(client).Put(context.Background(), rec, records.Condition{MustNotExist: true})
	assert.ErrorIs(t, err, records.ErrConditionFailed)
}

func TestRecordStore_PutUnconditional(t *testing.T) {
	client := new(mockClient)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		_, hasEmpty := in.Item["description"]
		return in.ConditionExpression == nil && !hasEmpty
	})).Return(&dynamodb.PutItemOutput{}, nil)

	rec := records.Record{PartitionKey: "CARD#x", SortKey: "m", Attributes: map[string]any{"title": "t", "description": ""}}
	require.NoError(t, newStore(client).Put(context.Background(), rec, records.Condition{}))
	client.AssertExpectations(t)
}

func TestRecordStore_UpdateReturnsNewItem(t *testing.T) {
	client := new(mockClient)
	client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return in.ReturnValues == types.ReturnValueAllNew && in.UpdateExpression != nil && in.ConditionExpression != nil
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"PK": s("CARD#x"), "SK": s("m"), "title": s("new"),
	}}, nil)

	rec, err := newStore(client).Update(context.Background(), records.Update{
		Key:       records.KeyPair{PartitionKey: "CARD#x", SortKey: "m"},
		Set:       map[string]any{"title": "new", "updatedAt": "now"},
		Condition: records.Condition{MustExist: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", rec.String("title"))
}

func TestRecordStore_UpdateRequiresAttributes(t *testing.T) {
	_, err := newStore(new(mockClient)).Update(context.Background(), records.Update{
		Key: records.KeyPair{PartitionKey: "CARD#x", SortKey: "m"},
	})
	assert.Error(t, err)
}

func TestRecordStore_QueryPaginatesOnIndex(t *testing.T) {
	client := new(mockClient)
	first := func(in *dynamodb.QueryInput) bool { return in.ExclusiveStartKey == nil }
	next := func(in *dynamodb.QueryInput) bool { return in.ExclusiveStartKey != nil }

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return first(in) && aws.ToString(in.IndexName) == "status-createdAt-index" && in.FilterExpression != nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{{"PK": s("MARKETPLACE#1"), "SK": s("m")}},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": s("MARKETPLACE#1"), "SK": s("m")},
	}, nil).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(next)).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{{"PK": s("MARKETPLACE#2"), "SK": s("m")}},
	}, nil).Once()

	recs, err := newStore(client).Query(context.Background(), records.Query{
		Index:          records.StatusIndex,
		PartitionValue: "ACTIVE",
		Filter:         map[string]any{records.AttrEntityType: "MARKETPLACE"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "MARKETPLACE#2", recs[1].PartitionKey)
	client.AssertExpectations(t)
}

func TestRecordStore_QueryPrimaryHasNoIndexName(t *testing.T) {
	client := new(mockClient)
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.IndexName == nil && in.FilterExpression == nil
	})).Return(&dynamodb.QueryOutput{}, nil)

	recs, err := newStore(client).Query(context.Background(), records.Query{PartitionValue: "AUCTION#a", SortPrefix: "BID#"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordStore_ScanSortsByPartition(t *testing.T) {
	client := new(mockClient)
	client.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"PK": s("CARD#b"), "SK": s("m")},
			{"PK": s("CARD#a"), "SK": s("m")},
		},
	}, nil)

	recs, err := newStore(client).Scan(context.Background(), map[string]any{"userId": "enc"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "CARD#a", recs[0].PartitionKey)
}

func TestRecordStore_TransactionCancelled(t *testing.T) {
	client := new(mockClient)
	client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2 && in.TransactItems[0].Put != nil && in.TransactItems[1].Update != nil
	})).Return(nil, &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	})

	bid := records.Record{PartitionKey: "AUCTION#a", SortKey: "BID#b", Attributes: map[string]any{"amount": 10.0}}
	err := newStore(client).TransactWrite(context.Background(), []records.TransactItem{
		{Put: &bid, PutCondition: records.Condition{MustNotExist: true}},
		{Update: &records.Update{
			Key:       records.KeyPair{PartitionKey: "AUCTION#a", SortKey: "m"},
			Set:       map[string]any{"highestBid": 10.0},
			Condition: records.Condition{LessThan: map[string]any{"highestBid": 10.0}},
		}},
	})
	assert.ErrorIs(t, err, records.ErrConditionFailed)
}

func TestRecordStore_OtherErrorsAreWrapped(t *testing.T) {
	client := new(mockClient)
	boom := errors.New("throttled")
	client.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, boom)

	err := newStore(client).Delete(context.Background(), records.KeyPair{PartitionKey: "CARD#x", SortKey: "m"}, records.Condition{MustExist: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, records.ErrConditionFailed)
	assert.Contains(t, err.Error(), "DeleteItem")
}
