// Package dynamodb stores every marketplace entity in one DynamoDB table.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"marketplace-backend/domain/records"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Config names the table and the physical names of its secondary indexes.
type Config struct {
	TableName string
	Indexes   map[records.IndexName]string
}

// RecordStore implements the application record store on DynamoDB.
type RecordStore struct {
	client Client
	config Config
	logger *zap.Logger
}

// NewRecordStore creates a store. Indexes missing from cfg use their
// logical names.
func NewRecordStore(client Client, cfg Config, logger *zap.Logger) *RecordStore {
	return &RecordStore{client: client, config: cfg, logger: logger}
}

func (s *RecordStore) Get(ctx context.Context, key records.KeyPair) (records.Record, bool, error) {
	k, err := marshalKey(key)
	if err != nil {
		return records.Record{}, false, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       k,
	})
	if err != nil {
		return records.Record{}, false, s.translate("GetItem", err)
	}
	if out.Item == nil {
		return records.Record{}, false, nil
	}

	rec, err := unmarshalRecord(out.Item)
	if err != nil {
		return records.Record{}, false, err
	}
	return rec, true, nil
}

func (s *RecordStore) Put(ctx context.Context, rec records.Record, cond records.Condition) error {
	item, err := attributevalue.MarshalMap(rec.Item())
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	}
	if !cond.IsZero() {
		expr, err := expression.NewBuilder().WithCondition(buildCondition(cond)).Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return s.translate("PutItem", err)
	}

	s.logger.Debug("Item stored", zap.String("pk", rec.PartitionKey))
	return nil
}

func (s *RecordStore) Update(ctx context.Context, upd records.Update) (records.Record, error) {
	k, err := marshalKey(upd.Key)
	if err != nil {
		return records.Record{}, err
	}

	expr, err := updateExpression(upd)
	if err != nil {
		return records.Record{}, err
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       k,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return records.Record{}, s.translate("UpdateItem", err)
	}
	return unmarshalRecord(out.Attributes)
}

func (s *RecordStore) Delete(ctx context.Context, key records.KeyPair, cond records.Condition) error {
	k, err := marshalKey(key)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       k,
	}
	if !cond.IsZero() {
		expr, err := expression.NewBuilder().WithCondition(buildCondition(cond)).Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		return s.translate("DeleteItem", err)
	}
	return nil
}

// Query follows LastEvaluatedKey until the partition is exhausted.
func (s *RecordStore) Query(ctx context.Context, q records.Query) ([]records.Record, error) {
	pkAttr, skAttr := q.Index.KeyAttributes()

	keyCond := expression.Key(pkAttr).Equal(expression.Value(q.PartitionValue))
	switch {
	case q.SortEquals != "":
		keyCond = keyCond.And(expression.Key(skAttr).Equal(expression.Value(q.SortEquals)))
	case q.SortPrefix != "":
		keyCond = keyCond.And(expression.Key(skAttr).BeginsWith(q.SortPrefix))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter, ok := buildFilter(q.Filter); ok {
		builder = builder.WithFilter(filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if q.Index != records.PrimaryIndex {
		input.IndexName = aws.String(s.indexName(q.Index))
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.translate("Query", err)
		}
		items = append(items, page.Items...)
	}

	return unmarshalRecords(items)
}

// Scan reads the whole table. Results are ordered by partition key so
// callers see a stable order across pages.
func (s *RecordStore) Scan(ctx context.Context, filter map[string]any) ([]records.Record, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.config.TableName)}
	if f, ok := buildFilter(filter); ok {
		expr, err := expression.NewBuilder().WithFilter(f).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.translate("Scan", err)
		}
		items = append(items, page.Items...)
	}

	recs, err := unmarshalRecords(items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PartitionKey < recs[j].PartitionKey })
	return recs, nil
}

func (s *RecordStore) TransactWrite(ctx context.Context, items []records.TransactItem) error {
	writes := make([]types.TransactWriteItem, 0, len(items))
	for _, it := range items {
		switch {
		case it.Put != nil:
			item, err := attributevalue.MarshalMap(it.Put.Item())
			if err != nil {
				return fmt.Errorf("failed to marshal item: %w", err)
			}
			put := &types.Put{TableName: aws.String(s.config.TableName), Item: item}
			if !it.PutCondition.IsZero() {
				expr, err := expression.NewBuilder().WithCondition(buildCondition(it.PutCondition)).Build()
				if err != nil {
					return fmt.Errorf("failed to build expression: %w", err)
				}
				put.ConditionExpression = expr.Condition()
				put.ExpressionAttributeNames = expr.Names()
				put.ExpressionAttributeValues = expr.Values()
			}
			writes = append(writes, types.TransactWriteItem{Put: put})

		case it.Update != nil:
			k, err := marshalKey(it.Update.Key)
			if err != nil {
				return err
			}
			expr, err := updateExpression(*it.Update)
			if err != nil {
				return err
			}
			writes = append(writes, types.TransactWriteItem{Update: &types.Update{
				TableName:                 aws.String(s.config.TableName),
				Key:                       k,
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})
		}
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes}); err != nil {
		return s.translate("TransactWriteItems", err)
	}
	return nil
}

func (s *RecordStore) indexName(i records.IndexName) string {
	if name, ok := s.config.Indexes[i]; ok && name != "" {
		return name
	}
	return string(i)
}

// translate maps failed conditions to records.ErrConditionFailed and wraps
// everything else with the operation name.
func (s *RecordStore) translate(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return records.ErrConditionFailed
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return records.ErrConditionFailed
			}
		}
	}

	fields := []zap.Field{zap.String("operation", op), zap.String("table", s.config.TableName), zap.Error(err)}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.String("code", apiErr.ErrorCode()))
	}
	s.logger.Error("DynamoDB request failed", fields...)

	return fmt.Errorf("%s failed: %w", op, err)
}

func buildCondition(cond records.Condition) expression.ConditionBuilder {
	var parts []expression.ConditionBuilder
	if cond.MustExist {
		parts = append(parts, expression.Name(records.AttrPK).AttributeExists())
	}
	if cond.MustNotExist {
		parts = append(parts, expression.Name(records.AttrPK).AttributeNotExists())
	}
	for _, name := range sortedKeys(cond.Equals) {
		parts = append(parts, expression.Name(name).Equal(expression.Value(cond.Equals[name])))
	}
	for _, name := range sortedKeys(cond.LessThan) {
		parts = append(parts, expression.Name(name).LessThan(expression.Value(cond.LessThan[name])))
	}
	return and(parts)
}

func buildFilter(filter map[string]any) (expression.ConditionBuilder, bool) {
	if len(filter) == 0 {
		return expression.ConditionBuilder{}, false
	}
	var parts []expression.ConditionBuilder
	for _, name := range sortedKeys(filter) {
		parts = append(parts, expression.Name(name).Equal(expression.Value(filter[name])))
	}
	return and(parts), true
}

func and(parts []expression.ConditionBuilder) expression.ConditionBuilder {
	switch len(parts) {
	case 0:
		return expression.ConditionBuilder{}
	case 1:
		return parts[0]
	default:
		return expression.And(parts[0], parts[1], parts[2:]...)
	}
}

func updateExpression(upd records.Update) (expression.Expression, error) {
	if len(upd.Set) == 0 {
		return expression.Expression{}, errors.New("update has no attributes to set")
	}

	var set expression.UpdateBuilder
	for i, name := range sortedKeys(upd.Set) {
		if i == 0 {
			set = expression.Set(expression.Name(name), expression.Value(upd.Set[name]))
			continue
		}
		set = set.Set(expression.Name(name), expression.Value(upd.Set[name]))
	}

	builder := expression.NewBuilder().WithUpdate(set)
	if !upd.Condition.IsZero() {
		builder = builder.WithCondition(buildCondition(upd.Condition))
	}
	expr, err := builder.Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build expression: %w", err)
	}
	return expr, nil
}

func marshalKey(key records.KeyPair) (map[string]types.AttributeValue, error) {
	if key.PartitionKey == "" || key.SortKey == "" {
		return nil, errors.New("key requires both PK and SK")
	}
	return map[string]types.AttributeValue{
		records.AttrPK: &types.AttributeValueMemberS{Value: key.PartitionKey},
		records.AttrSK: &types.AttributeValueMemberS{Value: key.SortKey},
	}, nil
}

func unmarshalRecord(item map[string]types.AttributeValue) (records.Record, error) {
	var raw map[string]any
	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return records.Record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return records.FromItem(raw), nil
}

func unmarshalRecords(items []map[string]types.AttributeValue) ([]records.Record, error) {
	out := make([]records.Record, 0, len(items))
	for _, item := range items {
		rec, err := unmarshalRecord(item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
