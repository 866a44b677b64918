package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// timestampLayout is fixed-width so range keys sort lexicographically in
// time order (RFC3339Nano trims trailing zeros and would not).
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Now returns the current UTC time in the store's timestamp layout.
func Now() string {
	return time.Now().UTC().Format(timestampLayout)
}

// Store provides DynamoDB operations for the arbor table layout. It has no
// knowledge of cross-entity rules; those live in the social package.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Store instance.
func New(client *dynamodb.Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Tables returns the table layout.
func (s *Store) Tables() Config {
	return s.config
}

// Get retrieves a record by id, returning ErrNotFound if missing.
func (s *Store) Get(ctx context.Context, table, id string) (*Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       KeyFor(id),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return newRecord(result.Item), nil
}

// Query queries records, draining all pages. Each call re-runs the query,
// which makes result sequences restartable by construction.
func (s *Store) Query(ctx context.Context, input QueryInput) ([]*Record, error) {
	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(input.TableName),
		KeyConditionExpression:    aws.String(input.KeyConditionExpression),
		ExpressionAttributeValues: input.ExpressionAttributeValues,
	}
	if len(input.ExpressionAttributeNames) > 0 {
		queryInput.ExpressionAttributeNames = input.ExpressionAttributeNames
	}
	if input.FilterExpression != "" {
		queryInput.FilterExpression = aws.String(input.FilterExpression)
	}
	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}
	if input.Descending {
		queryInput.ScanIndexForward = aws.Bool(false)
	}

	var records []*Record
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			records = append(records, newRecord(raw))
		}
	}
	return records, nil
}

// Scan returns every record in a table. Used by the list-all operations of
// kinds without a listing index (communities, events).
func (s *Store) Scan(ctx context.Context, table string) ([]*Record, error) {
	var records []*Record
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			records = append(records, newRecord(raw))
		}
	}
	return records, nil
}

// Update applies a closed patch of attributes to a record with optimistic
// locking. Managed fields in the patch are ignored; updated_at and version
// advance on every update.
func (s *Store) Update(ctx context.Context, table, id string, patch map[string]types.AttributeValue, expectedVersion int64) error {
	var setClauses []string
	exprNames := map[string]string{
		"#updated_at": "updated_at",
		"#version":    "version",
	}
	exprValues := map[string]types.AttributeValue{
		":updated_at":       &types.AttributeValueMemberS{Value: Now()},
		":one":              &types.AttributeValueMemberN{Value: "1"},
		":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
	}

	i := 0
	for k, v := range patch {
		if isManagedAttr(k) {
			continue
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = v
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	setClauses = append(setClauses, "#updated_at = :updated_at", "#version = #version + :one")

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       KeyFor(id),
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(id) AND #version = :expected_version"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return err
	}
	return nil
}

// Delete removes a record, reporting whether it existed. A non-zero
// expectedVersion makes the delete conditional on the version.
func (s *Store) Delete(ctx context.Context, table, id string, expectedVersion int64) (bool, error) {
	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(table),
		Key:          KeyFor(id),
		ReturnValues: types.ReturnValueAllOld,
	}
	if expectedVersion > 0 {
		input.ConditionExpression = aws.String("#version = :expected_version")
		input.ExpressionAttributeNames = map[string]string{"#version": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}

	result, err := s.client.DeleteItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, ErrConcurrentModification
		}
		return false, err
	}
	return len(result.Attributes) > 0, nil
}

// RemoveRef removes member from a string-set field of a single record,
// outside any transaction. Removing an absent member is a no-op at the
// storage level (DynamoDB DELETE on a string set ignores absent elements);
// a missing record maps to ErrStaleReference. Used by the sequential
// cascade fallback and the stream sweeper.
func (s *Store) RemoveRef(ctx context.Context, table, id, field, member string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 KeyFor(id),
		UpdateExpression:    aws.String("DELETE #field :member ADD #version :one"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#field":   field,
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":member": &types.AttributeValueMemberSS{Value: []string{member}},
			":one":    &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrStaleReference
		}
		return err
	}
	return nil
}

// isManagedAttr reports whether an attribute is store-managed and must not
// appear in user patches.
func isManagedAttr(k string) bool {
	switch k {
	case "id", "version", "created_at", "updated_at":
		return true
	}
	return false
}
