package store

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// KeyFor builds the primary key for a record id. Every table in the layout
// is keyed by a single "id" attribute.
func KeyFor(id string) PK {
	return PK{"id": &types.AttributeValueMemberS{Value: id}}
}

// Record represents a retrieved item with its managed fields decoded.
type Record struct {
	// Raw is the raw DynamoDB item.
	Raw map[string]types.AttributeValue

	// ID is the record id.
	ID string

	// Version is the optimistic lock version.
	Version int64

	// CreatedAt is the creation timestamp.
	CreatedAt string

	// UpdatedAt is the last content-update timestamp. Reference-set
	// mutations do not advance it.
	UpdatedAt string
}

// StringSet extracts a string-set attribute from the record. An absent
// attribute is an empty set: DynamoDB cannot store empty sets, so removing
// the last member removes the attribute.
func (r *Record) StringSet(field string) []string {
	if v, ok := r.Raw[field].(*types.AttributeValueMemberSS); ok {
		return v.Value
	}
	return nil
}

// String extracts a string attribute, or "" if absent.
func (r *Record) String(field string) string {
	if v, ok := r.Raw[field].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// newRecord decodes the managed fields of a raw item.
func newRecord(raw map[string]types.AttributeValue) *Record {
	rec := &Record{Raw: raw}
	if v, ok := raw["id"].(*types.AttributeValueMemberS); ok {
		rec.ID = v.Value
	}
	if v, ok := raw["version"].(*types.AttributeValueMemberN); ok {
		rec.Version, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := raw["created_at"].(*types.AttributeValueMemberS); ok {
		rec.CreatedAt = v.Value
	}
	if v, ok := raw["updated_at"].(*types.AttributeValueMemberS); ok {
		rec.UpdatedAt = v.Value
	}
	return rec
}

// QueryInput defines parameters for querying records.
type QueryInput struct {
	// TableName is the DynamoDB table to query.
	TableName string

	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// KeyConditionExpression is the DynamoDB key condition.
	KeyConditionExpression string

	// FilterExpression is an optional filter.
	FilterExpression string

	// ExpressionAttributeNames maps expression attribute name placeholders.
	ExpressionAttributeNames map[string]string

	// ExpressionAttributeValues maps expression attribute value placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue

	// Limit is the maximum number of items to return (0 = no limit).
	Limit int32

	// Descending reverses the sort-key order.
	Descending bool
}
