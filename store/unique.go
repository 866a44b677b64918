package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConstraintPK computes a hash-distributed partition key for a unique
// constraint, eliminating hot partition risk. Callers normalize the value
// first when the constraint is case-insensitive.
func ConstraintPK(kind, field, value string) string {
	data := fmt.Sprintf("%s#%s#%s", kind, field, value)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}

// PutConstraint adds a unique-constraint record to the transaction. The put
// fails with ErrDuplicateValue when another record already claims the value.
func (t *Tx) PutConstraint(table, pk, entityID, kind, field, value string) {
	t.items = append(t.items, &txItem{
		kind:  txPut,
		table: table,
		key:   PK{"pk": &types.AttributeValueMemberS{Value: pk}},
		item: map[string]types.AttributeValue{
			"pk":          &types.AttributeValueMemberS{Value: pk},
			"entity_id":   &types.AttributeValueMemberS{Value: entityID},
			"entity_kind": &types.AttributeValueMemberS{Value: kind},
			"field_name":  &types.AttributeValueMemberS{Value: field},
			"field_value": &types.AttributeValueMemberS{Value: value},
		},
		condition: "attribute_not_exists(pk)",
		onFail:    ErrDuplicateValue,
	})
}

// DeleteConstraint adds an unconditional constraint-record removal to the
// transaction. Safe only while the claiming entity still exists, since the
// value cannot be re-claimed until its record is gone; deferred cleanup
// must use DeleteConstraintOwnedBy instead.
func (t *Tx) DeleteConstraint(table, pk string) {
	t.items = append(t.items, &txItem{
		kind:  txDelete,
		table: table,
		key:   PK{"pk": &types.AttributeValueMemberS{Value: pk}},
	})
}

// DeleteConstraintOwnedBy adds a constraint-record removal conditioned on
// the record still belonging to entityID. An absent record passes (there
// is nothing to remove); a record claimed by another entity in the
// meantime fails with ErrStaleReference and must be left alone.
func (t *Tx) DeleteConstraintOwnedBy(table, pk, entityID string) {
	t.items = append(t.items, &txItem{
		kind:      txDelete,
		table:     table,
		key:       PK{"pk": &types.AttributeValueMemberS{Value: pk}},
		condition: "attribute_not_exists(pk) OR entity_id = :entity_id",
		conditionValues: map[string]types.AttributeValue{
			":entity_id": &types.AttributeValueMemberS{Value: entityID},
		},
		onFail: ErrStaleReference,
	})
}

// GetConstraint resolves a constraint record to the entity id holding the
// value, or ErrNotFound.
func (s *Store) GetConstraint(ctx context.Context, table, pk string) (string, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       PK{"pk": &types.AttributeValueMemberS{Value: pk}},
	})
	if err != nil {
		return "", err
	}
	if result.Item == nil {
		return "", ErrNotFound
	}
	if v, ok := result.Item["entity_id"].(*types.AttributeValueMemberS); ok {
		return v.Value, nil
	}
	return "", ErrNotFound
}
