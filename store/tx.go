package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MaxTransactItems is the DynamoDB TransactWriteItems item limit.
const MaxTransactItems = 100

// Tx accumulates writes that must commit atomically: entity puts, existence
// checks, reference-set mutations, and deletes. Reference ops targeting the
// same item are merged into a single update, since a DynamoDB transaction
// may touch each item at most once.
type Tx struct {
	items []*txItem
}

// NewTx creates an empty transaction.
func NewTx() *Tx {
	return &Tx{}
}

type txKind int

const (
	txPut txKind = iota
	txCheck
	txRef
	txSet
	txDelete
)

type txItem struct {
	kind  txKind
	table string
	id    string

	// put
	item      map[string]types.AttributeValue
	condition string
	key       PK // overrides KeyFor(id) for constraint records

	// condition values for key-override deletes
	conditionValues map[string]types.AttributeValue

	// ref
	adds    map[string][]string
	removes map[string][]string

	expectedVersion int64
	onFail          error
}

// Len returns the number of transaction items after merging.
func (t *Tx) Len() int {
	return len(t.items)
}

// Put adds an entity creation. The item gets managed fields stamped at
// commit and is conditioned on the id not existing; onFail is returned if
// another record holds the id (nil defaults to ErrAlreadyExists).
func (t *Tx) Put(table string, item map[string]types.AttributeValue, onFail error) {
	if onFail == nil {
		onFail = ErrAlreadyExists
	}
	t.items = append(t.items, &txItem{
		kind:      txPut,
		table:     table,
		item:      item,
		condition: "attribute_not_exists(id)",
		onFail:    onFail,
	})
}

// CheckExists adds a condition that a record exists without mutating it.
// Do not combine with a mutation of the same record in one transaction;
// put the existence condition on the mutation instead.
func (t *Tx) CheckExists(table, id string, onFail error) {
	if onFail == nil {
		onFail = ErrNotFound
	}
	t.items = append(t.items, &txItem{
		kind:   txCheck,
		table:  table,
		id:     id,
		onFail: onFail,
	})
}

// RefAdd adds member to a string-set field of a record. A non-zero
// expectedVersion makes the mutation conditional on the record version;
// onFail is returned when the condition fails (nil defaults to
// ErrConcurrentModification when versioned, ErrStaleReference otherwise).
func (t *Tx) RefAdd(table, id, field, member string, expectedVersion int64, onFail error) {
	it := t.refItem(table, id, expectedVersion, onFail)
	it.adds[field] = append(it.adds[field], member)
}

// RefRemove removes member from a string-set field of a record. Removing an
// absent member is a no-op at the storage level.
func (t *Tx) RefRemove(table, id, field, member string, expectedVersion int64, onFail error) {
	it := t.refItem(table, id, expectedVersion, onFail)
	it.removes[field] = append(it.removes[field], member)
}

// Set adds a content update: the patch attributes are written, updated_at
// and version advance, and the write is conditioned on the expected
// version. Managed fields in the patch are ignored.
func (t *Tx) Set(table, id string, patch map[string]types.AttributeValue, expectedVersion int64) {
	filtered := make(map[string]types.AttributeValue, len(patch))
	for k, v := range patch {
		if !isManagedAttr(k) {
			filtered[k] = v
		}
	}
	t.items = append(t.items, &txItem{
		kind:            txSet,
		table:           table,
		id:              id,
		item:            filtered,
		expectedVersion: expectedVersion,
		onFail:          ErrConcurrentModification,
	})
}

// Delete adds a record deletion, conditioned on existence and, when
// expectedVersion is non-zero, on the version.
func (t *Tx) Delete(table, id string, expectedVersion int64) {
	onFail := ErrNotFound
	if expectedVersion > 0 {
		onFail = ErrConcurrentModification
	}
	t.items = append(t.items, &txItem{
		kind:            txDelete,
		table:           table,
		id:              id,
		expectedVersion: expectedVersion,
		onFail:          onFail,
	})
}

// refItem finds or creates the merged ref item for (table, id).
func (t *Tx) refItem(table, id string, expectedVersion int64, onFail error) *txItem {
	for _, it := range t.items {
		if it.kind == txRef && it.table == table && it.id == id {
			if expectedVersion > 0 {
				it.expectedVersion = expectedVersion
			}
			if onFail != nil {
				it.onFail = onFail
			}
			return it
		}
	}
	it := &txItem{
		kind:            txRef,
		table:           table,
		id:              id,
		adds:            map[string][]string{},
		removes:         map[string][]string{},
		expectedVersion: expectedVersion,
		onFail:          onFail,
	}
	t.items = append(t.items, it)
	return it
}

// Commit executes the transaction, mapping conditional failures back to the
// per-item errors supplied at build time.
func (s *Store) Commit(ctx context.Context, tx *Tx) error {
	if tx.Len() == 0 {
		return nil
	}
	if tx.Len() > MaxTransactItems {
		return ErrTransactionTooLarge
	}

	items := make([]types.TransactWriteItem, 0, tx.Len())
	for _, it := range tx.items {
		items = append(items, it.build())
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return tx.mapError(err)
}

// build converts a txItem to its TransactWriteItem.
func (it *txItem) build() types.TransactWriteItem {
	switch it.kind {
	case txPut:
		item := it.item
		if it.key == nil { // constraint records carry no managed fields
			now := Now()
			item["version"] = &types.AttributeValueMemberN{Value: "1"}
			item["created_at"] = &types.AttributeValueMemberS{Value: now}
			item["updated_at"] = &types.AttributeValueMemberS{Value: now}
		}
		return types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(it.table),
				Item:                item,
				ConditionExpression: aws.String(it.condition),
			},
		}

	case txCheck:
		return types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(it.table),
				Key:                it.itemKey(),
				ConditionExpression: aws.String("attribute_exists(id)"),
			},
		}

	case txDelete:
		if it.key != nil {
			// Constraint record. Deleting an absent constraint is a no-op
			// unless the caller supplied an ownership condition.
			del := &types.Delete{
				TableName: aws.String(it.table),
				Key:       it.key,
			}
			if it.condition != "" {
				del.ConditionExpression = aws.String(it.condition)
				del.ExpressionAttributeValues = it.conditionValues
			}
			return types.TransactWriteItem{Delete: del}
		}
		del := &types.Delete{
			TableName:           aws.String(it.table),
			Key:                 it.itemKey(),
			ConditionExpression: aws.String("attribute_exists(id)"),
		}
		if it.expectedVersion > 0 {
			del.ConditionExpression = aws.String("attribute_exists(id) AND #version = :expected_version")
			del.ExpressionAttributeNames = map[string]string{"#version": "version"}
			del.ExpressionAttributeValues = map[string]types.AttributeValue{
				":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(it.expectedVersion, 10)},
			}
		}
		return types.TransactWriteItem{Delete: del}

	case txSet:
		return types.TransactWriteItem{Update: it.buildSetUpdate()}

	default: // txRef
		return types.TransactWriteItem{Update: it.buildRefUpdate()}
	}
}

// buildSetUpdate assembles a version-conditioned content update.
func (it *txItem) buildSetUpdate() *types.Update {
	exprNames := map[string]string{
		"#updated_at": "updated_at",
		"#version":    "version",
	}
	exprValues := map[string]types.AttributeValue{
		":updated_at":       &types.AttributeValueMemberS{Value: Now()},
		":one":              &types.AttributeValueMemberN{Value: "1"},
		":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(it.expectedVersion, 10)},
	}

	var setClauses []string
	i := 0
	for k, v := range it.item {
		nameKey := "#attr" + strconv.Itoa(i)
		valueKey := ":val" + strconv.Itoa(i)
		exprNames[nameKey] = k
		exprValues[valueKey] = v
		setClauses = append(setClauses, nameKey+" = "+valueKey)
		i++
	}
	setClauses = append(setClauses, "#updated_at = :updated_at", "#version = #version + :one")

	return &types.Update{
		TableName:                 aws.String(it.table),
		Key:                       it.itemKey(),
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(id) AND #version = :expected_version"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}
}

// buildRefUpdate assembles the merged ADD/DELETE update for a ref item.
// The version counter rides in the ADD section so reference-set mutations
// invalidate concurrent optimistic updates without touching updated_at.
func (it *txItem) buildRefUpdate() *types.Update {
	exprNames := map[string]string{"#version": "version"}
	exprValues := map[string]types.AttributeValue{
		":one": &types.AttributeValueMemberN{Value: "1"},
	}

	addClauses := []string{"#version :one"}
	var deleteClauses []string
	i := 0
	for field, members := range it.adds {
		nameKey := "#f" + strconv.Itoa(i)
		valueKey := ":a" + strconv.Itoa(i)
		exprNames[nameKey] = field
		exprValues[valueKey] = &types.AttributeValueMemberSS{Value: members}
		addClauses = append(addClauses, nameKey+" "+valueKey)
		i++
	}
	for field, members := range it.removes {
		nameKey := "#f" + strconv.Itoa(i)
		valueKey := ":d" + strconv.Itoa(i)
		exprNames[nameKey] = field
		exprValues[valueKey] = &types.AttributeValueMemberSS{Value: members}
		deleteClauses = append(deleteClauses, nameKey+" "+valueKey)
		i++
	}

	expr := "ADD " + strings.Join(addClauses, ", ")
	if len(deleteClauses) > 0 {
		expr += " DELETE " + strings.Join(deleteClauses, ", ")
	}

	condition := "attribute_exists(id)"
	if it.expectedVersion > 0 {
		condition += " AND #version = :expected_version"
		exprValues[":expected_version"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(it.expectedVersion, 10)}
	}

	return &types.Update{
		TableName:                 aws.String(it.table),
		Key:                       it.itemKey(),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}
}

func (it *txItem) itemKey() PK {
	if it.key != nil {
		return it.key
	}
	return KeyFor(it.id)
}

// mapError maps a TransactWriteItems failure back to the per-item error of
// the first cancelled condition.
func (tx *Tx) mapError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed":
				if i < len(tx.items) {
					if it := tx.items[i]; it.onFail != nil {
						return it.onFail
					}
					if tx.items[i].expectedVersion > 0 {
						return ErrConcurrentModification
					}
					return ErrStaleReference
				}
				return ErrConcurrentModification
			case "TransactionConflict":
				return ErrConcurrentModification
			}
		}
	}
	return err
}
