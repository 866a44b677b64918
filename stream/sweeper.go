// Package stream provides the DynamoDB Streams handler that scrubs
// dangling references left behind by partial cascade deletes.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/arbor/social"
	"github.com/jacentio/arbor/store"
)

// Sweeper processes REMOVE stream records from the entity tables. For each
// deleted record it replays the reference graph's cleanup rules against the
// old image, issuing idempotent removals for anything the cascade missed.
// This is the operational follow-up for PartialCascadeFailure: the cascade
// reports the inconsistency, the sweeper repairs it.
type Sweeper struct {
	st     *store.Store
	graph  *social.Graph
	logger *slog.Logger
	kinds  map[string]string // table name -> entity kind
}

// NewSweeper creates a stream sweeper. A nil logger defaults to
// slog.Default().
func NewSweeper(st *store.Store, graph *social.Graph, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	tables := st.Tables()
	return &Sweeper{
		st:     st,
		graph:  graph,
		logger: logger,
		kinds: map[string]string{
			tables.AccountsTable:    social.KindAccount,
			tables.PostsTable:       social.KindPost,
			tables.CommunitiesTable: social.KindCommunity,
			tables.EventsTable:      social.KindEvent,
		},
	}
}

// HandleSweep processes a batch of DynamoDB stream events. Designed to be
// used as an AWS Lambda handler.
func (w *Sweeper) HandleSweep(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := w.processRecord(ctx, record); err != nil {
			w.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord sweeps a single stream record.
func (w *Sweeper) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	kind, ok := w.kinds[tableFromARN(record.EventSourceArn)]
	if !ok {
		return nil
	}

	old := record.Change.OldImage
	id := getStringAttr(old, "id")
	if id == "" {
		return nil
	}

	swept := 0
	for _, rule := range w.graph.RulesFor(kind) {
		n, err := w.applyRule(ctx, kind, rule, id, old)
		if err != nil {
			return fmt.Errorf("sweep %s %s: %w", kind, id, err)
		}
		swept += n
	}

	if swept > 0 {
		w.logger.Info("swept dangling references",
			"kind", kind,
			"id", id,
			"removed", swept,
		)
	}
	return nil
}

// applyRule replays one cleanup rule from the old image, returning how many
// writes it issued.
func (w *Sweeper) applyRule(ctx context.Context, kind string, rule social.Rule, id string, old map[string]events.DynamoDBAttributeValue) (int, error) {
	switch rule.Kind {
	case social.RuleReverseSet:
		swept := 0
		for _, member := range getStringSetAttr(old, rule.Field) {
			if err := w.removeRef(ctx, rule.TargetTable, member, rule.TargetField, id); err != nil {
				return swept, err
			}
			swept++
		}
		return swept, nil

	case social.RuleScalarRef:
		ref := getStringAttr(old, rule.Field)
		if ref == "" {
			return 0, nil
		}
		return 1, w.removeRef(ctx, rule.TargetTable, ref, rule.TargetField, id)

	case social.RuleSideTable:
		// A completed cascade already deleted the side record; finding one
		// means the cascade died before reaching it.
		sideRec, err := w.st.Get(ctx, rule.SideTable, id)
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		swept := 0
		for _, ref := range sideRec.StringSet(rule.SideField) {
			if err := w.removeRef(ctx, rule.TargetTable, ref, rule.TargetField, id); err != nil {
				return swept, err
			}
			swept++
		}
		if _, err := w.st.Delete(ctx, rule.SideTable, id, 0); err != nil {
			return swept, err
		}
		return swept + 1, nil

	case social.RuleConstraint:
		value := getStringAttr(old, rule.Field)
		if value == "" {
			return 0, nil
		}
		// Streams can lag the delete, during which the value may have been
		// re-claimed by a new record. The delete is conditioned on the claim
		// still belonging to the removed entity; a re-claimed value is
		// another record's live constraint and must be left alone.
		tx := store.NewTx()
		tx.DeleteConstraintOwnedBy(w.st.Tables().UniqueTable, social.ConstraintPK(kind, rule, value), id)
		err := w.st.Commit(ctx, tx)
		if errors.Is(err, store.ErrStaleReference) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, nil
}

// removeRef issues one idempotent reference removal, treating a vanished
// target as already swept.
func (w *Sweeper) removeRef(ctx context.Context, table, id, field, member string) error {
	err := w.st.RemoveRef(ctx, table, id, field, member)
	if errors.Is(err, store.ErrStaleReference) {
		return nil
	}
	return err
}

// tableFromARN extracts the table name from a stream event source ARN
// (arn:aws:dynamodb:region:account:table/NAME/stream/TIMESTAMP).
func tableFromARN(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeString {
			return v.String()
		}
	}
	return ""
}

// getStringSetAttr extracts a string-set attribute from a DynamoDB stream
// image.
func getStringSetAttr(image map[string]events.DynamoDBAttributeValue, key string) []string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeStringSet {
			return v.StringSet()
		}
	}
	return nil
}
