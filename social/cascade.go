package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/arbor/store"
)

// cascadeRetries bounds atomic re-planning before falling back to the
// sequential path.
const cascadeRetries = 3

// PartialCascadeError reports a cascade delete that failed after some but
// not all cleanup steps completed. Applied cleanup is not undone; the
// stream sweeper repairs whatever the failed remainder left behind.
type PartialCascadeError struct {
	Kind      string
	ID        string
	Completed int
	Total     int
	Err       error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("arbor: cascade delete of %s %s failed after %d/%d cleanup steps: %v",
		e.Kind, e.ID, e.Completed, e.Total, e.Err)
}

func (e *PartialCascadeError) Unwrap() error { return e.Err }

// Cascader orchestrates entity deletion: it removes the entity from every
// place the reference graph says it is referenced, then deletes the
// entity's own record. It holds explicit store handles; entity collections
// never reference each other.
type Cascader struct {
	st    *store.Store
	graph *Graph
	log   *slog.Logger
}

// NewCascader creates a Cascader. A nil logger defaults to slog.Default().
func NewCascader(st *store.Store, graph *Graph, logger *slog.Logger) *Cascader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascader{st: st, graph: graph, log: logger}
}

// cascadePlan is the cleanup owed for one deletion, derived from the target
// record's own reference sets.
type cascadePlan struct {
	removals    []refRemoval
	sideDeletes []sideDelete
	constraints []string
	target      sideDelete
}

type refRemoval struct {
	table  string
	id     string
	field  string
	member string
}

type sideDelete struct {
	table   string
	id      string
	version int64
}

func (p *cascadePlan) steps() int {
	return len(p.removals) + len(p.sideDeletes) + len(p.constraints)
}

// Delete removes the entity and every reference to it. The fast path
// commits the whole cascade in one transaction; contention triggers a
// bounded replan, and oversized or persistently contended cascades fall
// back to sequential cleanup, where a mid-cascade failure surfaces as
// *PartialCascadeError without rolling back the applied steps.
func (c *Cascader) Delete(ctx context.Context, kind, id string) error {
	table := c.tableFor(kind)
	var lastErr error
	for attempt := 0; attempt < cascadeRetries; attempt++ {
		rec, err := c.st.Get(ctx, table, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) && attempt > 0 {
				// A competing delete finished the job.
				return nil
			}
			return err
		}

		plan, err := c.plan(ctx, kind, rec)
		if err != nil {
			return err
		}

		// +1 for the target delete itself.
		if plan.steps()+1 > store.MaxTransactItems {
			c.log.Warn("cascade exceeds transaction limit, running sequentially",
				"kind", kind, "id", id, "steps", plan.steps())
			return c.sequential(ctx, kind, plan)
		}

		err = c.st.Commit(ctx, c.buildTx(plan))
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrConcurrentModification) || errors.Is(err, store.ErrStaleReference) {
			lastErr = err
			c.log.Debug("cascade conflicted, replanning",
				"kind", kind, "id", id, "attempt", attempt+1)
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			// A cleanup target or side record vanished; replan from a fresh
			// read rather than escalating a stale reference.
			lastErr = err
			continue
		}
		return err
	}

	c.log.Warn("cascade retries exhausted, running sequentially",
		"kind", kind, "id", id, "error", lastErr)
	rec, err := c.st.Get(ctx, table, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	plan, err := c.plan(ctx, kind, rec)
	if err != nil {
		return err
	}
	return c.sequential(ctx, kind, plan)
}

// plan derives the cleanup obligations from the target's own reference
// sets, per the graph's rules for its kind.
func (c *Cascader) plan(ctx context.Context, kind string, rec *store.Record) (*cascadePlan, error) {
	plan := &cascadePlan{
		target: sideDelete{table: c.tableFor(kind), id: rec.ID, version: rec.Version},
	}

	for _, rule := range c.graph.RulesFor(kind) {
		switch rule.Kind {
		case RuleReverseSet:
			for _, member := range rec.StringSet(rule.Field) {
				plan.removals = append(plan.removals, refRemoval{
					table: rule.TargetTable, id: member, field: rule.TargetField, member: rec.ID,
				})
			}

		case RuleScalarRef:
			if ref := rec.String(rule.Field); ref != "" {
				plan.removals = append(plan.removals, refRemoval{
					table: rule.TargetTable, id: ref, field: rule.TargetField, member: rec.ID,
				})
			}

		case RuleSideTable:
			sideRec, err := c.st.Get(ctx, rule.SideTable, rec.ID)
			if errors.Is(err, store.ErrNotFound) {
				// Already cleaned up by an earlier partial run.
				continue
			}
			if err != nil {
				return nil, err
			}
			for _, ref := range sideRec.StringSet(rule.SideField) {
				plan.removals = append(plan.removals, refRemoval{
					table: rule.TargetTable, id: ref, field: rule.TargetField, member: rec.ID,
				})
			}
			plan.sideDeletes = append(plan.sideDeletes, sideDelete{
				table: rule.SideTable, id: rec.ID, version: sideRec.Version,
			})

		case RuleConstraint:
			if value := rec.String(rule.Field); value != "" {
				plan.constraints = append(plan.constraints, ConstraintPK(kind, rule, value))
			}
		}
	}
	return plan, nil
}

// buildTx assembles the atomic form of a plan. Removals targeting the same
// record merge into one update inside the builder.
func (c *Cascader) buildTx(plan *cascadePlan) *store.Tx {
	tables := c.st.Tables()
	tx := store.NewTx()
	for _, r := range plan.removals {
		tx.RefRemove(r.table, r.id, r.field, r.member, 0, nil)
	}
	for _, d := range plan.sideDeletes {
		tx.Delete(d.table, d.id, d.version)
	}
	for _, pk := range plan.constraints {
		tx.DeleteConstraint(tables.UniqueTable, pk)
	}
	tx.Delete(plan.target.table, plan.target.id, plan.target.version)
	return tx
}

// sequential applies the plan one write at a time. Stale references are
// skipped (removing an already-removed reference is a no-op, never an
// error); any other failure stops the run and reports how far it got.
func (c *Cascader) sequential(ctx context.Context, kind string, plan *cascadePlan) error {
	tables := c.st.Tables()
	total := plan.steps()
	completed := 0

	fail := func(err error) error {
		partial := &PartialCascadeError{
			Kind: kind, ID: plan.target.id, Completed: completed, Total: total, Err: err,
		}
		c.log.Error("cascade delete left inconsistent references",
			"kind", kind, "id", plan.target.id,
			"completed", completed, "total", total, "error", err)
		return partial
	}

	for _, r := range plan.removals {
		err := c.st.RemoveRef(ctx, r.table, r.id, r.field, r.member)
		if errors.Is(err, store.ErrStaleReference) {
			c.log.Debug("skipping stale reference",
				"table", r.table, "id", r.id, "field", r.field)
		} else if err != nil {
			return fail(err)
		}
		completed++
	}

	for _, d := range plan.sideDeletes {
		if _, err := c.st.Delete(ctx, d.table, d.id, 0); err != nil {
			return fail(err)
		}
		completed++
	}

	for _, pk := range plan.constraints {
		tx := store.NewTx()
		tx.DeleteConstraint(tables.UniqueTable, pk)
		if err := c.st.Commit(ctx, tx); err != nil {
			return fail(err)
		}
		completed++
	}

	if _, err := c.st.Delete(ctx, plan.target.table, plan.target.id, 0); err != nil {
		return fail(err)
	}
	return nil
}

func (c *Cascader) tableFor(kind string) string {
	tables := c.st.Tables()
	switch kind {
	case KindAccount:
		return tables.AccountsTable
	case KindPost:
		return tables.PostsTable
	case KindCommunity:
		return tables.CommunitiesTable
	case KindEvent:
		return tables.EventsTable
	}
	return ""
}
