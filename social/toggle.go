package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/internal/refset"
	"github.com/jacentio/arbor/store"
)

// toggleRetries bounds re-planning after optimistic-lock conflicts.
const toggleRetries = 3

// side identifies one half of a symmetric relationship: the reference set
// `field` on the record (table, id).
type side struct {
	table string
	id    string
	field string
}

// toggler flips membership in symmetric relationships. Presence is decided
// from the owning side's set; both sides commit in one transaction, with the
// owner conditioned on its version so concurrent toggles on the same pair
// serialize instead of double-adding or mis-removing.
type toggler struct {
	st  *store.Store
	log *slog.Logger
}

// toggle flips the (owner, member) pair: member joins or leaves
// owner.field, and owner's id is mirrored into mirror.field on the other
// record. Returns the updated owner record and whether the member is now
// present.
func (t *toggler) toggle(ctx context.Context, owner side, ownerMember string, mirror side, mirrorMember string) (*store.Record, bool, error) {
	var lastErr error
	for attempt := 0; attempt < toggleRetries; attempt++ {
		rec, err := t.st.Get(ctx, owner.table, owner.id)
		if err != nil {
			return nil, false, err
		}

		set, added := refset.Toggle(rec.StringSet(owner.field), ownerMember)

		tx := store.NewTx()
		if added {
			tx.RefAdd(owner.table, owner.id, owner.field, ownerMember, rec.Version, nil)
			tx.RefAdd(mirror.table, mirror.id, mirror.field, mirrorMember, 0,
				fmt.Errorf("toggle mirror %s/%s: %w", mirror.table, mirror.id, store.ErrNotFound))
		} else {
			tx.RefRemove(owner.table, owner.id, owner.field, ownerMember, rec.Version, nil)
			tx.RefRemove(mirror.table, mirror.id, mirror.field, mirrorMember, 0,
				fmt.Errorf("toggle mirror %s/%s: %w", mirror.table, mirror.id, store.ErrNotFound))
		}

		err = t.st.Commit(ctx, tx)
		if err == nil {
			return updatedOwner(rec, owner.field, set), added, nil
		}
		if errors.Is(err, store.ErrConcurrentModification) {
			lastErr = err
			t.log.Debug("toggle conflicted, replanning",
				"table", owner.table,
				"id", owner.id,
				"field", owner.field,
				"attempt", attempt+1,
			)
			continue
		}
		return nil, false, err
	}
	return nil, false, lastErr
}

// updatedOwner applies the committed set change to the in-memory record so
// callers get the post-toggle state without a re-read.
func updatedOwner(rec *store.Record, field string, set []string) *store.Record {
	if len(set) == 0 {
		delete(rec.Raw, field)
	} else {
		rec.Raw[field] = &types.AttributeValueMemberSS{Value: set}
	}
	rec.Version++
	rec.Raw["version"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.Version)}
	return rec
}
