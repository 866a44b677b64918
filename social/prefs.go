package social

import (
	"context"

	"github.com/jacentio/arbor/store"
)

// Preferences is a collection view over one of the two per-account side
// tables (liked posts or controversial flags). Side records are created and
// deleted with the account; their post sets move only through post toggles
// and cascades.
type Preferences struct {
	st    *store.Store
	table string
}

// Get returns the account's side record, or store.ErrNotFound if the
// account does not exist.
func (p *Preferences) Get(ctx context.Context, accountID string) (*Preference, error) {
	rec, err := p.st.Get(ctx, p.table, accountID)
	if err != nil {
		return nil, err
	}
	return decodePreference(rec)
}
