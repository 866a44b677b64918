package social

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/arbor/store"
)

// CommunityPatch is the closed set of mutable community fields.
type CommunityPatch struct {
	Name *string
}

// Communities is the community collection.
type Communities struct {
	st  *store.Store
	tog *toggler
}

// Create adds a community with the creator as its first member. Both sides
// of the membership commit together: the creator lands in members and the
// community lands in the creator's communities set.
func (c *Communities) Create(ctx context.Context, name, creatorID string) (*Community, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateID("creatorId", creatorID); err != nil {
		return nil, err
	}

	tables := c.st.Tables()
	comm := Community{
		ID:      uuid.NewString(),
		Name:    name,
		Members: []string{creatorID},
	}
	item, err := attributevalue.MarshalMap(comm)
	if err != nil {
		return nil, err
	}

	tx := store.NewTx()
	tx.Put(tables.CommunitiesTable, item, nil)
	tx.RefAdd(tables.AccountsTable, creatorID, fieldCommunities, comm.ID, 0,
		fmt.Errorf("creator %s: %w", creatorID, store.ErrNotFound))

	if err := c.st.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return c.Get(ctx, comm.ID)
}

// Get returns the community by id, or store.ErrNotFound.
func (c *Communities) Get(ctx context.Context, id string) (*Community, error) {
	rec, err := c.st.Get(ctx, c.st.Tables().CommunitiesTable, id)
	if err != nil {
		return nil, err
	}
	return decodeCommunity(rec)
}

// List returns every community.
func (c *Communities) List(ctx context.Context) ([]*Community, error) {
	recs, err := c.st.Scan(ctx, c.st.Tables().CommunitiesTable)
	if err != nil {
		return nil, err
	}
	communities := make([]*Community, 0, len(recs))
	for _, rec := range recs {
		comm, err := decodeCommunity(rec)
		if err != nil {
			return nil, err
		}
		communities = append(communities, comm)
	}
	return communities, nil
}

// Update applies the patch.
func (c *Communities) Update(ctx context.Context, id string, patch CommunityPatch) (*Community, error) {
	current, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	attrs := map[string]types.AttributeValue{}
	if patch.Name != nil {
		if err := validateName("name", *patch.Name); err != nil {
			return nil, err
		}
		attrs["name"] = &types.AttributeValueMemberS{Value: *patch.Name}
	}
	if len(attrs) == 0 {
		return current, nil
	}

	if err := c.st.Update(ctx, c.st.Tables().CommunitiesTable, id, attrs, current.Version); err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}

// Delete removes only the community record. Member lists and post
// community_id fields are left pointing at the gone community; readers
// treat a missing community as "no community".
func (c *Communities) Delete(ctx context.Context, id string) (bool, error) {
	return c.st.Delete(ctx, c.st.Tables().CommunitiesTable, id, 0)
}

// ToggleMember flips accountID's membership, mirrored in the account's
// communities set, and returns the updated community.
func (c *Communities) ToggleMember(ctx context.Context, communityID, accountID string) (*Community, error) {
	tables := c.st.Tables()
	rec, _, err := c.tog.toggle(ctx,
		side{table: tables.CommunitiesTable, id: communityID, field: fieldMembers}, accountID,
		side{table: tables.AccountsTable, id: accountID, field: fieldCommunities}, communityID,
	)
	if err != nil {
		return nil, err
	}
	return decodeCommunity(rec)
}
