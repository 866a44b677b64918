package social

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/arbor/store"
)

// EventPatch is the closed set of mutable event fields.
type EventPatch struct {
	Name     *string
	Location *string
	Time     *string
}

// Events is the event collection.
type Events struct {
	st      *store.Store
	cascade *Cascader
	tog     *toggler
}

// Create adds an event with the creator as its first attendee, mirrored in
// the creator's attending set within the same transaction.
func (e *Events) Create(ctx context.Context, name, location, when, creatorID string) (*Event, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateName("location", location); err != nil {
		return nil, err
	}
	if err := validateEventTime(when); err != nil {
		return nil, err
	}
	if err := validateID("creatorId", creatorID); err != nil {
		return nil, err
	}

	tables := e.st.Tables()
	ev := Event{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		Time:      when,
		CreatorID: creatorID,
		Attendees: []string{creatorID},
	}
	item, err := attributevalue.MarshalMap(ev)
	if err != nil {
		return nil, err
	}

	tx := store.NewTx()
	tx.Put(tables.EventsTable, item, nil)
	tx.RefAdd(tables.AccountsTable, creatorID, fieldAttending, ev.ID, 0,
		fmt.Errorf("creator %s: %w", creatorID, store.ErrNotFound))

	if err := e.st.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return e.Get(ctx, ev.ID)
}

// Get returns the event by id, or store.ErrNotFound.
func (e *Events) Get(ctx context.Context, id string) (*Event, error) {
	rec, err := e.st.Get(ctx, e.st.Tables().EventsTable, id)
	if err != nil {
		return nil, err
	}
	return decodeEvent(rec)
}

// List returns every event.
func (e *Events) List(ctx context.Context) ([]*Event, error) {
	recs, err := e.st.Scan(ctx, e.st.Tables().EventsTable)
	if err != nil {
		return nil, err
	}
	events := make([]*Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Update applies the patch.
func (e *Events) Update(ctx context.Context, id string, patch EventPatch) (*Event, error) {
	current, err := e.Get(ctx, id)
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
	if patch.Location != nil {
		if err := validateName("location", *patch.Location); err != nil {
			return nil, err
		}
		attrs["location"] = &types.AttributeValueMemberS{Value: *patch.Location}
	}
	if patch.Time != nil {
		if err := validateEventTime(*patch.Time); err != nil {
			return nil, err
		}
		attrs["time"] = &types.AttributeValueMemberS{Value: *patch.Time}
	}
	if len(attrs) == 0 {
		return current, nil
	}

	if err := e.st.Update(ctx, e.st.Tables().EventsTable, id, attrs, current.Version); err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Delete cascades the event out of every account's attending and
// interested sets, then deletes the event record.
func (e *Events) Delete(ctx context.Context, id string) error {
	return e.cascade.Delete(ctx, KindEvent, id)
}

// ToggleAttending flips accountID's attendance, mirrored in the account's
// attending set, and returns the updated event.
func (e *Events) ToggleAttending(ctx context.Context, eventID, accountID string) (*Event, error) {
	return e.toggle(ctx, eventID, accountID, fieldAttendees, fieldAttending)
}

// ToggleInterested flips accountID's interest, mirrored in the account's
// interested set, and returns the updated event.
func (e *Events) ToggleInterested(ctx context.Context, eventID, accountID string) (*Event, error) {
	return e.toggle(ctx, eventID, accountID, fieldEventInt, fieldInterested)
}

func (e *Events) toggle(ctx context.Context, eventID, accountID, eventField, accountField string) (*Event, error) {
	tables := e.st.Tables()
	rec, _, err := e.tog.toggle(ctx,
		side{table: tables.EventsTable, id: eventID, field: eventField}, accountID,
		side{table: tables.AccountsTable, id: accountID, field: accountField}, eventID,
	)
	if err != nil {
		return nil, err
	}
	return decodeEvent(rec)
}
