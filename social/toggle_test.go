package social

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/store"
)

// --- updatedOwner Tests ---

func TestUpdatedOwner_AppliesSet(t *testing.T) {
	rec := &store.Record{
		ID:      "p1",
		Version: 2,
		Raw: map[string]types.AttributeValue{
			"id":      &types.AttributeValueMemberS{Value: "p1"},
			"version": &types.AttributeValueMemberN{Value: "2"},
			"likers":  &types.AttributeValueMemberSS{Value: []string{"a1"}},
		},
	}

	updated := updatedOwner(rec, "likers", []string{"a1", "a2"})

	set := updated.StringSet("likers")
	if len(set) != 2 {
		t.Errorf("expected 2 likers, got %v", set)
	}
	if updated.Version != 3 {
		t.Errorf("expected version advanced to 3, got %d", updated.Version)
	}
}

func TestUpdatedOwner_EmptySetRemovesAttribute(t *testing.T) {
	// DynamoDB cannot store empty sets; the committed update deleted the
	// last member, so the attribute is gone.
	rec := &store.Record{
		ID:      "p1",
		Version: 1,
		Raw: map[string]types.AttributeValue{
			"id":     &types.AttributeValueMemberS{Value: "p1"},
			"likers": &types.AttributeValueMemberSS{Value: []string{"a1"}},
		},
	}

	updated := updatedOwner(rec, "likers", nil)

	if _, ok := updated.Raw["likers"]; ok {
		t.Error("expected likers attribute removed when set is empty")
	}
	if updated.StringSet("likers") != nil {
		t.Error("expected empty set after removal")
	}
}

func TestUpdatedOwner_VersionAttributeTracksField(t *testing.T) {
	rec := &store.Record{
		ID:      "p1",
		Version: 5,
		Raw: map[string]types.AttributeValue{
			"id":      &types.AttributeValueMemberS{Value: "p1"},
			"version": &types.AttributeValueMemberN{Value: "5"},
		},
	}

	updated := updatedOwner(rec, "likers", []string{"a1"})

	v, ok := updated.Raw["version"].(*types.AttributeValueMemberN)
	if !ok || v.Value != "6" {
		t.Errorf("expected raw version attribute '6', got %v", updated.Raw["version"])
	}
}
