package store_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/arbor/store"
)

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.AccountsTable != "arbor_accounts" {
		t.Errorf("expected AccountsTable 'arbor_accounts', got %q", cfg.AccountsTable)
	}
	if cfg.PostsTable != "arbor_posts" {
		t.Errorf("expected PostsTable 'arbor_posts', got %q", cfg.PostsTable)
	}
	if cfg.LikesTable != "arbor_like_prefs" {
		t.Errorf("expected LikesTable 'arbor_like_prefs', got %q", cfg.LikesTable)
	}
	if cfg.UniqueTable != "arbor_unique_constraints" {
		t.Errorf("expected UniqueTable 'arbor_unique_constraints', got %q", cfg.UniqueTable)
	}
}

func TestNew_FillsConfigDefaults(t *testing.T) {
	st := store.New(nil, store.Config{PostsTable: "custom_posts"})
	tables := st.Tables()

	if tables.PostsTable != "custom_posts" {
		t.Errorf("expected explicit table name kept, got %q", tables.PostsTable)
	}
	if tables.AccountsTable != "arbor_accounts" {
		t.Errorf("expected default filled in, got %q", tables.AccountsTable)
	}
}

// --- ConstraintPK Tests ---

func TestConstraintPK_Deterministic(t *testing.T) {
	a := store.ConstraintPK("account", "username", "alice")
	b := store.ConstraintPK("account", "username", "alice")
	if a != b {
		t.Errorf("expected deterministic hash, got %q and %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars (128-bit hash), got %d", len(a))
	}
}

func TestConstraintPK_DistinguishesInputs(t *testing.T) {
	base := store.ConstraintPK("account", "username", "alice")

	others := []string{
		store.ConstraintPK("account", "username", "bob"),
		store.ConstraintPK("account", "email", "alice"),
		store.ConstraintPK("community", "username", "alice"),
	}
	for i, other := range others {
		if other == base {
			t.Errorf("variant %d collided with base hash", i)
		}
	}
}

// --- Record Tests ---

func TestRecord_StringSet(t *testing.T) {
	rec := &store.Record{Raw: map[string]types.AttributeValue{
		"likers": &types.AttributeValueMemberSS{Value: []string{"a1", "a2"}},
	}}

	set := rec.StringSet("likers")
	if len(set) != 2 {
		t.Errorf("expected 2 members, got %d", len(set))
	}
}

func TestRecord_StringSet_Absent(t *testing.T) {
	rec := &store.Record{Raw: map[string]types.AttributeValue{}}
	if set := rec.StringSet("likers"); set != nil {
		t.Errorf("expected nil for absent attribute, got %v", set)
	}
}

func TestRecord_String(t *testing.T) {
	rec := &store.Record{Raw: map[string]types.AttributeValue{
		"community_id": &types.AttributeValueMemberS{Value: "c1"},
	}}

	if got := rec.String("community_id"); got != "c1" {
		t.Errorf("expected 'c1', got %q", got)
	}
	if got := rec.String("missing"); got != "" {
		t.Errorf("expected empty string for absent attribute, got %q", got)
	}
}

// --- Commit Tests ---

func TestCommit_EmptyTxIsNoop(t *testing.T) {
	st := store.New(nil, store.DefaultConfig())
	if err := st.Commit(context.Background(), store.NewTx()); err != nil {
		t.Errorf("expected nil for empty transaction, got %v", err)
	}
}

func TestCommit_RejectsOversizedTx(t *testing.T) {
	st := store.New(nil, store.DefaultConfig())
	tx := store.NewTx()
	for i := 0; i <= store.MaxTransactItems; i++ {
		tx.RefRemove("posts", "p"+strconv.Itoa(i), "likers", "a1", 0, nil)
	}

	err := st.Commit(context.Background(), tx)
	if !errors.Is(err, store.ErrTransactionTooLarge) {
		t.Errorf("expected ErrTransactionTooLarge, got %v", err)
	}
}

// --- Timestamp Tests ---

func TestNow_FixedWidthLayout(t *testing.T) {
	ts := store.Now()
	// Fixed-width timestamps sort lexicographically, which the range keys
	// depend on.
	if len(ts) != len("2006-01-02T15:04:05.000Z") {
		t.Errorf("expected fixed-width timestamp, got %q", ts)
	}
	if ts[len(ts)-1] != 'Z' {
		t.Errorf("expected UTC timestamp, got %q", ts)
	}
}

// --- KeyFor Tests ---

func TestKeyFor(t *testing.T) {
	key := store.KeyFor("abc")
	v, ok := key["id"].(*types.AttributeValueMemberS)
	if !ok || v.Value != "abc" {
		t.Errorf("expected id key 'abc', got %v", key)
	}
}
