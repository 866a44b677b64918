package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/arbor/social"
	"github.com/jacentio/arbor/store"
)

// --- tableFromARN Tests ---

func TestTableFromARN(t *testing.T) {
	arn := "arn:aws:dynamodb:us-east-1:123456789012:table/arbor_posts/stream/2026-01-01T00:00:00.000"
	if got := tableFromARN(arn); got != "arbor_posts" {
		t.Errorf("expected 'arbor_posts', got %q", got)
	}
}

func TestTableFromARN_Malformed(t *testing.T) {
	if got := tableFromARN("not-an-arn"); got != "" {
		t.Errorf("expected empty string for malformed ARN, got %q", got)
	}
}

func TestTableFromARN_Empty(t *testing.T) {
	if got := tableFromARN(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

// --- Attribute Helper Tests ---

func TestGetStringAttr_Present(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id": events.NewStringAttribute("p1"),
	}
	if got := getStringAttr(image, "id"); got != "p1" {
		t.Errorf("expected 'p1', got %q", got)
	}
}

func TestGetStringAttr_Missing(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{}
	if got := getStringAttr(image, "id"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestGetStringAttr_WrongType(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id": events.NewNumberAttribute("42"),
	}
	if got := getStringAttr(image, "id"); got != "" {
		t.Errorf("expected empty string for non-string attribute, got %q", got)
	}
}

func TestGetStringSetAttr_Present(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"likers": events.NewStringSetAttribute([]string{"a1", "a2"}),
	}
	got := getStringSetAttr(image, "likers")
	if len(got) != 2 {
		t.Errorf("expected 2 members, got %v", got)
	}
}

func TestGetStringSetAttr_Missing(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{}
	if got := getStringSetAttr(image, "likers"); got != nil {
		t.Errorf("expected nil for missing attribute, got %v", got)
	}
}

func TestGetStringSetAttr_WrongType(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"likers": events.NewStringAttribute("a1"),
	}
	if got := getStringSetAttr(image, "likers"); got != nil {
		t.Errorf("expected nil for non-set attribute, got %v", got)
	}
}

// --- Kind Mapping Tests ---

func TestNewSweeper_KindMapping(t *testing.T) {
	cfg := store.DefaultConfig()
	st := store.New(nil, cfg)
	w := NewSweeper(st, social.NewGraph(cfg), nil)

	tests := []struct {
		table    string
		expected string
	}{
		{cfg.AccountsTable, social.KindAccount},
		{cfg.PostsTable, social.KindPost},
		{cfg.CommunitiesTable, social.KindCommunity},
		{cfg.EventsTable, social.KindEvent},
	}
	for _, tt := range tests {
		if got := w.kinds[tt.table]; got != tt.expected {
			t.Errorf("table %q: expected kind %q, got %q", tt.table, tt.expected, got)
		}
	}

	// Side tables produce no sweeps of their own.
	if _, ok := w.kinds[cfg.LikesTable]; ok {
		t.Error("likes table must not map to an entity kind")
	}
}

// --- Event Filtering Tests ---

func TestProcessRecord_IgnoresInsertAndModify(t *testing.T) {
	cfg := store.DefaultConfig()
	w := NewSweeper(store.New(nil, cfg), social.NewGraph(cfg), nil)

	for _, name := range []string{"INSERT", "MODIFY"} {
		record := events.DynamoDBEventRecord{
			EventName:      name,
			EventSourceArn: "arn:aws:dynamodb:us-east-1:123:table/" + cfg.PostsTable + "/stream/x",
		}
		if err := w.processRecord(context.Background(), record); err != nil {
			t.Errorf("%s: expected nil, got %v", name, err)
		}
	}
}

func TestProcessRecord_IgnoresUnknownTable(t *testing.T) {
	cfg := store.DefaultConfig()
	w := NewSweeper(store.New(nil, cfg), social.NewGraph(cfg), nil)

	record := events.DynamoDBEventRecord{
		EventName:      "REMOVE",
		EventSourceArn: "arn:aws:dynamodb:us-east-1:123:table/unrelated_table/stream/x",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"id": events.NewStringAttribute("p1"),
			},
		},
	}
	if err := w.processRecord(context.Background(), record); err != nil {
		t.Errorf("expected nil for unknown table, got %v", err)
	}
}

func TestProcessRecord_IgnoresImageWithoutID(t *testing.T) {
	cfg := store.DefaultConfig()
	w := NewSweeper(store.New(nil, cfg), social.NewGraph(cfg), nil)

	record := events.DynamoDBEventRecord{
		EventName:      "REMOVE",
		EventSourceArn: "arn:aws:dynamodb:us-east-1:123:table/" + cfg.PostsTable + "/stream/x",
		Change:         events.DynamoDBStreamRecord{},
	}
	if err := w.processRecord(context.Background(), record); err != nil {
		t.Errorf("expected nil for image without id, got %v", err)
	}
}
