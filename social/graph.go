package social

import "github.com/jacentio/arbor/store"

// RuleKind classifies how a back-reference to a deleted entity is found and
// removed.
type RuleKind int

const (
	// RuleReverseSet iterates a reference set on the deleted record and
	// removes the deleted id from the reciprocal field of each member.
	RuleReverseSet RuleKind = iota

	// RuleScalarRef follows a single-id field on the deleted record and
	// removes the deleted id from the reciprocal field of that one record.
	RuleScalarRef

	// RuleSideTable reads the side record keyed by the deleted id, removes
	// the deleted id from the reciprocal field of every record the side
	// record references, then deletes the side record itself.
	RuleSideTable

	// RuleConstraint removes the unique-constraint record derived from a
	// field of the deleted record.
	RuleConstraint
)

// Rule describes one cleanup obligation owed when an entity of some kind is
// deleted.
type Rule struct {
	Kind RuleKind

	// Field is the reference set (RuleReverseSet), single-id field
	// (RuleScalarRef), or constrained field (RuleConstraint) on the deleted
	// record.
	Field string

	// SideTable and SideField locate the side record for RuleSideTable.
	SideTable string
	SideField string

	// TargetTable and TargetField locate the reciprocal reference set.
	TargetTable string
	TargetField string
}

// Graph declares, for each entity kind, every place a back-reference to it
// can exist. The cascade and the stream sweeper both consult it; nothing
// else encodes cross-entity knowledge.
type Graph struct {
	byKind map[string][]Rule
}

// NewGraph builds the reference graph for the given table layout.
//
// Deleting a community is deliberately absent: it removes only the
// community record, leaving member lists and post community_id fields
// dangling; readers treat a missing community as "no community".
func NewGraph(cfg store.Config) *Graph {
	return &Graph{byKind: map[string][]Rule{
		KindAccount: {
			{Kind: RuleReverseSet, Field: fieldCommunities, TargetTable: cfg.CommunitiesTable, TargetField: fieldMembers},
			{Kind: RuleReverseSet, Field: fieldAttending, TargetTable: cfg.EventsTable, TargetField: fieldAttendees},
			{Kind: RuleReverseSet, Field: fieldInterested, TargetTable: cfg.EventsTable, TargetField: fieldEventInt},
			{Kind: RuleSideTable, SideTable: cfg.LikesTable, SideField: fieldPosts, TargetTable: cfg.PostsTable, TargetField: fieldLikers},
			{Kind: RuleSideTable, SideTable: cfg.ControversialTable, SideField: fieldPosts, TargetTable: cfg.PostsTable, TargetField: fieldFlaggers},
			{Kind: RuleConstraint, Field: fieldUsername},
		},
		KindPost: {
			{Kind: RuleScalarRef, Field: fieldCommunityID, TargetTable: cfg.CommunitiesTable, TargetField: fieldPosts},
			{Kind: RuleReverseSet, Field: fieldLikers, TargetTable: cfg.LikesTable, TargetField: fieldPosts},
			{Kind: RuleReverseSet, Field: fieldFlaggers, TargetTable: cfg.ControversialTable, TargetField: fieldPosts},
		},
		KindEvent: {
			{Kind: RuleReverseSet, Field: fieldAttendees, TargetTable: cfg.AccountsTable, TargetField: fieldAttending},
			{Kind: RuleReverseSet, Field: fieldEventInt, TargetTable: cfg.AccountsTable, TargetField: fieldInterested},
		},
		KindCommunity: nil,
	}}
}

// RulesFor returns the cleanup rules owed when an entity of kind is deleted.
func (g *Graph) RulesFor(kind string) []Rule {
	return g.byKind[kind]
}

// ConstraintPK derives the unique-constraint partition key for a
// RuleConstraint rule given the field value from the deleted record.
func ConstraintPK(kind string, r Rule, value string) string {
	if kind == KindAccount && r.Field == fieldUsername {
		value = normalizeUsername(value)
	}
	return store.ConstraintPK(kind, r.Field, value)
}
