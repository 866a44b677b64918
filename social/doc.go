// Package social implements arbor's entity collections and the
// cross-entity reference rules that keep them consistent.
//
// Every relationship (account-in-community, post-in-community,
// account-attends-event, account-likes-post, account-flags-post) is a pair
// of independent reference sets, one on each side, with no database-enforced
// foreign keys. Three mechanisms keep the pairs symmetric and garbage-free:
//
//   - Toggles commit both sides of a relationship in one transaction, with
//     the owning side conditioned on its version so concurrent toggles on
//     the same pair serialize.
//   - The reference [Graph] declares, per entity kind, every place a
//     back-reference can exist.
//   - The [Cascader] walks the graph when an entity is deleted, removing it
//     from every reference set before deleting its record: atomically when
//     the cascade fits in one transaction, sequentially (with
//     [PartialCascadeError] on mid-run failure) when it does not.
//
// Removing an absent member from a reference set is always a no-op, never a
// removal of an unrelated element.
//
// Deleting a community is the one deliberate exception to cleanup: only the
// community record goes away, and readers treat references to a missing
// community as "no community".
package social
