package store

// Config holds the table layout for the Store.
type Config struct {
	// AccountsTable holds account records. Default: "arbor_accounts"
	AccountsTable string

	// PostsTable holds post records. Default: "arbor_posts"
	//
	// Expected GSIs:
	//   - "feed-index":      pk "feed", sk "updated_at" (sparse; only
	//     community-less posts carry the "feed" attribute)
	//   - "author-index":    pk "author_id", sk "updated_at"
	//   - "community-index": pk "community_id", sk "updated_at"
	PostsTable string

	// CommunitiesTable holds community records. Default: "arbor_communities"
	CommunitiesTable string

	// EventsTable holds event records. Default: "arbor_events"
	EventsTable string

	// LikesTable holds per-account liked-post side records, keyed by
	// account id. Default: "arbor_like_prefs"
	LikesTable string

	// ControversialTable holds per-account controversial-flag side records,
	// keyed by account id. Default: "arbor_controversial_prefs"
	ControversialTable string

	// UniqueTable holds unique-constraint records (hashed pk).
	// Default: "arbor_unique_constraints"
	UniqueTable string
}

// DefaultConfig returns the default table layout.
func DefaultConfig() Config {
	return Config{
		AccountsTable:      "arbor_accounts",
		PostsTable:         "arbor_posts",
		CommunitiesTable:   "arbor_communities",
		EventsTable:        "arbor_events",
		LikesTable:         "arbor_like_prefs",
		ControversialTable: "arbor_controversial_prefs",
		UniqueTable:        "arbor_unique_constraints",
	}
}

// validate fills in defaults for any unset table names.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.AccountsTable == "" {
		c.AccountsTable = def.AccountsTable
	}
	if c.PostsTable == "" {
		c.PostsTable = def.PostsTable
	}
	if c.CommunitiesTable == "" {
		c.CommunitiesTable = def.CommunitiesTable
	}
	if c.EventsTable == "" {
		c.EventsTable = def.EventsTable
	}
	if c.LikesTable == "" {
		c.LikesTable = def.LikesTable
	}
	if c.ControversialTable == "" {
		c.ControversialTable = def.ControversialTable
	}
	if c.UniqueTable == "" {
		c.UniqueTable = def.UniqueTable
	}
}
