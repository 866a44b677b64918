package social

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/arbor/store"
)

// Service wires the entity collections over one store handle. Collections
// never reference each other; the cascader and the reference graph carry
// all cross-entity knowledge.
type Service struct {
	Accounts       *Accounts
	Posts          *Posts
	Communities    *Communities
	Events         *Events
	Likes          *Preferences
	Controversials *Preferences

	st    *store.Store
	graph *Graph
}

// New creates a Service. A nil logger defaults to slog.Default().
func New(client *dynamodb.Client, cfg store.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	st := store.New(client, cfg)
	tables := st.Tables()
	graph := NewGraph(tables)
	cascade := NewCascader(st, graph, logger)
	tog := &toggler{st: st, log: logger}

	return &Service{
		Accounts:       &Accounts{st: st, cascade: cascade},
		Posts:          &Posts{st: st, cascade: cascade, tog: tog},
		Communities:    &Communities{st: st, tog: tog},
		Events:         &Events{st: st, cascade: cascade, tog: tog},
		Likes:          &Preferences{st: st, table: tables.LikesTable},
		Controversials: &Preferences{st: st, table: tables.ControversialTable},
		st:             st,
		graph:          graph,
	}
}

// Graph returns the reference graph, for the stream sweeper.
func (s *Service) Graph() *Graph {
	return s.graph
}

// Store returns the underlying store handle.
func (s *Service) Store() *store.Store {
	return s.st
}
