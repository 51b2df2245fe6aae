package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
)

// Store memoizes one CleanTable per distinct source key for the process
// lifetime. A source is treated as immutable for a run: the blocking read
// and parse happen once, and every later lookup for the same key is served
// from memory. Reset exists for tests; there is no other invalidation.
type Store struct {
	source  Source
	loader  *Loader
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	tables map[string]domain.CleanTable
}

// NewStore creates a Store reading through the given source and loader.
func NewStore(source Source, loader *Loader, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		source:  source,
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		tables:  make(map[string]domain.CleanTable),
	}
}

// Table returns the clean table for a source key, loading and caching it on
// first use. Failed loads are not cached, so a transiently unreadable
// source can be retried.
func (s *Store) Table(key string) (domain.CleanTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.tables[key]; ok {
		s.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return table, nil
	}
	s.metrics.DatasetCache.WithLabelValues("miss").Inc()

	r, err := s.source.Open(key)
	if err != nil {
		return domain.CleanTable{}, err
	}
	defer r.Close()

	table, err := s.loader.ReadTable(r)
	if err != nil {
		return domain.CleanTable{}, err
	}

	s.tables[key] = table
	s.metrics.DatasetLoaded.Set(1)
	return table, nil
}

// Reset drops every cached table. Exposed for tests; production treats
// sources as immutable.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]domain.CleanTable)
	s.metrics.DatasetLoaded.Set(0)
}

// CheckReadiness returns nil once at least one table has been loaded, or an
// error describing why the service is not yet ready.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tables) == 0 {
		return errors.New("no dataset loaded yet")
	}
	return nil
}
