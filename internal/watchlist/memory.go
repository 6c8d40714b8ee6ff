package watchlist

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/metrics"
)

// MemoryStore keeps one immutable snapshot per source list. ReplaceSource
// swaps the snapshot pointer under the write lock, so readers that started
// before a replace keep iterating the old slice and never observe a
// half-replaced source.
type MemoryStore struct {
	mu          sync.RWMutex
	logger      *zap.Logger
	bySource    map[Source][]Entity
	lastUpdated map[Source]time.Time
}

// NewMemoryStore creates an empty in-memory watchlist store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:      logger,
		bySource:    make(map[Source][]Entity),
		lastUpdated: make(map[Source]time.Time),
	}
}

// ReplaceSource atomically swaps the entity set belonging to source. An empty
// slice clears the source. Other sources are untouched.
func (s *MemoryStore) ReplaceSource(ctx context.Context, source Source, entities []Entity) error {
	now := time.Now()
	snapshot := make([]Entity, len(entities))
	copy(snapshot, entities)
	for i := range snapshot {
		snapshot[i].SourceList = source
		if snapshot[i].LastUpdated.IsZero() {
			snapshot[i].LastUpdated = now
		}
	}

	s.mu.Lock()
	if len(snapshot) == 0 {
		delete(s.bySource, source)
	} else {
		s.bySource[source] = snapshot
	}
	s.lastUpdated[source] = now
	s.mu.Unlock()

	metrics.WatchlistEntities.WithLabelValues(string(source)).Set(float64(len(snapshot)))
	s.logger.Info("watchlist source replaced",
		zap.String("source", string(source)),
		zap.Int("entities", len(snapshot)))
	return nil
}

// Entities returns a read-only snapshot, optionally restricted to the given
// sources. With no filter, every source is included.
func (s *MemoryStore) Entities(ctx context.Context, sources ...Source) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entity
	if len(sources) == 0 {
		for _, ents := range s.bySource {
			out = append(out, ents...)
		}
		return out, nil
	}
	for _, src := range sources {
		out = append(out, s.bySource[src]...)
	}
	return out, nil
}

// Search returns entities whose name, alias, or remarks contain the query,
// case-insensitively.
func (s *MemoryStore) Search(ctx context.Context, query string, sources ...Source) ([]Entity, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	ents, err := s.Entities(ctx, sources...)
	if err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range ents {
		if strings.Contains(strings.ToLower(searchText(e)), query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Statistics returns aggregate counts per type and source.
func (s *MemoryStore) Statistics(ctx context.Context) (Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		ByEntityType:        make(map[EntityType]int),
		BySourceList:        make(map[Source]int),
		LastUpdatedBySource: make(map[Source]time.Time),
	}
	for src, ents := range s.bySource {
		stats.TotalEntities += len(ents)
		stats.BySourceList[src] = len(ents)
		for _, e := range ents {
			stats.ByEntityType[e.EntityType]++
		}
	}
	for src, ts := range s.lastUpdated {
		stats.LastUpdatedBySource[src] = ts
	}
	return stats, nil
}

func searchText(e Entity) string {
	parts := make([]string, 0, len(e.Aliases)+2)
	parts = append(parts, e.Name)
	parts = append(parts, e.Aliases...)
	if e.Remarks != "" {
		parts = append(parts, e.Remarks)
	}
	return strings.Join(parts, " ")
}
