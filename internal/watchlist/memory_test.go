package watchlist

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/metrics"
)

func sampleEntities() []Entity {
	return []Entity{
		{
			ID:         "SDN-1001",
			Name:       "Tornado Cash",
			EntityType: EntityTypeCryptoAddress,
			Program:    "CYBER2",
			Aliases:    []string{"Tornado Cash Classic"},
			Remarks:    "virtual currency mixer",
		},
		{
			ID:         "SDN-1002",
			Name:       "Acme Trading FZE",
			EntityType: EntityTypeOrganization,
			Program:    "IRAN",
		},
	}
}

func TestMemoryStoreReplaceSource(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))

	got, err := store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, SourceOFACSDN, e.SourceList)
		assert.False(t, e.LastUpdated.IsZero())
	}

	// A second replace fully supersedes the first load.
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()[:1]))
	got, err = store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tornado Cash", got[0].Name)

	// An empty replace clears the source.
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, nil))
	got, err = store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreSourceIsolation(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))
	require.NoError(t, store.ReplaceSource(ctx, SourceUNSC, []Entity{
		{ID: "UN-1", Name: "Blender Holdings", EntityType: EntityTypeOrganization},
	}))

	un, err := store.Entities(ctx, SourceUNSC)
	require.NoError(t, err)
	require.Len(t, un, 1)
	assert.Equal(t, SourceUNSC, un[0].SourceList)

	all, err := store.Entities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreSearch(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))

	hits, err := store.Search(ctx, "tornado")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Tornado Cash", hits[0].Name)

	// Alias and remarks text is searchable too.
	hits, err = store.Search(ctx, "MIXER")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = store.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStoreStatistics(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))
	require.NoError(t, store.ReplaceSource(ctx, SourceEUSanctions, []Entity{
		{ID: "EU-1", Name: "Volga Shipping", EntityType: EntityTypeVessel},
	}))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntities)
	assert.Equal(t, 2, stats.BySourceList[SourceOFACSDN])
	assert.Equal(t, 1, stats.BySourceList[SourceEUSanctions])
	assert.Equal(t, 1, stats.ByEntityType[EntityTypeVessel])
	assert.False(t, stats.LastUpdatedBySource[SourceOFACSDN].IsZero())
}

func TestReplaceSourceUpdatesEntityGauge(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceUKHMT, sampleEntities()))
	gauge := metrics.WatchlistEntities.WithLabelValues(string(SourceUKHMT))
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	require.NoError(t, store.ReplaceSource(ctx, SourceUKHMT, nil))
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}
