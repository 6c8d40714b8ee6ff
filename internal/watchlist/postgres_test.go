package watchlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewPostgresStore(db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Exec("DELETE FROM watchlist_entities").Error)
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	in := sampleEntities()
	in[0].Identifiers = []Identifier{{Type: "ETH", Value: "0x8589427373D6D84E98730D7795D8f6f8731FDA16"}}
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, in))

	got, err := store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]Entity{got[0].ID: got[0], got[1].ID: got[1]}
	tornado := byID["SDN-1001"]
	assert.Equal(t, "Tornado Cash", tornado.Name)
	assert.Equal(t, SourceOFACSDN, tornado.SourceList)
	assert.Equal(t, []string{"Tornado Cash Classic"}, tornado.Aliases)
	require.Len(t, tornado.Identifiers, 1)
	assert.Equal(t, "ETH", tornado.Identifiers[0].Type)
	assert.False(t, tornado.LastUpdated.IsZero())
}

func TestPostgresStoreReplaceIsAtomicPerSource(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))
	require.NoError(t, store.ReplaceSource(ctx, SourceUNSC, []Entity{
		{ID: "UN-1", Name: "Blender Holdings", EntityType: EntityTypeOrganization},
	}))

	// Reloading one source leaves the other untouched.
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()[:1]))

	sdn, err := store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	assert.Len(t, sdn, 1)

	un, err := store.Entities(ctx, SourceUNSC)
	require.NoError(t, err)
	assert.Len(t, un, 1)

	// Empty replace clears the source.
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, nil))
	sdn, err = store.Entities(ctx, SourceOFACSDN)
	require.NoError(t, err)
	assert.Empty(t, sdn)
}

func TestPostgresStoreSearch(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()
	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))

	hits, err := store.Search(ctx, "TORNADO")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Tornado Cash", hits[0].Name)

	hits, err = store.Search(ctx, "mixer", SourceOFACSDN)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = store.Search(ctx, "tornado", SourceUNSC)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPostgresStoreStatistics(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, SourceOFACSDN, sampleEntities()))
	require.NoError(t, store.ReplaceSource(ctx, SourceEUSanctions, []Entity{
		{ID: "EU-1", Name: "Volga Shipping", EntityType: EntityTypeVessel},
	}))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntities)
	assert.Equal(t, 2, stats.BySourceList[SourceOFACSDN])
	assert.Equal(t, 1, stats.ByEntityType[EntityTypeVessel])
	assert.False(t, stats.LastUpdatedBySource[SourceEUSanctions].IsZero())
}
