package watchlist

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clearwatch/clearwatch/internal/metrics"
)

// entityRow is the persisted form of an Entity. Rows are keyed by
// (source_list, entity_id); the auxiliary sequences are stored as JSON and
// search_text carries the lowercased name/alias/remarks text for candidate
// lookup.
type entityRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	EntityID      string `gorm:"column:entity_id;size:128;uniqueIndex:idx_source_entity,priority:2;not null"`
	SourceList    string `gorm:"column:source_list;size:32;uniqueIndex:idx_source_entity,priority:1;index;not null"`
	Name          string `gorm:"size:512;not null"`
	EntityType    string `gorm:"size:32"`
	Program       string `gorm:"size:128"`
	Aliases       string `gorm:"type:text"`
	Addresses     string `gorm:"type:text"`
	Identifiers   string `gorm:"type:text"`
	DatesOfBirth  string `gorm:"type:text"`
	PlacesOfBirth string `gorm:"type:text"`
	Nationalities string `gorm:"type:text"`
	Remarks       string `gorm:"type:text"`
	SearchText    string `gorm:"type:text;index"`
	LastUpdated   time.Time
}

func (entityRow) TableName() string { return "watchlist_entities" }

// PostgresStore is the durable watchlist store. Ingestion writes it through
// ReplaceSource; the screening engine only reads. The same implementation
// runs on sqlite in tests.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresStore migrates the schema and returns a store backed by db.
func NewPostgresStore(db *gorm.DB, logger *zap.Logger) (*PostgresStore, error) {
	if err := db.AutoMigrate(&entityRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate watchlist schema")
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// ReplaceSource deletes the source's rows and inserts the new set in one
// transaction, so concurrent readers see the old rows or the new rows but
// never a partial write.
func (s *PostgresStore) ReplaceSource(ctx context.Context, source Source, entities []Entity) error {
	now := time.Now()
	rows := make([]entityRow, 0, len(entities))
	for _, e := range entities {
		e.SourceList = source
		if e.LastUpdated.IsZero() {
			e.LastUpdated = now
		}
		row, err := toRow(e)
		if err != nil {
			return errors.Wrapf(err, "encode entity %q", e.ID)
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_list = ?", string(source)).Delete(&entityRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return errors.Wrapf(err, "replace source %s", source)
	}

	metrics.WatchlistEntities.WithLabelValues(string(source)).Set(float64(len(rows)))
	s.logger.Info("watchlist source replaced",
		zap.String("source", string(source)),
		zap.Int("entities", len(rows)))
	return nil
}

// Entities returns the stored entities, optionally restricted to sources.
func (s *PostgresStore) Entities(ctx context.Context, sources ...Source) ([]Entity, error) {
	q := s.db.WithContext(ctx).Model(&entityRow{})
	if len(sources) > 0 {
		q = q.Where("source_list IN ?", sourceStrings(sources))
	}

	var rows []entityRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query watchlist entities")
	}
	return fromRows(rows)
}

// Search performs a substring lookup over the indexed search text.
func (s *PostgresStore) Search(ctx context.Context, query string, sources ...Source) ([]Entity, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&entityRow{}).
		Where("search_text LIKE ?", "%"+query+"%")
	if len(sources) > 0 {
		q = q.Where("source_list IN ?", sourceStrings(sources))
	}

	var rows []entityRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "search watchlist entities")
	}
	return fromRows(rows)
}

// Statistics returns aggregate counts per type and source.
func (s *PostgresStore) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{
		ByEntityType:        make(map[EntityType]int),
		BySourceList:        make(map[Source]int),
		LastUpdatedBySource: make(map[Source]time.Time),
	}

	var rows []entityRow
	err := s.db.WithContext(ctx).Model(&entityRow{}).
		Select("source_list", "entity_type", "last_updated").
		Find(&rows).Error
	if err != nil {
		return stats, errors.Wrap(err, "query statistics")
	}

	for _, row := range rows {
		src := Source(row.SourceList)
		stats.TotalEntities++
		stats.BySourceList[src]++
		stats.ByEntityType[EntityType(row.EntityType)]++
		if row.LastUpdated.After(stats.LastUpdatedBySource[src]) {
			stats.LastUpdatedBySource[src] = row.LastUpdated
		}
	}
	return stats, nil
}

func toRow(e Entity) (entityRow, error) {
	row := entityRow{
		EntityID:    e.ID,
		SourceList:  string(e.SourceList),
		Name:        e.Name,
		EntityType:  string(e.EntityType),
		Program:     e.Program,
		Remarks:     e.Remarks,
		SearchText:  strings.ToLower(searchText(e)),
		LastUpdated: e.LastUpdated,
	}
	for _, enc := range []struct {
		dst *string
		src interface{}
	}{
		{&row.Aliases, e.Aliases},
		{&row.Addresses, e.Addresses},
		{&row.Identifiers, e.Identifiers},
		{&row.DatesOfBirth, e.DatesOfBirth},
		{&row.PlacesOfBirth, e.PlacesOfBirth},
		{&row.Nationalities, e.Nationalities},
	} {
		b, err := json.Marshal(enc.src)
		if err != nil {
			return entityRow{}, err
		}
		*enc.dst = string(b)
	}
	return row, nil
}

func fromRows(rows []entityRow) ([]Entity, error) {
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		e := Entity{
			ID:          row.EntityID,
			Name:        row.Name,
			EntityType:  EntityType(row.EntityType),
			Program:     row.Program,
			SourceList:  Source(row.SourceList),
			Remarks:     row.Remarks,
			LastUpdated: row.LastUpdated,
		}
		for _, dec := range []struct {
			src string
			dst interface{}
		}{
			{row.Aliases, &e.Aliases},
			{row.Addresses, &e.Addresses},
			{row.Identifiers, &e.Identifiers},
			{row.DatesOfBirth, &e.DatesOfBirth},
			{row.PlacesOfBirth, &e.PlacesOfBirth},
			{row.Nationalities, &e.Nationalities},
		} {
			if dec.src == "" {
				continue
			}
			if err := json.Unmarshal([]byte(dec.src), dec.dst); err != nil {
				return nil, errors.Wrapf(err, "decode entity %q", row.EntityID)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func sourceStrings(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}
