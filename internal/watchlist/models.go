package watchlist

import (
	"context"
	"time"
)

// Source identifies an upstream sanctions list. Each source is ingested and
// replaced independently; a refresh of one source never touches another.
type Source string

const (
	SourceOFACSDN     Source = "OFAC_SDN"
	SourceOFACCons    Source = "OFAC_CONS"
	SourceUNSC        Source = "UN_SC"
	SourceEUSanctions Source = "EU_SANCTIONS"
	SourceUKHMT       Source = "UK_HMT"
	SourceOFACCrypto  Source = "OFAC_CRYPTO"
)

// DefaultSources returns the source lists screened when a request does not
// name its own set.
func DefaultSources() []Source {
	return []Source{
		SourceOFACSDN,
		SourceOFACCons,
		SourceUNSC,
		SourceEUSanctions,
		SourceUKHMT,
	}
}

// EntityType classifies a watchlist entity.
type EntityType string

const (
	EntityTypeIndividual    EntityType = "individual"
	EntityTypeOrganization  EntityType = "organization"
	EntityTypeVessel        EntityType = "vessel"
	EntityTypeAircraft      EntityType = "aircraft"
	EntityTypeCryptoAddress EntityType = "crypto_address"
)

// Identifier is a typed identification document or number attached to an
// entity (passport, tax ID, crypto address).
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Entity is one normalized sanctioned or flagged party. The store is the
// source of truth for these records; everything downstream treats them as
// read-only. The auxiliary sequences are informational and never used to
// reject a record.
type Entity struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	EntityType    EntityType   `json:"entity_type"`
	Program       string       `json:"program"`
	SourceList    Source       `json:"source_list"`
	Aliases       []string     `json:"aliases,omitempty"`
	Addresses     []string     `json:"addresses,omitempty"`
	Identifiers   []Identifier `json:"identifiers,omitempty"`
	DatesOfBirth  []string     `json:"dates_of_birth,omitempty"`
	PlacesOfBirth []string     `json:"places_of_birth,omitempty"`
	Nationalities []string     `json:"nationalities,omitempty"`
	Remarks       string       `json:"remarks,omitempty"`
	LastUpdated   time.Time    `json:"last_updated"`
}

// Statistics summarizes store contents for observability. Counts are
// consistent with the last completed ReplaceSource per source.
type Statistics struct {
	TotalEntities       int                  `json:"total_entities"`
	ByEntityType        map[EntityType]int   `json:"by_entity_type"`
	BySourceList        map[Source]int       `json:"by_source_list"`
	LastUpdatedBySource map[Source]time.Time `json:"last_updated_by_source"`
}

// Store holds one current snapshot per source list and answers entity
// lookups. ReplaceSource is atomic per source: concurrent readers see either
// the old or the new set, never a mix. Replacing with an empty slice clears
// the source. Lookups on an empty store return an empty slice, not an error.
type Store interface {
	ReplaceSource(ctx context.Context, source Source, entities []Entity) error
	Entities(ctx context.Context, sources ...Source) ([]Entity, error)
	Statistics(ctx context.Context) (Statistics, error)
}

// Searcher is an optional store extension providing a substring lookup over
// the indexed name/alias text of each entity.
type Searcher interface {
	Search(ctx context.Context, query string, sources ...Source) ([]Entity, error)
}
