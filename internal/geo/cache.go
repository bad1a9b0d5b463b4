package geo

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CountryRef is the cached identity of a country row.
type CountryRef struct {
	ID          int64
	ContinentID int64
}

// IdentifierCache maps natural keys (country codes, external ids) to
// database ids so the import loops avoid per-row lookups.
//
// The cache carries an explicit staleness flag: after a bulk insert or
// delete invalidates it, callers MarkStale it and every lookup misses
// until the cache is rebuilt. A stale hit would silently wire rows to
// deleted or remapped parents, so missing loudly is the contract.
type IdentifierCache struct {
	countries  map[string]CountryRef
	regions    map[string]int64
	localities map[string]int64
	stale      bool
}

// NewIdentifierCache returns an empty, non-stale cache.
func NewIdentifierCache() *IdentifierCache {
	return &IdentifierCache{
		countries:  make(map[string]CountryRef),
		regions:    make(map[string]int64),
		localities: make(map[string]int64),
	}
}

// Country looks up a country by its two-letter code.
func (c *IdentifierCache) Country(code string) (CountryRef, bool) {
	if c.stale {
		return CountryRef{}, false
	}
	ref, ok := c.countries[code]
	return ref, ok
}

// Region looks up a region id by its source external id.
func (c *IdentifierCache) Region(externalID string) (int64, bool) {
	if c.stale {
		return 0, false
	}
	id, ok := c.regions[externalID]
	return id, ok
}

// Locality looks up a locality id by its source external id.
func (c *IdentifierCache) Locality(externalID string) (int64, bool) {
	if c.stale {
		return 0, false
	}
	id, ok := c.localities[externalID]
	return id, ok
}

// PutCountry records a country. Panics on a stale cache since writes to
// a stale cache would be lost on rebuild.
func (c *IdentifierCache) PutCountry(code string, ref CountryRef) {
	if c.stale {
		panic("geo: write to stale identifier cache")
	}
	c.countries[code] = ref
}

// PutRegion records a region by external id.
func (c *IdentifierCache) PutRegion(externalID string, id int64) {
	if c.stale {
		panic("geo: write to stale identifier cache")
	}
	c.regions[externalID] = id
}

// PutLocality records a locality by external id.
func (c *IdentifierCache) PutLocality(externalID string, id int64) {
	if c.stale {
		panic("geo: write to stale identifier cache")
	}
	c.localities[externalID] = id
}

// DropCountry evicts a country, for use when its row is deleted.
func (c *IdentifierCache) DropCountry(code string) {
	delete(c.countries, code)
}

// MarkStale invalidates the cache. All subsequent lookups miss until
// the cache is rebuilt with Load.
func (c *IdentifierCache) MarkStale() {
	c.stale = true
}

// Stale reports whether the cache has been invalidated.
func (c *IdentifierCache) Stale() bool {
	return c.stale
}

// Counts returns the number of cached countries, regions, and localities.
func (c *IdentifierCache) Counts() (countries, regions, localities int) {
	return len(c.countries), len(c.regions), len(c.localities)
}

// Load rebuilds the cache from the database and clears staleness.
func (c *IdentifierCache) Load(ctx context.Context, db *bun.DB) error {
	countries := make(map[string]CountryRef)
	regions := make(map[string]int64)
	localities := make(map[string]int64)

	var countryRows []Country
	if err := db.NewSelect().Model(&countryRows).
		Column("id", "code", "continent_id").
		Scan(ctx); err != nil {
		return fmt.Errorf("load country cache: %w", err)
	}
	for _, row := range countryRows {
		countries[row.Code] = CountryRef{ID: row.ID, ContinentID: row.ContinentID}
	}

	var regionRows []Region
	if err := db.NewSelect().Model(&regionRows).
		Column("id", "external_id").
		Where("external_id IS NOT NULL").
		Scan(ctx); err != nil {
		return fmt.Errorf("load region cache: %w", err)
	}
	for _, row := range regionRows {
		regions[*row.ExternalID] = row.ID
	}

	var localityRows []Locality
	if err := db.NewSelect().Model(&localityRows).
		Column("id", "external_id").
		Where("external_id IS NOT NULL").
		Scan(ctx); err != nil {
		return fmt.Errorf("load locality cache: %w", err)
	}
	for _, row := range localityRows {
		localities[*row.ExternalID] = row.ID
	}

	c.countries = countries
	c.regions = regions
	c.localities = localities
	c.stale = false
	return nil
}
