// Package geo defines the geographic domain model and the import policy
// that governs continent assignment, territory remapping, and synthetic
// region synthesis.
package geo

import (
	"github.com/uptrace/bun"
)

// Continent is a top-level geographic grouping. The code "XX" is a
// sentinel for countries whose continent is not yet known.
type Continent struct {
	bun.BaseModel `bun:"table:geo_continents,alias:cont"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Code string `bun:"code,notnull"`
	Name string `bun:"name,notnull"`
}

// Country is a sovereign state, dependency, or disputed territory keyed
// by its two-letter code.
type Country struct {
	bun.BaseModel `bun:"table:geo_countries,alias:c"`

	ID          int64   `bun:"id,pk,autoincrement"`
	Code        string  `bun:"code,notnull"`
	Name        string  `bun:"name,notnull"`
	ContinentID int64   `bun:"continent_id,notnull"`
	SourceID    *int64  `bun:"source_id"`
	ExternalID  *string `bun:"external_id"`
}

// RegionType classifies regions by the subtype they were derived from.
type RegionType struct {
	bun.BaseModel `bun:"table:geo_region_types,alias:rt"`

	ID            int64   `bun:"id,pk,autoincrement"`
	Code          string  `bun:"code,notnull"`
	Name          string  `bun:"name,notnull"`
	SourceSubtype *string `bun:"source_subtype"`
	SortOrder     int     `bun:"sort_order,notnull"`
}

// Region is a first- or second-level administrative division. Sub-regions
// (counties, local administrations) point at their parent via
// ParentRegionID; top-level regions leave it nil.
type Region struct {
	bun.BaseModel `bun:"table:geo_regions,alias:r"`

	ID             int64   `bun:"id,pk,autoincrement"`
	CountryID      int64   `bun:"country_id,notnull"`
	ContinentID    *int64  `bun:"continent_id"`
	ParentRegionID *int64  `bun:"parent_region_id"`
	RegionTypeID   int64   `bun:"region_type_id,notnull"`
	Code           string  `bun:"code,notnull"`
	Name           string  `bun:"name,notnull"`
	ExternalID     *string `bun:"external_id"`
	SourceID       *int64  `bun:"source_id"`
}

// LocalityType classifies localities (locality, neighborhood, ...).
type LocalityType struct {
	bun.BaseModel `bun:"table:geo_locality_types,alias:lt"`

	ID            int64   `bun:"id,pk,autoincrement"`
	Code          string  `bun:"code,notnull"`
	Name          string  `bun:"name,notnull"`
	SourceSubtype *string `bun:"source_subtype"`
}

// Locality is a populated place. ParentExternalID carries the raw parent
// identifier from the source dump; the containment hierarchy is resolved
// against it after the bulk load.
type Locality struct {
	bun.BaseModel `bun:"table:geo_localities,alias:l"`

	ID               int64   `bun:"id,pk,autoincrement"`
	LocalityTypeID   int64   `bun:"locality_type_id,notnull"`
	Name             string  `bun:"name,notnull"`
	NameASCII        string  `bun:"name_ascii,notnull"`
	Timezone         string  `bun:"timezone,notnull"`
	Population       *int64  `bun:"population"`
	ContinentID      *int64  `bun:"continent_id"`
	CountryID        int64   `bun:"country_id,notnull"`
	SourceID         *int64  `bun:"source_id"`
	ExternalID       *string `bun:"external_id"`
	ParentExternalID *string `bun:"parent_external_id"`
}

// LocalityLocation is a point coordinate for a locality.
type LocalityLocation struct {
	bun.BaseModel `bun:"table:geo_locality_locations,alias:ll"`

	ID         int64   `bun:"id,pk,autoincrement"`
	LocalityID int64   `bun:"locality_id,notnull"`
	SourceID   *int64  `bun:"source_id"`
	Latitude   float64 `bun:"latitude,notnull"`
	Longitude  float64 `bun:"longitude,notnull"`
	AccuracyM  *int    `bun:"accuracy_m"`
}

// Name is a localized name for a country, region, or locality.
type Name struct {
	bun.BaseModel `bun:"table:geo_names,alias:n"`

	ID           int64  `bun:"id,pk,autoincrement"`
	EntityType   string `bun:"entity_type,notnull"`
	EntityID     int64  `bun:"entity_id,notnull"`
	LanguageCode string `bun:"language_code,notnull"`
	Name         string `bun:"name,notnull"`
	NameType     string `bun:"name_type,notnull"`
	SourceID     *int64 `bun:"source_id"`
}

// DataSource identifies where a row originated.
type DataSource struct {
	bun.BaseModel `bun:"table:geo_data_sources,alias:ds"`

	ID          int64   `bun:"id,pk,autoincrement"`
	Key         string  `bun:"key,notnull"`
	Name        string  `bun:"name,notnull"`
	Description *string `bun:"description"`
	Priority    int     `bun:"priority,notnull"`
}
