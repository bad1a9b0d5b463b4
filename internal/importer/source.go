// Package importer loads a sharded columnar division dump into the
// normalized geographic store.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// displayNameExpr picks the stored display name inside the scan query:
// English common name, else the first common name starting with a Latin
// letter, else the primary name.
const displayNameExpr = `COALESCE(
    p.names.common['en'],
    (SELECT v FROM (SELECT UNNEST(map_values(p.names.common)) as v) t WHERE v ~ '^[A-Za-z]' LIMIT 1),
    p.names."primary"
)`

// CountryRow is one country or dependency record from the dump.
type CountryRow struct {
	ExternalID string
	Code       string
	Name       string
}

// RegionRow is one region, county, or localadmin record.
type RegionRow struct {
	ExternalID       string
	CountryCode      string
	RegionField      *string
	Subtype          string
	Name             string
	ParentExternalID *string
}

// LocalityRow is one populated-place record.
type LocalityRow struct {
	ExternalID       string
	ParentExternalID *string
	CountryCode      string
	TypeLookup       string
	Name             string
	LocalName        string
	Longitude        *float64
	Latitude         *float64
	Population       *int64
}

// BoundaryRow is an aggregated multipolygon keyed by country code or
// division external id, serialized as WKB.
type BoundaryRow struct {
	Key string
	WKB []byte
}

// NameRow is one localized name record.
type NameRow struct {
	ExternalID string
	Language   string
	Name       string
	NameType   string
}

// DivisionSource streams records out of a division dump. Implementations
// invoke the callback once per record and stop on the first error.
type DivisionSource interface {
	Countries(ctx context.Context, fn func(CountryRow) error) error
	TopRegions(ctx context.Context, fn func(RegionRow) error) error
	SubRegions(ctx context.Context, fn func(RegionRow) error) error
	Localities(ctx context.Context, fn func(LocalityRow) error) error

	// HasBoundaries reports whether the dump includes boundary shards.
	HasBoundaries() bool
	CountryBoundaries(ctx context.Context, fn func(BoundaryRow) error) error
	RegionBoundaries(ctx context.Context, fn func(BoundaryRow) error) error
	LocalityBoundaries(ctx context.Context, fn func(BoundaryRow) error) error

	PrimaryNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error
	CommonNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error
	RuleNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error

	Close() error
}

// Subtype groups per target table.
var (
	CountrySubtypes  = []string{"country", "dependency"}
	RegionSubtypes   = []string{"region", "county", "localadmin"}
	LocalitySubtypes = []string{"locality", "neighborhood", "macrohood", "microhood"}
)

// ParquetSource reads division dumps with an in-memory DuckDB instance.
// The spatial extension handles geometry extraction and WKB aggregation.
type ParquetSource struct {
	db              *sql.DB
	divisionGlob    string
	boundaryGlob    string
	boundariesFound bool
}

// OpenParquetSource opens a source over the shard files under dataDir.
// Point shards are required; boundary shards are optional.
func OpenParquetSource(dataDir string) (*ParquetSource, error) {
	divisionGlob, err := resolveDivisionGlob(dataDir)
	if err != nil {
		return nil, err
	}
	boundaryGlob, boundariesFound := resolveBoundaryGlob(dataDir)

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.Exec("INSTALL spatial; LOAD spatial;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("load duckdb spatial extension: %w", err)
	}

	return &ParquetSource{
		db:              db,
		divisionGlob:    divisionGlob,
		boundaryGlob:    boundaryGlob,
		boundariesFound: boundariesFound,
	}, nil
}

// resolveDivisionGlob locates the point shards. Sharded subdirectory
// layout is preferred; single-file and numbered-file layouts from older
// dumps are still accepted.
func resolveDivisionGlob(dataDir string) (string, error) {
	subdir := filepath.Join(dataDir, "division")
	if hasParquet(filepath.Join(subdir, "*.parquet")) {
		return filepath.Join(subdir, "*.parquet"), nil
	}
	single := filepath.Join(dataDir, "division.parquet")
	if _, err := os.Stat(single); err == nil {
		return single, nil
	}
	numbered := filepath.Join(dataDir, "divisions-*.parquet")
	if hasParquet(numbered) {
		return numbered, nil
	}
	return "", fmt.Errorf("no division parquet files found in %s", dataDir)
}

// resolveBoundaryGlob locates the boundary shards, if any.
func resolveBoundaryGlob(dataDir string) (string, bool) {
	subdir := filepath.Join(dataDir, "division_area")
	if hasParquet(filepath.Join(subdir, "*.parquet")) {
		return filepath.Join(subdir, "*.parquet"), true
	}
	legacy := filepath.Join(dataDir, "division_area*.parquet")
	if hasParquet(legacy) {
		return legacy, true
	}
	return "", false
}

func hasParquet(glob string) bool {
	matches, err := filepath.Glob(glob)
	return err == nil && len(matches) > 0
}

func (s *ParquetSource) Close() error {
	return s.db.Close()
}

func (s *ParquetSource) HasBoundaries() bool {
	return s.boundariesFound
}

func (s *ParquetSource) Countries(ctx context.Context, fn func(CountryRow) error) error {
	query := fmt.Sprintf(`
		SELECT DISTINCT
			p.id,
			COALESCE(p.country, p.region) as country_code,
			%s as name
		FROM read_parquet('%s') p
		WHERE p.subtype IN ('country', 'dependency')
		  AND p.names."primary" IS NOT NULL
		  AND (p.country IS NOT NULL OR p.region IS NOT NULL)
	`, displayNameExpr, s.divisionGlob)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan countries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r CountryRow
		if err := rows.Scan(&r.ExternalID, &r.Code, &r.Name); err != nil {
			return fmt.Errorf("scan country row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *ParquetSource) TopRegions(ctx context.Context, fn func(RegionRow) error) error {
	query := fmt.Sprintf(`
		SELECT p.id, p.country, p.region, p.subtype, %s as name, p.parent_division_id
		FROM read_parquet('%s') p
		WHERE p.subtype = 'region'
		  AND p.names."primary" IS NOT NULL
		  AND p.country IS NOT NULL
	`, displayNameExpr, s.divisionGlob)
	return s.scanRegions(ctx, query, fn)
}

func (s *ParquetSource) SubRegions(ctx context.Context, fn func(RegionRow) error) error {
	query := fmt.Sprintf(`
		SELECT p.id, p.country, p.region, p.subtype, %s as name, p.parent_division_id
		FROM read_parquet('%s') p
		WHERE p.subtype IN ('county', 'localadmin')
		  AND p.names."primary" IS NOT NULL
		  AND p.country IS NOT NULL
	`, displayNameExpr, s.divisionGlob)
	return s.scanRegions(ctx, query, fn)
}

func (s *ParquetSource) scanRegions(ctx context.Context, query string, fn func(RegionRow) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan regions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r RegionRow
		if err := rows.Scan(&r.ExternalID, &r.CountryCode, &r.RegionField, &r.Subtype, &r.Name, &r.ParentExternalID); err != nil {
			return fmt.Errorf("scan region row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *ParquetSource) Localities(ctx context.Context, fn func(LocalityRow) error) error {
	query := fmt.Sprintf(`
		SELECT
			p.id,
			p.parent_division_id,
			p.country,
			COALESCE(p.class, p.subtype) as type_lookup,
			%s as name,
			p.names."primary" as local_name,
			ST_X(p.geometry) as lng,
			ST_Y(p.geometry) as lat,
			p.population
		FROM read_parquet('%s') p
		WHERE p.subtype IN ('locality', 'neighborhood', 'macrohood', 'microhood')
		  AND p.names."primary" IS NOT NULL
		  AND p.country IS NOT NULL
		  AND p.geometry IS NOT NULL
	`, displayNameExpr, s.divisionGlob)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan localities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r LocalityRow
		if err := rows.Scan(&r.ExternalID, &r.ParentExternalID, &r.CountryCode, &r.TypeLookup,
			&r.Name, &r.LocalName, &r.Longitude, &r.Latitude, &r.Population); err != nil {
			return fmt.Errorf("scan locality row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountryBoundaries aggregates all boundary polygons per country code
// into a single geometry, preserving islands and exclaves.
func (s *ParquetSource) CountryBoundaries(ctx context.Context, fn func(BoundaryRow) error) error {
	query := fmt.Sprintf(`
		SELECT country, ST_AsWKB(ST_Union_Agg(geometry)) as geom_wkb
		FROM read_parquet('%s')
		WHERE subtype IN ('country', 'dependency')
		  AND country IS NOT NULL
		  AND geometry IS NOT NULL
		GROUP BY country
	`, s.boundaryGlob)
	return s.scanBoundaries(ctx, query, fn)
}

func (s *ParquetSource) RegionBoundaries(ctx context.Context, fn func(BoundaryRow) error) error {
	query := fmt.Sprintf(`
		SELECT division_id, ST_AsWKB(ST_Union_Agg(geometry)) as geom_wkb
		FROM read_parquet('%s')
		WHERE subtype IN ('region', 'county', 'localadmin')
		  AND division_id IS NOT NULL
		  AND geometry IS NOT NULL
		GROUP BY division_id
	`, s.boundaryGlob)
	return s.scanBoundaries(ctx, query, fn)
}

func (s *ParquetSource) LocalityBoundaries(ctx context.Context, fn func(BoundaryRow) error) error {
	query := fmt.Sprintf(`
		SELECT division_id, ST_AsWKB(ST_Union_Agg(geometry)) as geom_wkb
		FROM read_parquet('%s')
		WHERE subtype IN ('locality', 'neighborhood', 'macrohood', 'microhood')
		  AND division_id IS NOT NULL
		  AND geometry IS NOT NULL
		GROUP BY division_id
	`, s.boundaryGlob)
	return s.scanBoundaries(ctx, query, fn)
}

func (s *ParquetSource) scanBoundaries(ctx context.Context, query string, fn func(BoundaryRow) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan boundaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r BoundaryRow
		if err := rows.Scan(&r.Key, &r.WKB); err != nil {
			return fmt.Errorf("scan boundary row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PrimaryNames streams native-language primary names.
func (s *ParquetSource) PrimaryNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error {
	query := fmt.Sprintf(`
		SELECT DISTINCT p.id, p.names."primary" as name
		FROM read_parquet('%s') p
		WHERE p.subtype IN (%s) AND p.names."primary" IS NOT NULL
	`, s.divisionGlob, subtypeList(subtypes))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan primary names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r NameRow
		if err := rows.Scan(&r.ExternalID, &r.Name); err != nil {
			return fmt.Errorf("scan primary name row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CommonNames streams translated common names, limited to two-letter
// language codes.
func (s *ParquetSource) CommonNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error {
	query := fmt.Sprintf(`
		SELECT DISTINCT p.id, lang as language_code, name
		FROM read_parquet('%s') p,
		LATERAL (SELECT UNNEST(map_keys(p.names.common)) as lang, UNNEST(map_values(p.names.common)) as name)
		WHERE p.subtype IN (%s) AND p.names.common IS NOT NULL AND name IS NOT NULL
		  AND length(lang) = 2
	`, s.divisionGlob, subtypeList(subtypes))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan common names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r NameRow
		var lang *string
		if err := rows.Scan(&r.ExternalID, &lang, &r.Name); err != nil {
			return fmt.Errorf("scan common name row: %w", err)
		}
		r.Language = "en"
		if lang != nil && *lang != "" {
			r.Language = *lang
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// RuleNames streams official, alternate, and short name variants.
func (s *ParquetSource) RuleNames(ctx context.Context, subtypes []string, fn func(NameRow) error) error {
	query := fmt.Sprintf(`
		SELECT DISTINCT p.id,
			COALESCE(r.language, 'en') as language_code,
			r.value as name, r.variant as name_type
		FROM read_parquet('%s') p,
		LATERAL (SELECT UNNEST(p.names.rules) as r)
		WHERE p.subtype IN (%s) AND p.names.rules IS NOT NULL
		  AND r.value IS NOT NULL AND r.variant IN ('official', 'alternate', 'short')
		  AND (r.language IS NULL OR length(r.language) = 2)
	`, s.divisionGlob, subtypeList(subtypes))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan rule names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r NameRow
		var lang *string
		if err := rows.Scan(&r.ExternalID, &lang, &r.Name, &r.NameType); err != nil {
			return fmt.Errorf("scan rule name row: %w", err)
		}
		r.Language = "en"
		if lang != nil && *lang != "" {
			r.Language = *lang
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func subtypeList(subtypes []string) string {
	out := ""
	for i, s := range subtypes {
		if i > 0 {
			out += ", "
		}
		out += "'" + s + "'"
	}
	return out
}
