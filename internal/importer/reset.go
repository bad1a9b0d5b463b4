package importer

import (
	"context"
	"fmt"

	"github.com/cartafold/geoimport/pkg/pgutils"
)

// Truncation order respects FK direction even though CASCADE would cover
// dependents anyway.
var tablesToTruncate = []string{
	"geo_names",
	"geo_locality_locations",
	"geo_localities",
	"geo_regions",
	"geo_countries",
}

var tablesWithTriggers = []string{
	"geo_localities",
	"geo_regions",
	"geo_names",
}

var indexesToDrop = []string{
	"idx_geo_localities_parent_external",
	"idx_geo_localities_external",
	"idx_geo_localities_type",
	"idx_geo_localities_name",
	"idx_geo_localities_population",
	"idx_geo_locality_locations_gist",
	"idx_geo_names_trgm",
	"idx_geo_names_entity_lookup",
}

var indexesDDL = []string{
	// Non-unique on purpose: dumps occasionally repeat an external id and
	// a duplicate should not abort the run at index rebuild time.
	"CREATE INDEX IF NOT EXISTS idx_geo_localities_external ON geo_localities(external_id) WHERE external_id IS NOT NULL",
	"CREATE INDEX IF NOT EXISTS idx_geo_localities_parent_external ON geo_localities(parent_external_id)",
	"CREATE INDEX IF NOT EXISTS idx_geo_localities_type ON geo_localities(locality_type_id)",
	"CREATE INDEX IF NOT EXISTS idx_geo_localities_name ON geo_localities(name)",
	"CREATE INDEX IF NOT EXISTS idx_geo_localities_population ON geo_localities(population DESC NULLS LAST)",
	"CREATE INDEX IF NOT EXISTS idx_geo_locality_locations_gist ON geo_locality_locations USING GIST(location)",
	"CREATE INDEX IF NOT EXISTS idx_geo_names_trgm ON geo_names USING GIN(name gin_trgm_ops)",
	"CREATE INDEX IF NOT EXISTS idx_geo_names_entity_lookup ON geo_names(entity_type, entity_id, language_code) INCLUDE (name_type, name)",
}

// resetTables truncates all geo tables so the run starts from scratch.
func (imp *Importer) resetTables(ctx context.Context) error {
	imp.log.Info("resetting tables")
	for _, table := range tablesToTruncate {
		if _, err := imp.db.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			if pgutils.IsUndefinedTable(err) {
				return fmt.Errorf("table %s missing, run migrations first: %w", table, err)
			}
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// disableConstraints turns off FK triggers, drops the bulk-load indexes,
// and drops the geo_names language FK so the COPY and VALUES-join inserts
// run without per-row checks.
func (imp *Importer) disableConstraints(ctx context.Context) error {
	imp.log.Info("disabling constraints and indexes")

	for _, table := range tablesWithTriggers {
		if _, err := imp.db.Pool.Exec(ctx, "ALTER TABLE "+table+" DISABLE TRIGGER ALL"); err != nil {
			return fmt.Errorf("disable triggers on %s: %w", table, err)
		}
	}
	for _, idx := range indexesToDrop {
		if _, err := imp.db.Pool.Exec(ctx, "DROP INDEX IF EXISTS "+idx); err != nil {
			return fmt.Errorf("drop index %s: %w", idx, err)
		}
	}
	if _, err := imp.db.Pool.Exec(ctx,
		"ALTER TABLE geo_names DROP CONSTRAINT IF EXISTS geo_names_language_code_fkey"); err != nil {
		return fmt.Errorf("drop geo_names language fkey: %w", err)
	}
	return nil
}

// enableConstraints re-enables triggers, recreates the dropped indexes,
// and restores the geo_names language FK. Language codes seen during the
// import but missing from the languages table are registered first so
// the FK validates.
func (imp *Importer) enableConstraints(ctx context.Context) error {
	imp.log.Info("re-enabling constraints and indexes")

	for _, table := range tablesWithTriggers {
		if _, err := imp.db.Pool.Exec(ctx, "ALTER TABLE "+table+" ENABLE TRIGGER ALL"); err != nil {
			return fmt.Errorf("enable triggers on %s: %w", table, err)
		}
	}
	for _, ddl := range indexesDDL {
		if _, err := imp.db.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("recreate index: %w", err)
		}
	}

	if _, err := imp.db.Pool.Exec(ctx, `
		INSERT INTO languages (code, name)
		SELECT DISTINCT language_code, language_code FROM geo_names
		ON CONFLICT (code) DO NOTHING
	`); err != nil {
		return fmt.Errorf("register imported language codes: %w", err)
	}

	if _, err := imp.db.Pool.Exec(ctx, `
		ALTER TABLE geo_names
		ADD CONSTRAINT geo_names_language_code_fkey
		FOREIGN KEY (language_code) REFERENCES languages(code) ON DELETE CASCADE
	`); err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return fmt.Errorf("geo_names has language codes missing from languages: %w", err)
		}
		return fmt.Errorf("restore geo_names language fkey: %w", err)
	}
	return nil
}
