package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cartafold/geoimport/internal/config"
	"github.com/cartafold/geoimport/internal/database"
	"github.com/cartafold/geoimport/internal/geo"
	"github.com/cartafold/geoimport/pkg/logger"
)

// Options selects optional import phases.
type Options struct {
	SkipBoundaries bool
	SkipNames      bool
}

// Stats summarizes a completed import run.
type Stats struct {
	Countries        int64
	Regions          int64
	Localities       int64
	Names            int64
	SyntheticRegions int
	OrphanLocalities int
	Duration         time.Duration
}

// Importer runs the full division import pipeline against a fresh or
// previously imported database. Every run starts by truncating the geo
// tables, so the pipeline is idempotent at the run level.
type Importer struct {
	db     *database.DB
	cfg    config.ImportConfig
	policy *geo.Policy
	source DivisionSource
	log    *slog.Logger

	cache             *geo.IdentifierCache
	sourceID          int64
	syntheticSourceID int64
	regionTypes       map[string]int64
	localityTypes     map[string]int64
}

// New assembles an Importer. The policy must already be validated.
func New(db *database.DB, cfg config.ImportConfig, policy *geo.Policy, source DivisionSource, log *slog.Logger) *Importer {
	return &Importer{
		db:     db,
		cfg:    cfg,
		policy: policy,
		source: source,
		log:    log.With(logger.Scope("importer")),
		cache:  geo.NewIdentifierCache(),
	}
}

// Run executes the import phases in their fixed order. Synthetic regions
// are created before territory remapping so orphan localities of
// remapped territories land in their own regions first; the remap then
// moves regions and localities together.
func (imp *Importer) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := time.Now()

	if err := imp.loadLookups(ctx); err != nil {
		return nil, err
	}

	if err := imp.resetTables(ctx); err != nil {
		return nil, err
	}
	if err := imp.disableConstraints(ctx); err != nil {
		return nil, err
	}

	if err := imp.importCountries(ctx); err != nil {
		return nil, err
	}
	if err := imp.importRegions(ctx); err != nil {
		return nil, err
	}
	if err := imp.importLocalities(ctx); err != nil {
		return nil, err
	}

	stats := &Stats{}
	created, updated, err := imp.createSyntheticRegions(ctx)
	if err != nil {
		return nil, err
	}
	stats.SyntheticRegions = created
	stats.OrphanLocalities = updated

	if err := imp.remapTerritories(ctx); err != nil {
		return nil, err
	}
	if err := imp.overrideJerusalem(ctx); err != nil {
		return nil, err
	}

	if opts.SkipBoundaries {
		imp.log.Info("skipping boundary import")
	} else if err := imp.importBoundaries(ctx); err != nil {
		return nil, err
	}

	if opts.SkipNames {
		imp.log.Info("skipping name import")
	} else if err := imp.importNames(ctx); err != nil {
		return nil, err
	}

	if err := imp.enableConstraints(ctx); err != nil {
		return nil, err
	}

	if err := imp.collectCounts(ctx, stats); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)

	imp.log.Info("import complete",
		slog.Int64("countries", stats.Countries),
		slog.Int64("regions", stats.Regions),
		slog.Int64("localities", stats.Localities),
		slog.Int64("names", stats.Names),
		slog.Int("synthetic_regions", stats.SyntheticRegions),
		slog.Int("orphan_localities", stats.OrphanLocalities),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// loadLookups resolves the data-source ids and the type tables keyed by
// both their own code and the dump subtype they correspond to.
func (imp *Importer) loadLookups(ctx context.Context) error {
	var sources []geo.DataSource
	if err := imp.db.Bun.NewSelect().Model(&sources).Scan(ctx); err != nil {
		return fmt.Errorf("load data sources: %w", err)
	}
	for _, s := range sources {
		switch s.Key {
		case "divisions":
			imp.sourceID = s.ID
		case "synthetic":
			imp.syntheticSourceID = s.ID
		}
	}
	if imp.sourceID == 0 {
		return fmt.Errorf("data source %q not found, run migrations first", "divisions")
	}
	if imp.syntheticSourceID == 0 {
		return fmt.Errorf("data source %q not found, run migrations first", "synthetic")
	}

	var regionTypes []geo.RegionType
	if err := imp.db.Bun.NewSelect().Model(&regionTypes).Scan(ctx); err != nil {
		return fmt.Errorf("load region types: %w", err)
	}
	imp.regionTypes = make(map[string]int64, len(regionTypes)*2)
	for _, rt := range regionTypes {
		imp.regionTypes[rt.Code] = rt.ID
		if rt.SourceSubtype != nil {
			imp.regionTypes[*rt.SourceSubtype] = rt.ID
		}
	}

	var localityTypes []geo.LocalityType
	if err := imp.db.Bun.NewSelect().Model(&localityTypes).Scan(ctx); err != nil {
		return fmt.Errorf("load locality types: %w", err)
	}
	imp.localityTypes = make(map[string]int64, len(localityTypes)*2)
	for _, lt := range localityTypes {
		imp.localityTypes[lt.Code] = lt.ID
		if lt.SourceSubtype != nil {
			imp.localityTypes[*lt.SourceSubtype] = lt.ID
		}
	}
	return nil
}

func (imp *Importer) collectCounts(ctx context.Context, stats *Stats) error {
	queries := []struct {
		dst   *int64
		query string
	}{
		{&stats.Countries, "SELECT COUNT(*) FROM geo_countries WHERE external_id IS NOT NULL"},
		{&stats.Regions, "SELECT COUNT(*) FROM geo_regions WHERE external_id IS NOT NULL"},
		{&stats.Localities, "SELECT COUNT(*) FROM geo_localities WHERE external_id IS NOT NULL"},
		{&stats.Names, "SELECT COUNT(*) FROM geo_names"},
	}
	for _, q := range queries {
		if err := imp.db.Pool.QueryRow(ctx, q.query).Scan(q.dst); err != nil {
			return fmt.Errorf("collect counts: %w", err)
		}
	}
	return nil
}
