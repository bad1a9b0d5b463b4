package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// importBoundaries writes the aggregated multipolygons onto countries,
// regions, and localities. Each boundary is already a per-entity union,
// so islands and exclaves stay part of their entity. Missing boundary
// shards skip the phase rather than failing the run.
func (imp *Importer) importBoundaries(ctx context.Context) error {
	if !imp.source.HasBoundaries() {
		imp.log.Warn("no boundary shards found, skipping boundary import")
		return nil
	}
	imp.log.Info("importing boundaries")
	start := time.Now()

	countryUpdated, err := imp.updateBoundaries(ctx,
		"UPDATE geo_countries SET boundary = ST_Multi(ST_GeomFromWKB($1, 4326)) WHERE id = $2",
		imp.source.CountryBoundaries,
		func(code string) (int64, bool) {
			ref, ok := imp.cache.Country(code)
			return ref.ID, ok
		})
	if err != nil {
		return fmt.Errorf("country boundaries: %w", err)
	}
	imp.log.Info("country boundaries updated", slog.Int("count", countryUpdated))

	regionUpdated, err := imp.updateBoundaries(ctx,
		"UPDATE geo_regions SET boundary = ST_Multi(ST_GeomFromWKB($1, 4326)) WHERE id = $2",
		imp.source.RegionBoundaries,
		imp.cache.Region)
	if err != nil {
		return fmt.Errorf("region boundaries: %w", err)
	}
	imp.log.Info("region boundaries updated", slog.Int("count", regionUpdated))

	localityUpdated, err := imp.updateBoundaries(ctx,
		"UPDATE geo_localities SET boundary = ST_Multi(ST_GeomFromWKB($1, 4326)) WHERE id = $2",
		imp.source.LocalityBoundaries,
		imp.cache.Locality)
	if err != nil {
		return fmt.Errorf("locality boundaries: %w", err)
	}
	imp.log.Info("locality boundaries updated", slog.Int("count", localityUpdated))

	imp.log.Info("boundaries imported", slog.Duration("duration", time.Since(start)))
	return nil
}

// updateBoundaries streams boundary rows, resolves each key to a row id,
// and flushes the updates in batches. Keys not present in the store are
// dropped; the dump covers entities the import filtered out.
func (imp *Importer) updateBoundaries(
	ctx context.Context,
	updateSQL string,
	stream func(context.Context, func(BoundaryRow) error) error,
	resolve func(string) (int64, bool),
) (int, error) {
	updated := 0

	add, flush := collectInBatches(imp.cfg.BoundaryBatchSize, func(batch []BoundaryRow) error {
		var pgxBatch pgx.Batch
		n := 0
		for _, row := range batch {
			id, ok := resolve(row.Key)
			if !ok {
				continue
			}
			pgxBatch.Queue(updateSQL, row.WKB, id)
			n++
		}
		if n == 0 {
			return nil
		}
		if err := imp.db.Pool.SendBatch(ctx, &pgxBatch).Close(); err != nil {
			return err
		}
		updated += n
		return nil
	})

	err := stream(ctx, func(row BoundaryRow) error {
		return add(row)
	})
	if err != nil {
		return updated, err
	}
	if err := flush(); err != nil {
		return updated, err
	}
	return updated, nil
}
