package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cartafold/geoimport/internal/geo"
)

// Dump coordinates are point centroids, stored with a nominal accuracy.
const (
	coordinateAccuracyM = 100
	coordinateBatchSize = 10000
)

type localityCoordinate struct {
	externalID string
	latitude   float64
	longitude  float64
}

// coordinateInRange reports whether a WGS84 point is plausible. Dump rows
// occasionally carry garbage coordinates and those rows are skipped.
func coordinateInRange(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// importLocalities streams every populated place into geo_localities via
// COPY and then writes the coordinates to geo_locality_locations. The raw
// parent external id is stored verbatim; the hierarchy is resolved later.
func (imp *Importer) importLocalities(ctx context.Context) error {
	imp.log.Info("importing localities")
	start := time.Now()

	fallbackTypeID, ok := imp.localityTypes["locality"]
	if !ok {
		return fmt.Errorf("locality type %q missing, run migrations first", "locality")
	}

	columns := []string{
		"locality_type_id", "name", "name_ascii",
		"timezone", "population", "continent_id", "country_id",
		"source_id", "external_id", "parent_external_id",
	}

	// Rows are COPY'd page by page as the source scan produces them so
	// memory stays bounded regardless of dump size. Only the compact
	// coordinate tuples are retained for the second pass.
	addRow, flushRows := collectInBatches(imp.cfg.BatchSize, func(batch [][]any) error {
		if _, err := imp.db.Pool.CopyFrom(ctx,
			pgx.Identifier{"geo_localities"}, columns,
			pgx.CopyFromRows(batch)); err != nil {
			return fmt.Errorf("copy localities: %w", err)
		}
		return nil
	})

	var coords []localityCoordinate
	imported := 0
	skipped := 0
	processed := 0

	err := imp.source.Localities(ctx, func(row LocalityRow) error {
		processed++
		if processed%imp.cfg.ReportEvery == 0 {
			imp.log.Info("locality progress",
				slog.Int("imported", imported),
				slog.Int("skipped", skipped),
				slog.Int("processed", processed))
		}

		country, ok := imp.cache.Country(row.CountryCode)
		if !ok {
			skipped++
			return nil
		}
		if row.Latitude == nil || row.Longitude == nil ||
			!coordinateInRange(*row.Latitude, *row.Longitude) {
			skipped++
			return nil
		}

		typeID, ok := imp.localityTypes[row.TypeLookup]
		if !ok {
			typeID = fallbackTypeID
		}

		if err := addRow([]any{
			typeID,
			row.Name,
			geo.NameASCII(row.Name, row.LocalName),
			"UTC",
			row.Population,
			country.ContinentID,
			country.ID,
			imp.sourceID,
			row.ExternalID,
			row.ParentExternalID,
		}); err != nil {
			return err
		}
		coords = append(coords, localityCoordinate{
			externalID: row.ExternalID,
			latitude:   *row.Latitude,
			longitude:  *row.Longitude,
		})
		imported++
		return nil
	})
	if err != nil {
		return fmt.Errorf("read localities: %w", err)
	}
	if err := flushRows(); err != nil {
		return err
	}
	imp.log.Info("localities imported",
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
		slog.Duration("duration", time.Since(start)))

	// The COPY invalidated the locality side of the cache; coordinates
	// need the fresh ids.
	imp.cache.MarkStale()
	if err := imp.cache.Load(ctx, imp.db.Bun); err != nil {
		return err
	}

	return imp.insertCoordinates(ctx, coords)
}

func (imp *Importer) insertCoordinates(ctx context.Context, coords []localityCoordinate) error {
	imp.log.Info("populating locality locations")
	start := time.Now()

	inserted := 0
	err := inBatches(coords, coordinateBatchSize, func(batch []localityCoordinate) error {
		rows := make([]geo.LocalityLocation, 0, len(batch))
		for _, c := range batch {
			localityID, ok := imp.cache.Locality(c.externalID)
			if !ok {
				continue
			}
			accuracy := coordinateAccuracyM
			rows = append(rows, geo.LocalityLocation{
				LocalityID: localityID,
				SourceID:   &imp.sourceID,
				Latitude:   c.latitude,
				Longitude:  c.longitude,
				AccuracyM:  &accuracy,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := imp.db.Bun.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert locality locations: %w", err)
		}
		inserted += len(rows)
		return nil
	})
	if err != nil {
		return err
	}

	imp.log.Info("locality locations populated",
		slog.Int("inserted", inserted),
		slog.Duration("duration", time.Since(start)))
	return nil
}
