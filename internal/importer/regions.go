package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cartafold/geoimport/internal/geo"
)

// extractRegionCode derives a region's short code. An explicit region
// field like "US-CA" is trimmed to its part after the country prefix;
// without one, the first 8 characters of the external id stand in.
func extractRegionCode(externalID, regionField string) string {
	if regionField != "" {
		if len(regionField) > 3 && regionField[2] == '-' {
			return regionField[3:]
		}
		return regionField
	}
	if len(externalID) >= 8 {
		return externalID[:8]
	}
	return externalID
}

// importRegions loads regions in two passes: top-level regions first,
// then counties and local administrations whose parent is resolved
// against the first pass. Parents outside the first pass are left nil
// rather than guessed.
func (imp *Importer) importRegions(ctx context.Context) error {
	imp.log.Info("importing regions")

	topTypeID, ok := imp.regionTypes["region"]
	if !ok {
		return fmt.Errorf("region type %q missing, run migrations first", "region")
	}
	fallbackSubTypeID, ok := imp.regionTypes["county"]
	if !ok {
		return fmt.Errorf("region type %q missing, run migrations first", "county")
	}

	// Pass 1: top-level regions.
	topLevel := make(map[string]int64)
	topCount := 0
	err := imp.source.TopRegions(ctx, func(row RegionRow) error {
		country, ok := imp.cache.Country(row.CountryCode)
		if !ok {
			return nil
		}
		regionField := ""
		if row.RegionField != nil {
			regionField = *row.RegionField
		}
		externalID := row.ExternalID
		region := geo.Region{
			CountryID:    country.ID,
			RegionTypeID: topTypeID,
			Code:         extractRegionCode(row.ExternalID, regionField),
			Name:         row.Name,
			ExternalID:   &externalID,
			SourceID:     &imp.sourceID,
		}
		if _, err := imp.db.Bun.NewInsert().Model(&region).
			On("CONFLICT DO NOTHING").
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert region %s: %w", row.ExternalID, err)
		}
		// On conflict no row comes back and the id stays zero.
		if region.ID != 0 {
			topLevel[row.ExternalID] = region.ID
			topCount++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read top-level regions: %w", err)
	}
	imp.log.Info("top-level regions imported", slog.Int("count", topCount))

	// Pass 2: sub-regions.
	subCount := 0
	processed := 0
	err = imp.source.SubRegions(ctx, func(row RegionRow) error {
		processed++
		if processed%imp.cfg.ReportEvery == 0 {
			imp.log.Info("sub-region progress",
				slog.Int("inserted", subCount), slog.Int("processed", processed))
		}

		country, ok := imp.cache.Country(row.CountryCode)
		if !ok {
			return nil
		}
		typeID, ok := imp.regionTypes[row.Subtype]
		if !ok {
			typeID = fallbackSubTypeID
		}
		var parentRegionID *int64
		if row.ParentExternalID != nil {
			if id, ok := topLevel[*row.ParentExternalID]; ok {
				parentRegionID = &id
			}
		}
		regionField := ""
		if row.RegionField != nil {
			regionField = *row.RegionField
		}
		externalID := row.ExternalID
		region := geo.Region{
			CountryID:      country.ID,
			ParentRegionID: parentRegionID,
			RegionTypeID:   typeID,
			Code:           extractRegionCode(row.ExternalID, regionField),
			Name:           row.Name,
			ExternalID:     &externalID,
			SourceID:       &imp.sourceID,
		}
		if _, err := imp.db.Bun.NewInsert().Model(&region).
			On("CONFLICT DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert sub-region %s: %w", row.ExternalID, err)
		}
		subCount++
		return nil
	})
	if err != nil {
		return fmt.Errorf("read sub-regions: %w", err)
	}
	imp.log.Info("sub-regions imported", slog.Int("count", subCount))

	// The bulk inserts invalidated the region side of the cache.
	imp.cache.MarkStale()
	if err := imp.cache.Load(ctx, imp.db.Bun); err != nil {
		return err
	}
	return nil
}
