package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
)

// remapTerritories merges remapped territories into their target
// countries: regions and localities move over, the territory's own
// country-level locality row (the placeholder named after the territory)
// is removed with its parent references cleared, and the source country
// row is deleted.
func (imp *Importer) remapTerritories(ctx context.Context) error {
	if len(imp.policy.CountryRemap) == 0 {
		return nil
	}
	imp.log.Info("remapping territories")

	// Deterministic order across runs.
	sources := make([]string, 0, len(imp.policy.CountryRemap))
	for src := range imp.policy.CountryRemap {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	remapped := 0
	for _, sourceCode := range sources {
		targetCode := imp.policy.CountryRemap[sourceCode]

		source, ok := imp.cache.Country(sourceCode)
		if !ok {
			imp.log.Info("remap source not in import, skipping",
				slog.String("source", sourceCode))
			continue
		}
		target, ok := imp.cache.Country(targetCode)
		if !ok {
			imp.log.Warn("remap target not in import, skipping",
				slog.String("source", sourceCode),
				slog.String("target", targetCode))
			continue
		}

		if err := imp.remapOne(ctx, sourceCode, targetCode, source.ID, target.ID, target.ContinentID); err != nil {
			return err
		}

		// The source country row is gone; a later hit would be stale.
		imp.cache.DropCountry(sourceCode)
		remapped++
	}

	// Placeholder locality deletions invalidated the locality side of the
	// cache; later phases resolve ids against it.
	if remapped > 0 {
		imp.cache.MarkStale()
		if err := imp.cache.Load(ctx, imp.db.Bun); err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) remapOne(ctx context.Context, sourceCode, targetCode string, sourceID, targetID, targetContinentID int64) error {
	var sourceName *string
	var sourceExternalID *string
	err := imp.db.Pool.QueryRow(ctx,
		"SELECT name, external_id FROM geo_countries WHERE id = $1", sourceID).
		Scan(&sourceName, &sourceExternalID)
	if err != nil {
		return fmt.Errorf("load remap source %s: %w", sourceCode, err)
	}

	res, err := imp.db.Pool.Exec(ctx, `
		UPDATE geo_regions
		SET country_id = $1, continent_id = $2
		WHERE country_id = $3
	`, targetID, targetContinentID, sourceID)
	if err != nil {
		return fmt.Errorf("remap regions %s: %w", sourceCode, err)
	}
	regionsMoved := res.RowsAffected()

	res, err = imp.db.Pool.Exec(ctx, `
		UPDATE geo_localities
		SET country_id = $1, continent_id = $2
		WHERE country_id = $3
	`, targetID, targetContinentID, sourceID)
	if err != nil {
		return fmt.Errorf("remap localities %s: %w", sourceCode, err)
	}
	localitiesMoved := res.RowsAffected()

	// The dump carries the territory itself as a parentless locality
	// named after it. Its children lose their parent reference and the
	// placeholder is deleted.
	var placeholderID *int64
	var placeholderExternalID *string
	if sourceName != nil {
		err = imp.db.Pool.QueryRow(ctx, `
			SELECT id, external_id FROM geo_localities
			WHERE country_id = $1
			  AND parent_external_id IS NULL
			  AND name = $2
			LIMIT 1
		`, targetID, *sourceName).Scan(&placeholderID, &placeholderExternalID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("find placeholder locality %s: %w", sourceCode, err)
			}
			placeholderID = nil
			placeholderExternalID = nil
		}
	}

	var parentsCleared int64
	if placeholderExternalID != nil {
		res, err = imp.db.Pool.Exec(ctx, `
			UPDATE geo_localities
			SET parent_external_id = NULL
			WHERE parent_external_id = $1
		`, *placeholderExternalID)
		if err != nil {
			return fmt.Errorf("clear placeholder parents %s: %w", sourceCode, err)
		}
		parentsCleared = res.RowsAffected()
	}
	if placeholderID != nil {
		if _, err := imp.db.Pool.Exec(ctx,
			"DELETE FROM geo_localities WHERE id = $1", *placeholderID); err != nil {
			return fmt.Errorf("delete placeholder locality %s: %w", sourceCode, err)
		}
	}

	if _, err := imp.db.Pool.Exec(ctx,
		"DELETE FROM geo_countries WHERE id = $1", sourceID); err != nil {
		return fmt.Errorf("delete remap source %s: %w", sourceCode, err)
	}

	imp.log.Info("territory remapped",
		slog.String("source", sourceCode),
		slog.String("target", targetCode),
		slog.Int64("regions", regionsMoved),
		slog.Int64("localities", localitiesMoved),
		slog.Int64("parents_cleared", parentsCleared))
	return nil
}
