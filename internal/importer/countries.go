package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cartafold/geoimport/internal/geo"
)

// importCountries inserts one row per distinct country code, initially
// on the "XX" sentinel continent, then assigns real continents from the
// policy. Codes the policy does not cover stay on the sentinel and are
// logged for triage.
func (imp *Importer) importCountries(ctx context.Context) error {
	imp.log.Info("importing countries")

	var continents []geo.Continent
	if err := imp.db.Bun.NewSelect().Model(&continents).Scan(ctx); err != nil {
		return fmt.Errorf("load continents: %w", err)
	}
	continentIDs := make(map[string]int64, len(continents))
	for _, c := range continents {
		continentIDs[c.Code] = c.ID
	}
	unmappedID, ok := continentIDs["XX"]
	if !ok {
		return fmt.Errorf("sentinel continent XX missing, run migrations first")
	}

	// First country record per code wins; the dump repeats codes across
	// shards.
	seen := make(map[string]struct{})
	var countries []geo.Country
	err := imp.source.Countries(ctx, func(row CountryRow) error {
		if len(row.Code) != 2 {
			return nil
		}
		if _, dup := seen[row.Code]; dup {
			return nil
		}
		seen[row.Code] = struct{}{}
		externalID := row.ExternalID
		countries = append(countries, geo.Country{
			Code:        row.Code,
			Name:        row.Name,
			ContinentID: unmappedID,
			SourceID:    &imp.sourceID,
			ExternalID:  &externalID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("read countries: %w", err)
	}
	imp.log.Info("found countries", slog.Int("count", len(countries)))

	if len(countries) > 0 {
		if _, err := imp.db.Bun.NewInsert().Model(&countries).
			On("CONFLICT (code) DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert countries: %w", err)
		}
	}

	// Assign continents per policy.
	var pending []geo.Country
	if err := imp.db.Bun.NewSelect().Model(&pending).
		Column("id", "code", "name").
		Where("continent_id = ?", unmappedID).
		Scan(ctx); err != nil {
		return fmt.Errorf("load unmapped countries: %w", err)
	}

	mapped := 0
	var unmapped []string
	for _, c := range pending {
		continentCode, ok := imp.policy.ContinentFor(c.Code)
		if !ok {
			unmapped = append(unmapped, c.Code)
			continue
		}
		continentID, ok := continentIDs[continentCode]
		if !ok {
			unmapped = append(unmapped, c.Code)
			continue
		}
		if _, err := imp.db.Bun.NewUpdate().Model((*geo.Country)(nil)).
			Set("continent_id = ?", continentID).
			Where("id = ?", c.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("assign continent for %s: %w", c.Code, err)
		}
		mapped++
	}
	if len(unmapped) > 0 {
		imp.log.Warn("countries left on sentinel continent",
			slog.Int("count", len(unmapped)),
			slog.Any("codes", unmapped))
	}

	if err := imp.cache.Load(ctx, imp.db.Bun); err != nil {
		return err
	}
	imp.log.Info("countries imported", slog.Int("mapped", mapped))
	return nil
}
