package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cartafold/geoimport/internal/geo"
)

// SyntheticExternalID derives the external id of a synthesized region.
func SyntheticExternalID(regionCode string) string {
	return "synthetic:" + regionCode
}

// createSyntheticRegions finds localities with no region ancestor,
// groups them by country, and reparents them onto policy-defined
// synthetic regions. Returns the number of regions created and the
// number of localities reparented.
func (imp *Importer) createSyntheticRegions(ctx context.Context) (int, int, error) {
	imp.log.Info("creating synthetic regions for orphan localities")

	groupTypeID, ok := imp.regionTypes["locality_group"]
	if !ok {
		return 0, 0, fmt.Errorf("region type %q missing, run migrations first", "locality_group")
	}

	regionSet, parentOf, nodes, err := imp.loadAncestry(ctx)
	if err != nil {
		return 0, 0, err
	}

	result := ResolveOrphans(nodes, regionSet, parentOf, imp.cfg.OrphanHopLimit)
	imp.log.Info("orphan detection complete",
		slog.Int("orphans", result.Total()),
		slog.Int("countries", len(result.ByCountry)))
	if len(result.HopLimitHits) > 0 {
		imp.log.Warn("ancestry walks hit the hop limit",
			slog.Int("count", len(result.HopLimitHits)),
			slog.Any("locality_ids", truncateIDs(result.HopLimitHits, 20)))
	}
	if result.Total() == 0 {
		return 0, 0, nil
	}

	countryNames, err := imp.countryNamesByCode(ctx)
	if err != nil {
		return 0, 0, err
	}

	// Largest orphan groups first, matching reporting priority.
	codes := make([]string, 0, len(result.ByCountry))
	for code := range result.ByCountry {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, b := len(result.ByCountry[codes[i]]), len(result.ByCountry[codes[j]])
		if a != b {
			return a > b
		}
		return codes[i] < codes[j]
	})

	createdRegions := make(map[string]int64)
	created := 0
	updated := 0

	for _, countryCode := range codes {
		orphanIDs := result.ByCountry[countryCode]
		sr := imp.policy.SyntheticRegionFor(countryCode, countryNames[countryCode])

		target, ok := imp.cache.Country(sr.TargetCountry)
		if !ok {
			imp.log.Warn("synthetic region target country not found",
				slog.String("country", countryCode),
				slog.String("target", sr.TargetCountry))
			continue
		}

		regionID, ok := createdRegions[sr.Code]
		if !ok {
			regionID, created, err = imp.ensureSyntheticRegion(ctx, sr, target, groupTypeID, created)
			if err != nil {
				return 0, 0, err
			}
			createdRegions[sr.Code] = regionID
		}

		// Reparent the orphans onto the synthetic region so hierarchy
		// resolution finds it like any other region.
		res, err := imp.db.Pool.Exec(ctx, `
			UPDATE geo_localities
			SET parent_external_id = $1
			WHERE id = ANY($2)
		`, SyntheticExternalID(sr.Code), orphanIDs)
		if err != nil {
			return 0, 0, fmt.Errorf("reparent orphans for %s: %w", countryCode, err)
		}
		updated += int(res.RowsAffected())

		if len(orphanIDs) >= 10 {
			imp.log.Info("orphans reparented",
				slog.String("country", countryCode),
				slog.String("region", sr.Code),
				slog.Int("count", len(orphanIDs)))
		}
	}

	imp.cache.MarkStale()
	if err := imp.cache.Load(ctx, imp.db.Bun); err != nil {
		return 0, 0, err
	}

	imp.log.Info("synthetic regions complete",
		slog.Int("created", created),
		slog.Int("localities_updated", updated))
	return created, updated, nil
}

// ensureSyntheticRegion inserts the region unless an earlier run of the
// same shared code already did.
func (imp *Importer) ensureSyntheticRegion(ctx context.Context, sr geo.SyntheticRegion, target geo.CountryRef, groupTypeID int64, created int) (int64, int, error) {
	var existing geo.Region
	err := imp.db.Bun.NewSelect().Model(&existing).
		Column("id").
		Where("code = ?", sr.Code).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing.ID, created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, created, fmt.Errorf("look up synthetic region %s: %w", sr.Code, err)
	}

	externalID := SyntheticExternalID(sr.Code)
	region := geo.Region{
		CountryID:    target.ID,
		ContinentID:  &target.ContinentID,
		RegionTypeID: groupTypeID,
		Code:         sr.Code,
		Name:         sr.Name,
		ExternalID:   &externalID,
		SourceID:     &imp.syntheticSourceID,
	}
	if _, err := imp.db.Bun.NewInsert().Model(&region).
		Returning("id").
		Exec(ctx); err != nil {
		return 0, created, fmt.Errorf("create synthetic region %s: %w", sr.Code, err)
	}
	imp.log.Info("created synthetic region",
		slog.String("code", sr.Code),
		slog.String("name", sr.Name))
	return region.ID, created + 1, nil
}

// loadAncestry pulls the parent-chain graph: the set of region external
// ids, the external-id-to-parent map across regions and localities, and
// one node per locality.
func (imp *Importer) loadAncestry(ctx context.Context) (map[string]struct{}, map[string]string, []LocalityNode, error) {
	regionSet := make(map[string]struct{})
	parentOf := make(map[string]string)

	rows, err := imp.db.Pool.Query(ctx, `
		SELECT r.external_id, r2.external_id
		FROM geo_regions r
		LEFT JOIN geo_regions r2 ON r.parent_region_id = r2.id
		WHERE r.external_id IS NOT NULL
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load region ancestry: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var externalID string
		var parentExternalID *string
		if err := rows.Scan(&externalID, &parentExternalID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan region ancestry: %w", err)
		}
		regionSet[externalID] = struct{}{}
		if parentExternalID != nil {
			parentOf[externalID] = *parentExternalID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	var nodes []LocalityNode
	locRows, err := imp.db.Pool.Query(ctx, `
		SELECT l.id, l.external_id, l.parent_external_id, c.code
		FROM geo_localities l
		JOIN geo_countries c ON l.country_id = c.id
		WHERE l.external_id IS NOT NULL
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load locality ancestry: %w", err)
	}
	defer locRows.Close()
	for locRows.Next() {
		var node LocalityNode
		var parentExternalID *string
		if err := locRows.Scan(&node.ID, &node.ExternalID, &parentExternalID, &node.CountryCode); err != nil {
			return nil, nil, nil, fmt.Errorf("scan locality ancestry: %w", err)
		}
		if parentExternalID != nil {
			node.ParentExternalID = *parentExternalID
			parentOf[node.ExternalID] = *parentExternalID
		}
		nodes = append(nodes, node)
	}
	if err := locRows.Err(); err != nil {
		return nil, nil, nil, err
	}

	imp.log.Info("ancestry loaded",
		slog.Int("regions", len(regionSet)),
		slog.Int("localities", len(nodes)))
	return regionSet, parentOf, nodes, nil
}

func (imp *Importer) countryNamesByCode(ctx context.Context) (map[string]string, error) {
	var countries []geo.Country
	if err := imp.db.Bun.NewSelect().Model(&countries).
		Column("code", "name").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load country names: %w", err)
	}
	names := make(map[string]string, len(countries))
	for _, c := range countries {
		names[c.Code] = c.Name
	}
	return names, nil
}

func truncateIDs(ids []int64, max int) []int64 {
	if len(ids) <= max {
		return ids
	}
	return ids[:max]
}
