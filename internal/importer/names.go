package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cartafold/geoimport/internal/geo"
)

type nameTarget struct {
	entityType string
	table      string
	subtypes   []string
}

var nameTargets = []nameTarget{
	{"country", "geo_countries", CountrySubtypes},
	{"region", "geo_regions", RegionSubtypes},
	{"locality", "geo_localities", LocalitySubtypes},
}

// importNames loads the localized names per entity type: native primary
// names under the unspecified language code, common translations, and
// official/alternate/short variants. Each batch joins the VALUES list
// against the entity table so only names for imported rows land.
func (imp *Importer) importNames(ctx context.Context) error {
	imp.log.Info("importing names")
	start := time.Now()
	total := 0

	for _, target := range nameTargets {
		log := imp.log.With(slog.String("entity_type", target.entityType))

		primary, err := imp.loadNameClass(ctx, target, "primary", imp.source.PrimaryNames)
		if err != nil {
			return err
		}
		log.Info("primary names inserted", slog.Int("count", primary))

		common, err := imp.loadNameClass(ctx, target, "common", imp.source.CommonNames)
		if err != nil {
			return err
		}
		log.Info("common names inserted", slog.Int("count", common))

		rules, err := imp.loadNameClass(ctx, target, "rules", imp.source.RuleNames)
		if err != nil {
			return err
		}
		log.Info("rule names inserted", slog.Int("count", rules))

		total += primary + common + rules
	}

	imp.log.Info("names imported",
		slog.Int("total", total),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (imp *Importer) loadNameClass(
	ctx context.Context,
	target nameTarget,
	class string,
	stream func(context.Context, []string, func(NameRow) error) error,
) (int, error) {
	inserted := 0
	processed := 0

	add, flush := collectInBatches(imp.cfg.NamesBatchSize, func(batch []NameRow) error {
		n, err := imp.insertNameBatch(ctx, target, class, batch)
		if err != nil {
			return err
		}
		inserted += n
		processed += len(batch)
		if processed%imp.cfg.ReportEvery < len(batch) {
			imp.log.Info("name progress",
				slog.String("entity_type", target.entityType),
				slog.String("class", class),
				slog.Int("inserted", inserted),
				slog.Int("processed", processed))
		}
		return nil
	})

	err := stream(ctx, target.subtypes, func(row NameRow) error {
		return add(row)
	})
	if err != nil {
		return inserted, fmt.Errorf("read %s %s names: %w", target.entityType, class, err)
	}
	if err := flush(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// insertNameBatch joins the batch against the entity table on external
// id. Primary names get the unspecified language code so they are never
// mistaken for English display names; rule names carry their own variant
// as the name type.
func (imp *Importer) insertNameBatch(ctx context.Context, target nameTarget, class string, batch []NameRow) (int, error) {
	var values strings.Builder
	params := []any{target.entityType, imp.sourceID}

	switch class {
	case "primary":
		for i, row := range batch {
			if i > 0 {
				values.WriteString(",")
			}
			fmt.Fprintf(&values, "($%d::text, $%d::text)", len(params)+1, len(params)+2)
			params = append(params, row.ExternalID, row.Name)
		}
		query := fmt.Sprintf(`
			INSERT INTO geo_names (entity_type, entity_id, language_code, name, name_type, source_id)
			SELECT $1, t.id, '%s', v.name, '%s', $2
			FROM (VALUES %s) AS v(external_id, name)
			JOIN %s t ON t.external_id = v.external_id
		`, geo.LangUnspecified, geo.NameTypePrimary, values.String(), target.table)
		res, err := imp.db.Pool.Exec(ctx, query, params...)
		if err != nil {
			return 0, fmt.Errorf("insert primary names for %s: %w", target.entityType, err)
		}
		return int(res.RowsAffected()), nil

	case "common":
		for i, row := range batch {
			if i > 0 {
				values.WriteString(",")
			}
			fmt.Fprintf(&values, "($%d::text, $%d::text, $%d::text)",
				len(params)+1, len(params)+2, len(params)+3)
			params = append(params, row.ExternalID, row.Language, row.Name)
		}
		query := fmt.Sprintf(`
			INSERT INTO geo_names (entity_type, entity_id, language_code, name, name_type, source_id)
			SELECT $1, t.id, v.lang, v.name, '%s', $2
			FROM (VALUES %s) AS v(external_id, lang, name)
			JOIN %s t ON t.external_id = v.external_id
		`, geo.NameTypeCommon, values.String(), target.table)
		res, err := imp.db.Pool.Exec(ctx, query, params...)
		if err != nil {
			return 0, fmt.Errorf("insert common names for %s: %w", target.entityType, err)
		}
		return int(res.RowsAffected()), nil

	case "rules":
		for i, row := range batch {
			if i > 0 {
				values.WriteString(",")
			}
			fmt.Fprintf(&values, "($%d::text, $%d::text, $%d::text, $%d::text)",
				len(params)+1, len(params)+2, len(params)+3, len(params)+4)
			params = append(params, row.ExternalID, row.Language, row.Name, row.NameType)
		}
		query := fmt.Sprintf(`
			INSERT INTO geo_names (entity_type, entity_id, language_code, name, name_type, source_id)
			SELECT $1, t.id, v.lang, v.name, v.name_type, $2
			FROM (VALUES %s) AS v(external_id, lang, name, name_type)
			JOIN %s t ON t.external_id = v.external_id
		`, values.String(), target.table)
		res, err := imp.db.Pool.Exec(ctx, query, params...)
		if err != nil {
			return 0, fmt.Errorf("insert rule names for %s: %w", target.entityType, err)
		}
		return int(res.RowsAffected()), nil
	}
	return 0, fmt.Errorf("unknown name class %q", class)
}
