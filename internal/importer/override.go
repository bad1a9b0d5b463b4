package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// overrideJerusalem moves the two Jerusalem localities from the Judea
// and Samaria synthetic region to the Jerusalem District one. The dump
// places them under the West Bank territory, so after remapping they
// would otherwise sit in the wrong district. Runs after synthetic region
// creation and territory remapping; quietly does nothing when either
// region was not created this run.
func (imp *Importer) overrideJerusalem(ctx context.Context) error {
	var jerusalemExternalID string
	err := imp.db.Pool.QueryRow(ctx,
		"SELECT external_id FROM geo_regions WHERE code = 'IL-JERUSALEM-DISTRICT'").
		Scan(&jerusalemExternalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find Jerusalem District region: %w", err)
	}

	var judeaSamariaExternalID string
	err = imp.db.Pool.QueryRow(ctx,
		"SELECT external_id FROM geo_regions WHERE code = 'IL-JUDEA-SAMARIA'").
		Scan(&judeaSamariaExternalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find Judea and Samaria region: %w", err)
	}

	res, err := imp.db.Pool.Exec(ctx, `
		UPDATE geo_localities
		SET parent_external_id = $1
		WHERE parent_external_id = $2
		  AND name IN ('Jerusalem', 'East Jerusalem')
		  AND country_id = (SELECT id FROM geo_countries WHERE code = 'IL')
	`, jerusalemExternalID, judeaSamariaExternalID)
	if err != nil {
		return fmt.Errorf("apply Jerusalem override: %w", err)
	}

	if moved := res.RowsAffected(); moved > 0 {
		imp.log.Info("Jerusalem localities moved to Jerusalem District",
			slog.Int64("count", moved))
	}
	return nil
}
