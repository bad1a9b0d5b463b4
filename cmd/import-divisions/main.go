// Command import-divisions loads a sharded columnar division dump into
// the geographic store: countries, regions, localities, boundaries, and
// localized names, with orphan localities grouped under synthetic
// regions and disputed territories remapped per policy.
//
// Usage:
//
//	import-divisions -migrate up
//	import-divisions -migrate status
//	import-divisions -data-dir ./data/divisions
//	import-divisions -data-dir ./data/divisions -skip-boundaries -skip-names
//	import-divisions -policy ./policy.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cartafold/geoimport/internal/config"
	"github.com/cartafold/geoimport/internal/database"
	"github.com/cartafold/geoimport/internal/geo"
	"github.com/cartafold/geoimport/internal/importer"
	"github.com/cartafold/geoimport/internal/migrate"
	"github.com/cartafold/geoimport/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		dataDir        = flag.String("data-dir", "", "directory with division parquet shards (overrides GEO_DATA_DIR)")
		policyFile     = flag.String("policy", "", "YAML file overriding the built-in import policy")
		skipBoundaries = flag.Bool("skip-boundaries", false, "skip importing country/region/locality boundaries")
		skipNames      = flag.Bool("skip-names", false, "skip importing multi-language names")
		migrateAction  = flag.String("migrate", "", "run a migration action (up, down, status, version) and exit")
	)
	flag.Parse()

	log := logger.NewLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log, *dataDir, *policyFile, *skipBoundaries, *skipNames, *migrateAction); err != nil {
		log.Error("import failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, dataDir, policyFile string, skipBoundaries, skipNames bool, migrateAction string) error {
	cfg, err := config.NewConfig(log)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateAction != "" {
		return runMigration(ctx, db, log, migrateAction)
	}

	policy := geo.DefaultPolicy()
	if policyFile != "" {
		policy, err = geo.LoadPolicyFile(policyFile)
		if err != nil {
			return err
		}
		log.Info("loaded policy overrides", slog.String("file", policyFile))
	}

	if dataDir == "" {
		dataDir = cfg.Import.DataDir
	}
	source, err := importer.OpenParquetSource(dataDir)
	if err != nil {
		return err
	}
	defer source.Close()

	log.Info("starting division import",
		slog.String("data_dir", dataDir),
		slog.Bool("skip_boundaries", skipBoundaries),
		slog.Bool("skip_names", skipNames))

	imp := importer.New(db, cfg.Import, policy, source, log)
	_, err = imp.Run(ctx, importer.Options{
		SkipBoundaries: skipBoundaries,
		SkipNames:      skipNames,
	})
	return err
}

func runMigration(ctx context.Context, db *database.DB, log *slog.Logger, action string) error {
	m := migrate.NewMigrator(db.Bun, log)
	switch action {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	case "version":
		version, err := m.Version(ctx)
		if err != nil {
			return err
		}
		log.Info("database version", slog.Int64("version", version))
		return nil
	default:
		return fmt.Errorf("unknown migration action %q", action)
	}
}
