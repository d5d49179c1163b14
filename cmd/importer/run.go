package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/anillosguillen/catalog_api/internal/cache"
	"github.com/anillosguillen/catalog_api/internal/config"
	"github.com/anillosguillen/catalog_api/internal/database"
	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/repository"
	"github.com/anillosguillen/catalog_api/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one catalog import",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	runCmd.Flags().String("catalog-url", "", "Listing page to import (overrides IMPORT_CATALOG_URL)")
	runCmd.Flags().Duration("delay", 0, "Pause between items (overrides IMPORT_ITEM_DELAY)")
	rootCmd.AddCommand(runCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadImporter()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("catalog-url"); v != "" {
		cfg.Import.CatalogURL = v
	}
	if cmd.Flags().Changed("delay") {
		cfg.Import.ItemDelay, _ = cmd.Flags().GetDuration("delay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	objects, err := service.NewS3Service(ctx, &cfg.S3)
	if err != nil {
		return err
	}

	imp, err := service.NewWordPressImporter(&cfg.Import, repository.NewRingRepository(db), objects)
	if err != nil {
		return err
	}

	summary, err := imp.Run(ctx, importer.LogReporter{})
	if err != nil {
		return err
	}

	if summary.Imported > 0 {
		invalidateCatalogCache(cfg)
	}

	log.Info().
		Int("found", summary.Found).
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("warnings", summary.Warnings).
		Dur("duration", summary.Duration).
		Msg("Import finished")
	return nil
}

// invalidateCatalogCache drops cached storefront pages; a missing Redis only
// means the cache expires on its own.
func invalidateCatalogCache(cfg *config.Config) {
	rc, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, catalog cache not invalidated")
		return
	}
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.NewCatalogCache(rc, cfg.CatalogCacheTTL).Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
}
