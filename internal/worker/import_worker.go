package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// ImportRunner runs one guarded catalog import.
type ImportRunner interface {
	Run(ctx context.Context, rep importer.Reporter) (*models.ImportSummary, error)
}

// ImportWorker periodically re-imports the WordPress catalog.
type ImportWorker struct {
	runner   ImportRunner
	interval time.Duration
}

// NewImportWorker constructs an ImportWorker.
func NewImportWorker(runner ImportRunner, interval time.Duration) *ImportWorker {
	return &ImportWorker{
		runner:   runner,
		interval: interval,
	}
}

// Start begins the periodic import loop and listens for context cancellation.
// The first run happens one interval after start.
func (w *ImportWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting import worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Import worker stopped")
			return
		}
	}
}

func (w *ImportWorker) run(ctx context.Context) {
	log.Info().Msg("Running scheduled catalog import...")

	start := time.Now()
	summary, err := w.runner.Run(ctx, nil)
	switch {
	case errors.Is(err, utils.ErrImportRunning):
		log.Info().Msg("Import already running, skipping scheduled run")
		return
	case err != nil:
		log.Error().Err(err).Msg("Scheduled import failed")
		return
	}

	log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Scheduled import completed")
}
