package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/anillosguillen/catalog_api/internal/config"
	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/sse"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// ImportRunner executes one catalog import.
type ImportRunner interface {
	Run(ctx context.Context, rep importer.Reporter) (*models.ImportSummary, error)
}

// NewWordPressImporter wires the importer pipeline for the legacy site.
func NewWordPressImporter(cfg *config.ImportConfig, store importer.RecordStore, objects importer.ObjectStore) (*importer.Importer, error) {
	source, err := importer.NewWordPressSource(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	fetcher := importer.NewPageFetcher(cfg.HTTPTimeout, cfg.UserAgent, cfg.MaxBodyBytes)
	enricher := importer.NewEnricher(fetcher, source, objects, NewImageOptimizer(), cfg.PlaceholderImage)

	return importer.New(fetcher, source, enricher, store, importer.Options{
		CatalogURL: cfg.CatalogURL,
		ItemDelay:  cfg.ItemDelay,
	}), nil
}

// ImportService guards the importer so only one run happens at a time and
// mirrors its progress to hub observers.
type ImportService struct {
	runner ImportRunner
	hub    *sse.HubReporter
	cache  CacheInvalidator

	mu      sync.Mutex
	running bool
}

// NewImportService creates a new ImportService. A nil runner means object
// storage is not configured and every run is refused.
func NewImportService(runner ImportRunner, hub *sse.Hub, cache CacheInvalidator) *ImportService {
	s := &ImportService{runner: runner, cache: cache}
	if hub != nil {
		s.hub = sse.NewHubReporter(hub)
	}
	return s
}

// Running reports whether an import is in progress.
func (s *ImportService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run executes an import, streaming events to rep, the hub and the log.
func (s *ImportService) Run(ctx context.Context, rep importer.Reporter) (*models.ImportSummary, error) {
	if s.runner == nil {
		return nil, utils.ErrStorageUnconfigured
	}
	if !s.acquire() {
		return nil, utils.ErrImportRunning
	}
	defer s.release()

	var hubRep importer.Reporter
	if s.hub != nil {
		hubRep = s.hub
	}
	summary, err := s.runner.Run(ctx, importer.MultiReporter(importer.LogReporter{}, hubRep, rep))

	if summary != nil && summary.Imported > 0 && s.cache != nil {
		// ctx may already be cancelled; committed rows still need fresh pages.
		if cerr := s.cache.Invalidate(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to invalidate catalog cache")
		}
	}
	if err != nil {
		return summary, err
	}

	if s.hub != nil {
		s.hub.Completed(summary)
	}
	return summary, nil
}

func (s *ImportService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *ImportService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
