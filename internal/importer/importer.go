package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/anillosguillen/catalog_api/internal/models"
)

// RecordStore persists imported rings keyed by slug.
type RecordStore interface {
	UpsertBySlug(ctx context.Context, ring *models.Ring) error
}

// Options tune one importer.
type Options struct {
	CatalogURL string
	ItemDelay  time.Duration
}

// Importer runs the fetch, parse, enrich and upsert pipeline sequentially.
type Importer struct {
	fetcher  Fetcher
	source   CatalogSource
	enricher *Enricher
	store    RecordStore
	opts     Options
	now      func() time.Time
}

// New wires an Importer from its collaborators.
func New(fetcher Fetcher, source CatalogSource, enricher *Enricher, store RecordStore, opts Options) *Importer {
	return &Importer{
		fetcher:  fetcher,
		source:   source,
		enricher: enricher,
		store:    store,
		opts:     opts,
		now:      time.Now,
	}
}

// Run imports the whole catalog once. A non-nil error means the run was
// fatal (listing unreachable, empty, or ctx cancelled); per-item problems
// only show up in the returned summary.
func (im *Importer) Run(ctx context.Context, rep Reporter) (*models.ImportSummary, error) {
	l := &runLog{rep: rep, now: im.now}
	summary := &models.ImportSummary{StartedAt: im.now()}
	finish := func() {
		summary.Warnings = l.warnings
		summary.Duration = im.now().Sub(summary.StartedAt)
	}

	l.info("Starting WordPress catalog import from %s", im.opts.CatalogURL)

	html, err := im.fetcher.Fetch(ctx, im.opts.CatalogURL)
	if err != nil {
		l.fatal("Fatal error: %v", err)
		finish()
		return summary, err
	}

	listing, err := im.source.ParseListing(html)
	if err != nil {
		l.fatal("Fatal error: %v", err)
		finish()
		return summary, err
	}

	summary.Found = listing.Found()
	if summary.Found == 0 {
		l.fatal("Fatal error: %v", ErrNoEntries)
		finish()
		return summary, ErrNoEntries
	}
	l.info("Found %d rings in catalog", summary.Found)

	for _, pf := range listing.Failures {
		l.errorf("Skipping %s: %v", pf.Code, pf.Err)
		summary.Fail(pf.Code, pf.Err.Error())
	}

	total := len(listing.Stubs)
	for i, stub := range listing.Stubs {
		if i > 0 {
			if err := wait(ctx, im.opts.ItemDelay); err != nil {
				l.fatal("Import cancelled after %d of %d items: %v", i, total, err)
				finish()
				return summary, err
			}
		}

		l.info("[%d/%d] Processing %s", i+1, total, stub.Code)
		if err := im.processItem(ctx, stub, i+1, l); err != nil {
			l.errorf("Failed to import %s: %v", stub.Code, err)
			summary.Fail(stub.Code, err.Error())
			continue
		}
		summary.Imported++
		l.info("Imported %s", stub.Code)
	}

	finish()
	l.info("Import complete in %s", summary.Duration.Round(time.Millisecond))
	l.info("Found: %d, Imported: %d, Skipped: %d, Warnings: %d",
		summary.Found, summary.Imported, summary.Skipped, summary.Warnings)
	for _, f := range summary.Failures {
		l.info("  - %s: %s", f.Code, f.Message)
	}
	return summary, nil
}

// processItem handles one stub. Panics are converted to errors so one bad
// page cannot take the run down.
func (im *Importer) processItem(ctx context.Context, stub models.CatalogEntryStub, orderIndex int, l *runLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	entry, err := im.enricher.Enrich(ctx, stub, l)
	if err != nil {
		return err
	}

	ring := entry.Ring(orderIndex)
	if err := im.store.UpsertBySlug(ctx, ring); err != nil {
		return fmt.Errorf("upsert %s: %w", ring.Slug, err)
	}
	return nil
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
