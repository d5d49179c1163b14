package importer

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anillosguillen/catalog_api/internal/models"
)

// ObjectStore persists ring images and maps keys to public URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// ImageOptimizer re-encodes downloaded images before upload. It returns the
// new bytes and their content type.
type ImageOptimizer interface {
	Optimize(data []byte) ([]byte, string, error)
}

const maxDescriptionRunes = 500

// EnrichedEntry is a stub completed with everything its detail page offered.
type EnrichedEntry struct {
	models.CatalogEntryStub
	Name        string
	Description string
	ImageURL    string
}

// Ring builds the catalog record stored by the importer.
func (e *EnrichedEntry) Ring(orderIndex int) *models.Ring {
	return &models.Ring{
		Slug:          e.Slug,
		Code:          e.Code,
		Name:          e.Name,
		Description:   e.Description,
		Price:         e.Price,
		DiamondPoints: e.DiamondPoints,
		MetalType:     models.MetalTypeFor(e.MetalColor),
		MetalColor:    e.MetalColor,
		MetalKarat:    e.MetalKarat,
		ImageURL:      e.ImageURL,
		OrderIndex:    orderIndex,
		IsActive:      true,
	}
}

// Enricher visits a stub's detail page and rehosts its main image.
type Enricher struct {
	fetcher     Fetcher
	source      CatalogSource
	store       ObjectStore
	optimizer   ImageOptimizer
	placeholder string
	now         func() time.Time
}

// NewEnricher creates an Enricher. optimizer may be nil.
func NewEnricher(fetcher Fetcher, source CatalogSource, store ObjectStore, optimizer ImageOptimizer, placeholder string) *Enricher {
	return &Enricher{
		fetcher:     fetcher,
		source:      source,
		store:       store,
		optimizer:   optimizer,
		placeholder: placeholder,
		now:         time.Now,
	}
}

// Enrich completes a stub. Only an unreachable detail page is returned as an
// error (*DetailPageError); every image problem degrades to the placeholder
// with a warning.
func (e *Enricher) Enrich(ctx context.Context, stub models.CatalogEntryStub, l *runLog) (*EnrichedEntry, error) {
	html, err := e.fetcher.Fetch(ctx, stub.DetailURL)
	if err != nil {
		// The entry is failed, not upserted from listing data with the
		// placeholder: that would replace an image already stored for it.
		l.warn("Could not fetch detail page for %s: %v", stub.Code, err)
		return nil, &DetailPageError{Code: stub.Code, Err: err}
	}

	info := e.source.ParseDetail(html, stub.DetailURL)
	entry := &EnrichedEntry{CatalogEntryStub: stub}

	if info.HasPrice && info.Price.IsPositive() {
		entry.Price = info.Price
	}
	switch {
	case info.PointsErr != nil:
		l.warn("Ignoring diamond points on detail page of %s: %v", stub.Code, info.PointsErr)
	case info.HasPoints:
		entry.DiamondPoints = info.DiamondPoints
	}
	if info.HasMetal {
		entry.MetalColor = info.MetalColor
		entry.MetalKarat = info.MetalKarat
	}

	entry.Name = info.Title
	if entry.Name == "" {
		entry.Name = stub.Code
	}
	entry.Description = truncateRunes(info.Text, maxDescriptionRunes)
	if entry.Description == "" {
		entry.Description = fmt.Sprintf("%s en oro %s %dk con diamante de %d puntos.",
			entry.Code, entry.MetalColor, entry.MetalKarat, entry.DiamondPoints)
	}

	entry.ImageURL = e.placeholder
	if info.ImageURL == "" {
		l.warn("No image found for %s, using placeholder", stub.Code)
		return entry, nil
	}

	publicURL, err := e.rehostImage(ctx, entry.Slug, info.ImageURL)
	if err != nil {
		l.warn("Image for %s not stored, using placeholder: %v", stub.Code, err)
		return entry, nil
	}
	entry.ImageURL = publicURL
	return entry, nil
}

func (e *Enricher) rehostImage(ctx context.Context, slug, src string) (string, error) {
	data, contentType, err := e.fetcher.FetchBinary(ctx, src)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("download: empty body from %s", src)
	}

	if e.optimizer != nil {
		// Formats the optimizer cannot decode are uploaded unchanged.
		if out, outType, err := e.optimizer.Optimize(data); err == nil {
			data, contentType = out, outType
		}
	}

	key := fmt.Sprintf("rings/%s-%d.%s", slug, e.now().UnixMilli(), imageExtension(contentType, src))
	if err := e.store.Upload(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return e.store.PublicURL(key), nil
}

// imageExtension picks a file extension from the content type, falling back
// to the source URL and finally to jpg.
func imageExtension(contentType, src string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}
	if m := imageHrefRe.FindStringSubmatch(path.Base(src)); m != nil {
		ext := strings.ToLower(m[1])
		if ext == "jpeg" {
			ext = "jpg"
		}
		return ext
	}
	return "jpg"
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
