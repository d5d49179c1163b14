package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/anillosguillen/catalog_api/internal/models"
)

// Storefront sort orders.
const (
	SortOrder      = "order"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortPointsDesc = "points_desc"
)

// CatalogReader is the read side of the rings table used by the storefront.
type CatalogReader interface {
	ListActive(ctx context.Context) ([]models.Ring, error)
	GetActiveBySlug(ctx context.Context, slug string) (*models.Ring, error)
}

// CatalogCacher caches storefront reads.
type CatalogCacher interface {
	GetList(ctx context.Context, sort string) ([]models.Ring, error)
	SetList(ctx context.Context, sort string, rings []models.Ring) error
	GetRing(ctx context.Context, slug string) (*models.Ring, error)
	SetRing(ctx context.Context, ring *models.Ring) error
}

// CatalogService serves the public catalog.
type CatalogService struct {
	repo  CatalogReader
	cache CatalogCacher
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(repo CatalogReader, cache CatalogCacher) *CatalogService {
	return &CatalogService{repo: repo, cache: cache}
}

// NormalizeSort maps unknown sort values to the default storefront order.
func NormalizeSort(s string) string {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortPointsDesc:
		return s
	default:
		return SortOrder
	}
}

// List returns the listable active rings in the requested order.
func (s *CatalogService) List(ctx context.Context, sortBy string) ([]models.Ring, error) {
	sortBy = NormalizeSort(sortBy)

	if s.cache != nil {
		cached, err := s.cache.GetList(ctx, sortBy)
		if err != nil {
			log.Warn().Err(err).Msg("Catalog cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	rings, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	listable := make([]models.Ring, 0, len(rings))
	for _, r := range rings {
		if r.IsListable() {
			listable = append(listable, r)
		}
	}
	sortRings(listable, sortBy)

	if s.cache != nil {
		if err := s.cache.SetList(ctx, sortBy, listable); err != nil {
			log.Warn().Err(err).Msg("Catalog cache write failed")
		}
	}
	return listable, nil
}

// Get returns one active ring by slug.
func (s *CatalogService) Get(ctx context.Context, slug string) (*models.Ring, error) {
	if s.cache != nil {
		if ring, err := s.cache.GetRing(ctx, slug); err == nil && ring != nil {
			return ring, nil
		}
	}

	ring, err := s.repo.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRing(ctx, ring); err != nil {
			log.Warn().Err(err).Msg("Catalog cache write failed")
		}
	}
	return ring, nil
}

// sortRings reorders in place; the repository order is kept for ties.
func sortRings(rings []models.Ring, sortBy string) {
	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(rings, func(i, j int) bool { return rings[i].Price.LessThan(rings[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(rings, func(i, j int) bool { return rings[i].Price.GreaterThan(rings[j].Price) })
	case SortPointsDesc:
		sort.SliceStable(rings, func(i, j int) bool { return rings[i].DiamondPoints > rings[j].DiamondPoints })
	}
}
