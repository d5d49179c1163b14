package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

type fakeCatalogReader struct {
	rings []models.Ring
	calls int
}

func (f *fakeCatalogReader) ListActive(context.Context) ([]models.Ring, error) {
	f.calls++
	out := make([]models.Ring, len(f.rings))
	copy(out, f.rings)
	return out, nil
}

func (f *fakeCatalogReader) GetActiveBySlug(_ context.Context, slug string) (*models.Ring, error) {
	f.calls++
	for _, r := range f.rings {
		if r.Slug == slug {
			cp := r
			return &cp, nil
		}
	}
	return nil, utils.ErrRingNotFound
}

type mapCatalogCache struct {
	lists map[string][]models.Ring
	rings map[string]*models.Ring
}

func newMapCatalogCache() *mapCatalogCache {
	return &mapCatalogCache{lists: map[string][]models.Ring{}, rings: map[string]*models.Ring{}}
}

func (m *mapCatalogCache) GetList(_ context.Context, sort string) ([]models.Ring, error) {
	return m.lists[sort], nil
}

func (m *mapCatalogCache) SetList(_ context.Context, sort string, rings []models.Ring) error {
	m.lists[sort] = rings
	return nil
}

func (m *mapCatalogCache) GetRing(_ context.Context, slug string) (*models.Ring, error) {
	return m.rings[slug], nil
}

func (m *mapCatalogCache) SetRing(_ context.Context, r *models.Ring) error {
	m.rings[r.Slug] = r
	return nil
}

func catalogFixture() []models.Ring {
	ring := func(slug string, price int64, points int, image string) models.Ring {
		return models.Ring{Slug: slug, Code: slug, Price: decimal.NewFromInt(price), DiamondPoints: points, ImageURL: image, IsActive: true}
	}
	return []models.Ring{
		ring("a", 9000, 5, "/a.jpg"),
		ring("b", 5000, 20, "/b.jpg"),
		ring("c", 7000, 10, ""), // no image: hidden
		ring("d", 7000, 10, "/d.jpg"),
	}
}

func slugs(rings []models.Ring) string {
	s := ""
	for _, r := range rings {
		s += r.Slug
	}
	return s
}

func TestCatalogListSorts(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"", "abd"},
		{"bogus", "abd"},
		{SortPriceAsc, "bda"},
		{SortPriceDesc, "adb"},
		{SortPointsDesc, "bda"},
	}
	for _, tt := range tests {
		svc := NewCatalogService(&fakeCatalogReader{rings: catalogFixture()}, nil)
		got, err := svc.List(context.Background(), tt.sort)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if slugs(got) != tt.want {
			t.Errorf("sort %q: got %s, want %s", tt.sort, slugs(got), tt.want)
		}
	}
}

func TestCatalogListUsesCache(t *testing.T) {
	repo := &fakeCatalogReader{rings: catalogFixture()}
	svc := NewCatalogService(repo, newMapCatalogCache())
	ctx := context.Background()

	if _, err := svc.List(ctx, SortPriceAsc); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(ctx, SortPriceAsc); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 1 {
		t.Errorf("expected one repository call, got %d", repo.calls)
	}

	if _, err := svc.Get(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 2 {
		t.Errorf("expected detail to be cached, got %d calls", repo.calls)
	}
}
