package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

func newMockRepo(t *testing.T) (*RingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRingRepository(sqlx.NewDb(db, "postgres")), mock
}

func sampleRing() *models.Ring {
	return &models.Ring{
		Slug:          "anillo-0100",
		Code:          "Anillo 0100",
		Name:          "Anillo 0100",
		Description:   "Anillo 0100 en oro Amarillo 14k con diamante de 5 puntos.",
		Price:         decimal.NewFromInt(5000),
		DiamondPoints: 5,
		MetalType:     "Oro Amarillo",
		MetalColor:    models.MetalAmarillo,
		MetalKarat:    14,
		ImageURL:      "https://cdn.example.com/rings/anillo-0100.jpg",
		OrderIndex:    1,
		IsActive:      true,
	}
}

func TestUpsertBySlug(t *testing.T) {
	repo, mock := newMockRepo(t)
	ring := sampleRing()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (slug) DO UPDATE SET")).
		WithArgs(ring.Slug, ring.Code, ring.Name, ring.Description, ring.Price, ring.DiamondPoints,
			ring.MetalType, ring.MetalColor, ring.MetalKarat, ring.ImageURL, ring.OrderIndex, ring.IsActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	if err := repo.UpsertBySlug(context.Background(), ring); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ring.ID != 7 {
		t.Errorf("expected id 7, got %d", ring.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertBySlugLeavesAdminColumns(t *testing.T) {
	var statement string
	matcher := sqlmock.QueryMatcherFunc(func(_, actual string) error {
		statement = actual
		return nil
	})
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("upsert").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, time.Now(), time.Now()))

	repo := NewRingRepository(sqlx.NewDb(db, "postgres"))
	if err := repo.UpsertBySlug(context.Background(), sampleRing()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for _, col := range []string{"diamond_clarity", "diamond_color", "featured"} {
		if strings.Contains(statement, col) {
			t.Errorf("upsert statement writes admin-owned column %s", col)
		}
	}
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO rings`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), sampleRing())
	if !errors.Is(err, utils.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	ring := sampleRing()
	ring.ID = 99

	mock.ExpectQuery(`UPDATE rings SET`).
		WillReturnRows(sqlmock.NewRows([]string{"order_index", "created_at", "updated_at"}))

	if err := repo.Update(context.Background(), ring); !errors.Is(err, utils.ErrRingNotFound) {
		t.Fatalf("expected ErrRingNotFound, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM rings`).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); !errors.Is(err, utils.ErrRingNotFound) {
		t.Fatalf("expected ErrRingNotFound, got %v", err)
	}
}

func TestGetActiveBySlugNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM rings WHERE slug = \$1 AND is_active = true`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetActiveBySlug(context.Background(), "missing"); !errors.Is(err, utils.ErrRingNotFound) {
		t.Fatalf("expected ErrRingNotFound, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	cols := []string{"id", "slug", "code", "name", "description", "price", "diamond_points",
		"diamond_clarity", "diamond_color", "metal_type", "metal_color", "metal_karat",
		"image_url", "featured", "is_active", "order_index", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, "anillo-0100", "Anillo 0100", "Anillo 0100", "", "5000.00", 5, nil, nil,
			"Oro Amarillo", "Amarillo", 14, "/placeholder.svg", false, true, 1, now, now).
		AddRow(2, "anillo-0101", "Anillo 0101", "Anillo 0101", "", "8500.00", 20, "VS1", "G",
			"Oro Blanco", "Blanco", 18, "/placeholder.svg", true, true, 2, now, now)

	mock.ExpectQuery(`ORDER BY order_index ASC, created_at DESC`).WillReturnRows(rows)

	rings, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rings) != 2 {
		t.Fatalf("expected 2 rings, got %d", len(rings))
	}
	if !rings[1].Price.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("unexpected price %s", rings[1].Price)
	}
	if rings[1].DiamondClarity == nil || *rings[1].DiamondClarity != "VS1" {
		t.Errorf("expected clarity VS1, got %v", rings[1].DiamondClarity)
	}
	if rings[0].DiamondClarity != nil {
		t.Errorf("expected nil clarity, got %v", *rings[0].DiamondClarity)
	}
}

func TestUpdateOrderRollsBackOnMissingRing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE rings SET order_index`).WithArgs(int64(1), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rings SET order_index`).WithArgs(int64(2), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateOrder(context.Background(), []OrderUpdate{{ID: 1, OrderIndex: 2}, {ID: 2, OrderIndex: 1}})
	if !errors.Is(err, utils.ErrRingNotFound) {
		t.Fatalf("expected ErrRingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
