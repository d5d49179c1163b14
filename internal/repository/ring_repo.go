package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

const ringColumns = `id, slug, code, name, description, price, diamond_points,
	diamond_clarity, diamond_color, metal_type, metal_color, metal_karat,
	image_url, featured, is_active, order_index, created_at, updated_at`

// RingRepository handles data access for the rings catalog table.
type RingRepository struct {
	db *sqlx.DB
}

// NewRingRepository creates a new RingRepository.
func NewRingRepository(db *sqlx.DB) *RingRepository {
	return &RingRepository{db: db}
}

// OrderUpdate moves one ring to a new storefront position.
type OrderUpdate struct {
	ID         int64 `json:"id" binding:"required"`
	OrderIndex int   `json:"orderIndex"`
}

// UpsertBySlug inserts a ring or fully replaces the importer-owned columns
// of the existing row with the same slug. Admin-only columns
// (diamond_clarity, diamond_color, featured) are left untouched.
func (r *RingRepository) UpsertBySlug(ctx context.Context, ring *models.Ring) error {
	const q = `
        INSERT INTO rings (slug, code, name, description, price, diamond_points,
            metal_type, metal_color, metal_karat, image_url, order_index, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (slug) DO UPDATE SET
            code = EXCLUDED.code,
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            price = EXCLUDED.price,
            diamond_points = EXCLUDED.diamond_points,
            metal_type = EXCLUDED.metal_type,
            metal_color = EXCLUDED.metal_color,
            metal_karat = EXCLUDED.metal_karat,
            image_url = EXCLUDED.image_url,
            order_index = EXCLUDED.order_index,
            is_active = EXCLUDED.is_active,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		ring.Slug, ring.Code, ring.Name, ring.Description, ring.Price, ring.DiamondPoints,
		ring.MetalType, ring.MetalColor, ring.MetalKarat, ring.ImageURL, ring.OrderIndex, ring.IsActive,
	).Scan(&ring.ID, &ring.CreatedAt, &ring.UpdatedAt)
}

// Create inserts a ring from the admin form.
func (r *RingRepository) Create(ctx context.Context, ring *models.Ring) error {
	const q = `
        INSERT INTO rings (slug, code, name, description, price, diamond_points,
            diamond_clarity, diamond_color, metal_type, metal_color, metal_karat,
            image_url, featured, is_active, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		ring.Slug, ring.Code, ring.Name, ring.Description, ring.Price, ring.DiamondPoints,
		ring.DiamondClarity, ring.DiamondColor, ring.MetalType, ring.MetalColor, ring.MetalKarat,
		ring.ImageURL, ring.Featured, ring.IsActive, ring.OrderIndex,
	).Scan(&ring.ID, &ring.CreatedAt, &ring.UpdatedAt)
	return mapWriteError(err)
}

// Update replaces the admin-editable columns of a ring. order_index is
// managed through UpdateOrder.
func (r *RingRepository) Update(ctx context.Context, ring *models.Ring) error {
	const q = `
        UPDATE rings SET
            slug = $2, code = $3, name = $4, description = $5, price = $6,
            diamond_points = $7, diamond_clarity = $8, diamond_color = $9,
            metal_type = $10, metal_color = $11, metal_karat = $12,
            image_url = $13, featured = $14, is_active = $15, updated_at = NOW()
        WHERE id = $1
        RETURNING order_index, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, ring.ID,
		ring.Slug, ring.Code, ring.Name, ring.Description, ring.Price,
		ring.DiamondPoints, ring.DiamondClarity, ring.DiamondColor,
		ring.MetalType, ring.MetalColor, ring.MetalKarat,
		ring.ImageURL, ring.Featured, ring.IsActive,
	).Scan(&ring.OrderIndex, &ring.CreatedAt, &ring.UpdatedAt)
	return mapWriteError(err)
}

// Delete removes a ring by id.
func (r *RingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetActive flips the storefront visibility of a ring.
func (r *RingRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rings SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateOrder applies a batch of order_index changes atomically.
func (r *RingRepository) UpdateOrder(ctx context.Context, updates []OrderUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range updates {
		res, err := tx.ExecContext(ctx,
			`UPDATE rings SET order_index = $2, updated_at = NOW() WHERE id = $1`, u.ID, u.OrderIndex)
		if err != nil {
			return fmt.Errorf("update order of ring %d: %w", u.ID, err)
		}
		if err := requireAffected(res); err != nil {
			return fmt.Errorf("update order of ring %d: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// GetByID returns a single ring by id.
func (r *RingRepository) GetByID(ctx context.Context, id int64) (*models.Ring, error) {
	var ring models.Ring
	err := r.db.GetContext(ctx, &ring, `SELECT `+ringColumns+` FROM rings WHERE id = $1`, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	return &ring, nil
}

// GetActiveBySlug returns an active ring for the storefront detail page.
func (r *RingRepository) GetActiveBySlug(ctx context.Context, slug string) (*models.Ring, error) {
	var ring models.Ring
	err := r.db.GetContext(ctx, &ring,
		`SELECT `+ringColumns+` FROM rings WHERE slug = $1 AND is_active = true`, slug)
	if err != nil {
		return nil, mapReadError(err)
	}
	return &ring, nil
}

// ListActive returns active rings in storefront order.
func (r *RingRepository) ListActive(ctx context.Context) ([]models.Ring, error) {
	rings := []models.Ring{}
	err := r.db.SelectContext(ctx, &rings, `SELECT `+ringColumns+` FROM rings
        WHERE is_active = true
        ORDER BY order_index ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return rings, nil
}

// ListPaged returns every ring for the admin dashboard together with the
// total count. search matches code or name (ILIKE). Page begins at 1.
func (r *RingRepository) ListPaged(ctx context.Context, search string, page, limit int) ([]models.Ring, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const where = `WHERE ($1 = '' OR code ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM rings `+where, search); err != nil {
		return nil, 0, err
	}

	rings := []models.Ring{}
	err := r.db.SelectContext(ctx, &rings, `SELECT `+ringColumns+` FROM rings `+where+`
        ORDER BY order_index ASC, created_at DESC LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rings, total, nil
}

// Ping reports database reachability for the health endpoint.
func (r *RingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrRingNotFound
	}
	return nil
}

func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrRingNotFound
	}
	return err
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrRingNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return utils.ErrSlugExists
	}
	return err
}
