package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/repository"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// MaxImageBytes caps admin image uploads.
const MaxImageBytes = 5 << 20

// RingStore is the persistence used by the admin catalog manager.
type RingStore interface {
	Create(ctx context.Context, ring *models.Ring) error
	Update(ctx context.Context, ring *models.Ring) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Ring, error)
	ListPaged(ctx context.Context, search string, page, limit int) ([]models.Ring, int, error)
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateOrder(ctx context.Context, updates []repository.OrderUpdate) error
}

// ImageStore is the object store as seen by the admin image endpoints.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

// CacheInvalidator drops cached storefront data after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RingInput is the admin form payload.
type RingInput struct {
	Code           string          `json:"code" binding:"required"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	DiamondPoints  int             `json:"diamondPoints" binding:"gte=0"`
	DiamondClarity *string         `json:"diamondClarity"`
	DiamondColor   *string         `json:"diamondColor"`
	MetalColor     string          `json:"metalColor"`
	MetalKarat     int             `json:"metalKarat" binding:"gte=0,lte=24"`
	ImageURL       string          `json:"imageUrl"`
	Featured       bool            `json:"featured"`
	IsActive       *bool           `json:"isActive"`
}

// RingService implements the admin catalog manager.
type RingService struct {
	repo   RingStore
	images ImageStore
	cache  CacheInvalidator
	now    func() time.Time
}

// NewRingService creates a new RingService. images and cache may be nil.
func NewRingService(repo RingStore, images ImageStore, cache CacheInvalidator) *RingService {
	return &RingService{repo: repo, images: images, cache: cache, now: time.Now}
}

// List returns rings for the dashboard.
func (s *RingService) List(ctx context.Context, search string, page, limit int) ([]models.Ring, int, error) {
	return s.repo.ListPaged(ctx, strings.TrimSpace(search), page, limit)
}

// Get returns one ring.
func (s *RingService) Get(ctx context.Context, id int64) (*models.Ring, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new ring from the admin form.
func (s *RingService) Create(ctx context.Context, in *RingInput) (*models.Ring, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ring := &models.Ring{IsActive: true}
	applyInput(ring, in)

	if err := s.repo.Create(ctx, ring); err != nil {
		return nil, err
	}
	log.Info().Int64("ring_id", ring.ID).Str("slug", ring.Slug).Msg("Ring created")
	s.invalidate(ctx)
	return ring, nil
}

// Update replaces a ring's editable fields.
func (s *RingService) Update(ctx context.Context, id int64, in *RingInput) (*models.Ring, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ring, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(ring, in)

	if err := s.repo.Update(ctx, ring); err != nil {
		return nil, err
	}
	log.Info().Int64("ring_id", ring.ID).Str("slug", ring.Slug).Msg("Ring updated")
	s.invalidate(ctx)
	return ring, nil
}

// Delete removes a ring. Its stored image is removed best-effort.
func (s *RingService) Delete(ctx context.Context, id int64) error {
	ring, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("ring_id", id).Str("slug", ring.Slug).Msg("Ring deleted")

	if s.images != nil {
		if key, ok := s.images.KeyFromURL(ring.ImageURL); ok {
			if err := s.images.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to delete ring image")
			}
		}
	}
	s.invalidate(ctx)
	return nil
}

// ToggleActive flips storefront visibility and returns the new state.
func (s *RingService) ToggleActive(ctx context.Context, id int64) (bool, error) {
	ring, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	active := !ring.IsActive
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return false, err
	}
	s.invalidate(ctx)
	return active, nil
}

// Reorder saves a new storefront order.
func (s *RingService) Reorder(ctx context.Context, updates []repository.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.UpdateOrder(ctx, updates); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UploadImage validates and stores an admin image, returning its public URL.
func (s *RingService) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	if s.images == nil {
		return "", utils.ErrStorageUnconfigured
	}
	if len(data) > MaxImageBytes {
		return "", utils.ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", utils.ErrInvalidImage
	}

	key := fmt.Sprintf("rings/%d-%s.%s", s.now().UnixMilli(), uuid.New().String()[:8], uploadExtension(filename, contentType))
	if err := s.images.Upload(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return s.images.PublicURL(key), nil
}

// DeleteImage removes an image previously returned by UploadImage.
func (s *RingService) DeleteImage(ctx context.Context, url string) error {
	if s.images == nil {
		return utils.ErrStorageUnconfigured
	}
	key, ok := s.images.KeyFromURL(url)
	if !ok {
		return utils.ErrInvalidImageURL
	}
	return s.images.Delete(ctx, key)
}

func (s *RingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
}

func validateInput(in *RingInput) error {
	if utils.Slugify(in.Code) == "" {
		return fmt.Errorf("%w: code must contain letters or digits", utils.ErrInvalidRing)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", utils.ErrInvalidRing)
	}
	return nil
}

func applyInput(ring *models.Ring, in *RingInput) {
	ring.Code = strings.TrimSpace(in.Code)
	ring.Slug = utils.Slugify(ring.Code)
	ring.Name = strings.TrimSpace(in.Name)
	if ring.Name == "" {
		ring.Name = ring.Code
	}
	ring.Description = strings.TrimSpace(in.Description)
	ring.Price = in.Price
	ring.DiamondPoints = in.DiamondPoints
	ring.DiamondClarity = trimOptional(in.DiamondClarity)
	ring.DiamondColor = trimOptional(in.DiamondColor)

	color, ok := models.ParseMetalColor(in.MetalColor)
	if !ok {
		color = models.DefaultMetalColor
	}
	ring.MetalColor = color
	ring.MetalType = models.MetalTypeFor(color)
	ring.MetalKarat = in.MetalKarat
	if ring.MetalKarat == 0 {
		ring.MetalKarat = models.DefaultMetalKarat
	}

	ring.ImageURL = strings.TrimSpace(in.ImageURL)
	ring.Featured = in.Featured
	if in.IsActive != nil {
		ring.IsActive = *in.IsActive
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func uploadExtension(filename, contentType string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext := strings.ToLower(filename[i+1:])
		if len(ext) <= 5 && !strings.ContainsAny(ext, "/\\") {
			return ext
		}
	}
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}
