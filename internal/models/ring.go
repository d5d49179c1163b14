package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MetalColor enumerates the gold colors offered in the catalog.
type MetalColor string

const (
	MetalAmarillo MetalColor = "Amarillo"
	MetalBlanco   MetalColor = "Blanco"
	MetalRosa     MetalColor = "Rosa"
)

// Catalog defaults applied whenever a value cannot be parsed.
const (
	DefaultMetalColor = MetalAmarillo
	DefaultMetalKarat = 14
)

// ParseMetalColor maps a case-insensitive color token onto the fixed
// vocabulary. ok is false for anything outside it.
func ParseMetalColor(s string) (MetalColor, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amarillo":
		return MetalAmarillo, true
	case "blanco":
		return MetalBlanco, true
	case "rosa":
		return MetalRosa, true
	}
	return "", false
}

// Ring is a catalog record persisted in the rings table.
// Fields are tagged for both DB scanning and JSON serialization.
type Ring struct {
	ID            int64           `db:"id" json:"id"`
	Slug          string          `db:"slug" json:"slug"`
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	DiamondPoints int             `db:"diamond_points" json:"diamondPoints"`
	MetalType     string          `db:"metal_type" json:"metalType"`
	MetalColor    MetalColor      `db:"metal_color" json:"metalColor"`
	MetalKarat    int             `db:"metal_karat" json:"metalKarat"`
	ImageURL      string          `db:"image_url" json:"imageUrl"`
	Featured      bool            `db:"featured" json:"featured"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	OrderIndex    int             `db:"order_index" json:"orderIndex"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	// Only ever set through the admin form; the source site does not
	// publish them.
	DiamondClarity *string `db:"diamond_clarity" json:"diamondClarity,omitempty"`
	DiamondColor   *string `db:"diamond_color" json:"diamondColor,omitempty"`
}

// IsListable reports whether the ring has everything the storefront needs
// to render a card.
func (r *Ring) IsListable() bool {
	return r.Slug != "" && r.Code != "" && r.ImageURL != "" && !r.Price.IsNegative()
}

// GoldInfo renders color and karat for display, e.g. "Blanco 14K".
func (r *Ring) GoldInfo() string {
	return FormatGoldInfo(string(r.MetalColor), r.MetalKarat)
}

// FormatKarat normalizes a karat value to the "14K" form. Zero falls back
// to the catalog default.
func FormatKarat(karat int) string {
	if karat <= 0 {
		karat = DefaultMetalKarat
	}
	return strconv.Itoa(karat) + "K"
}

// FormatGoldInfo capitalizes the color and appends the formatted karat.
func FormatGoldInfo(color string, karat int) string {
	color = strings.TrimSpace(color)
	if color == "" {
		color = string(DefaultMetalColor)
	}
	color = strings.ToUpper(color[:1]) + strings.ToLower(color[1:])
	return fmt.Sprintf("%s %s", color, FormatKarat(karat))
}

// MetalTypeFor builds the "Oro <color>" label stored in metal_type.
func MetalTypeFor(color MetalColor) string {
	if color == "" {
		color = DefaultMetalColor
	}
	return "Oro " + string(color)
}
