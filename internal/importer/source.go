package importer

import (
	"github.com/shopspring/decimal"

	"github.com/anillosguillen/catalog_api/internal/models"
)

// CatalogSource understands one version of the source site's markup.
// Both methods are pure: they only look at the bytes they are given.
type CatalogSource interface {
	ParseListing(html []byte) (ListingResult, error)
	ParseDetail(html []byte, pageURL string) DetailInfo
}

// ListingResult holds the stubs discovered on the listing page, in page
// order, plus the candidates that carried a code but failed to parse.
type ListingResult struct {
	Stubs    []models.CatalogEntryStub
	Failures []*ParseFailure
}

// Found is the number of coded candidates on the page.
func (r ListingResult) Found() int {
	return len(r.Stubs) + len(r.Failures)
}

// DetailInfo is what a product detail page adds to a stub. The Has* flags
// tell whether the page stated a value at all.
type DetailInfo struct {
	Title string
	Text  string

	Price    decimal.Decimal
	HasPrice bool

	DiamondPoints int
	HasPoints     bool
	PointsErr     error

	MetalColor models.MetalColor
	MetalKarat int
	HasMetal   bool

	// ImageURL is absolute, or empty when no product image was found.
	ImageURL string
}
