package importer

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

var (
	productHrefRe = regexp.MustCompile(`(?i)/catalogo/anillo-`)
	imageHrefRe   = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)(\?.*)?$`)
)

// imageSelectors are tried in order on detail pages.
var imageSelectors = []string{
	".woocommerce-product-gallery__image img",
	".wp-post-image",
	".product-images img",
	".product-image img",
	"article img",
	".entry-content img",
}

// detailTextSelectors locate the product details block of a detail page.
var detailTextSelectors = []string{
	".woocommerce-product-details__short-description",
	".summary",
	".entry-content",
	"article",
}

var imageAttrs = []string{"data-large_image", "data-src", "data-lazy-src"}

// WordPressSource parses the WooCommerce catalog of the legacy site.
type WordPressSource struct {
	base *url.URL
}

// NewWordPressSource creates a source resolving relative links against
// baseURL.
func NewWordPressSource(baseURL string) (*WordPressSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &WordPressSource{base: u}, nil
}

// ParseListing scans every link on the page for ring products.
func (s *WordPressSource) ParseListing(html []byte) (ListingResult, error) {
	var result ListingResult

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return result, fmt.Errorf("parse listing html: %w", err)
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := CollapseSpace(a.Text())

		if !strings.Contains(strings.ToLower(text), "anillo") && !productHrefRe.MatchString(href) {
			return
		}

		abs := resolveRef(s.base, href)
		if abs == "" || seen[abs] {
			return
		}

		if _, hasPrice := ParsePrice(text); !hasPrice {
			text = CollapseSpace(text + " " + productContainer(a).Text())
		}

		// An anchor without a code does not claim its href; a later link to
		// the same product may still carry the text.
		code, ok := ParseCode(text)
		if !ok {
			return
		}
		seen[abs] = true

		stub, err := buildStub(code, text, abs)
		if err != nil {
			result.Failures = append(result.Failures, &ParseFailure{Code: code, Err: err})
			return
		}
		result.Stubs = append(result.Stubs, stub)
	})

	return result, nil
}

func buildStub(code, text, detailURL string) (models.CatalogEntryStub, error) {
	points, _, err := ParseDiamondPoints(text)
	if err != nil {
		return models.CatalogEntryStub{}, err
	}
	price, _ := ParsePrice(text)
	color, karat, _ := ParseMetal(text)

	slug := slugFromURL(detailURL)
	if slug == "" {
		slug = utils.Slugify(code)
	}

	return models.CatalogEntryStub{
		Code:          code,
		Price:         price,
		DiamondPoints: points,
		MetalColor:    color,
		MetalKarat:    karat,
		DetailURL:     detailURL,
		Slug:          slug,
	}, nil
}

// productContainer finds the element holding the whole product card.
func productContainer(a *goquery.Selection) *goquery.Selection {
	if c := a.Closest("li.product, .product, article"); c.Length() > 0 {
		return c
	}
	return a.Parent()
}

// ParseDetail reads title, details text and main image of a product
// page.
func (s *WordPressSource) ParseDetail(html []byte, pageURL string) DetailInfo {
	var info DetailInfo

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return info
	}

	info.Title = CollapseSpace(doc.Find("h1").First().Text())
	for _, sel := range detailTextSelectors {
		if text := CollapseSpace(doc.Find(sel).First().Text()); text != "" {
			info.Text = text
			break
		}
	}

	spec := info.Title + " " + info.Text
	info.Price, info.HasPrice = ParsePrice(spec)
	info.DiamondPoints, info.HasPoints, info.PointsErr = ParseDiamondPoints(spec)
	info.MetalColor, info.MetalKarat, info.HasMetal = ParseMetal(spec)

	base := s.base
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		base = u
	}
	info.ImageURL = s.findImage(doc, base)

	return info
}

func (s *WordPressSource) findImage(doc *goquery.Document, base *url.URL) string {
	for _, sel := range imageSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := imageSource(img)
			if src == "" || skipImage(src) {
				return true
			}
			found = resolveRef(base, src)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// imageSource prefers the full-size file linked by the enclosing anchor,
// then lazy-load attributes, then srcset and src.
func imageSource(img *goquery.Selection) string {
	if href, ok := img.Closest("a[href]").Attr("href"); ok && imageHrefRe.MatchString(strings.TrimSpace(href)) {
		return strings.TrimSpace(href)
	}
	for _, attr := range imageAttrs {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	if srcset := strings.TrimSpace(img.AttrOr("srcset", "")); srcset != "" {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return strings.TrimSpace(img.AttrOr("src", ""))
}

func skipImage(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "data:") || strings.Contains(lower, "logo") || strings.Contains(lower, "icon")
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
