package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/anillosguillen/catalog_api/internal/models"
)

var (
	codeRe          = regexp.MustCompile(`(?i)Anillo\s+(\d+)`)
	priceRe         = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)`)
	pointsManyRe    = regexp.MustCompile(`(?i)\d+(?:\s*\+\s*\d+){2,}\s*puntos?`)
	pointsSumRe     = regexp.MustCompile(`(?i)(\d+)\s*\+\s*(\d+)\s*puntos?`)
	pointsSingleRe  = regexp.MustCompile(`(?i)(\d+)\s*puntos?`)
	metalRe         = regexp.MustCompile(`(?i)(Amarillo|Blanco|Rosa)\s*(\d{1,2})\s*(?:kt|k|quilates)\b`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}

// ParseCode extracts the product code, normalized to "Anillo <digits>".
func ParseCode(text string) (string, bool) {
	m := codeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return "Anillo " + m[1], true
}

// ParsePrice returns the first "$ 7,200.00" style amount, or zero. ok
// reports whether a price was present at all.
func ParsePrice(text string) (price decimal.Decimal, ok bool) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDiamondPoints reads "a + b puntos" (summed) or "n puntos". Texts with
// three or more terms return ErrAmbiguousDiamondPoints. ok is false when no
// points are mentioned.
func ParseDiamondPoints(text string) (points int, ok bool, err error) {
	if pointsManyRe.MatchString(text) {
		return 0, false, ErrAmbiguousDiamondPoints
	}
	if m := pointsSumRe.FindStringSubmatch(text); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		return a + b, true, nil
	}
	if m := pointsSingleRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true, nil
	}
	return 0, false, nil
}

// ParseMetal reads "Blanco 14k" style gold descriptions. Missing or out of
// range values fall back to Amarillo 14k.
func ParseMetal(text string) (color models.MetalColor, karat int, ok bool) {
	m := metalRe.FindStringSubmatch(text)
	if m == nil {
		return models.DefaultMetalColor, models.DefaultMetalKarat, false
	}
	color, _ = models.ParseMetalColor(m[1])
	karat, _ = strconv.Atoi(m[2])
	if karat < 1 || karat > 24 {
		karat = models.DefaultMetalKarat
	}
	return color, karat, true
}

var catalogSlugRe = regexp.MustCompile(`/catalogo/([^/?#]+)/?`)

// slugFromURL returns the segment after /catalogo/ in a detail URL.
func slugFromURL(href string) string {
	m := catalogSlugRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
