package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogEntryStub is the ephemeral record produced from one product link of
// the source listing page. It is discarded after the upsert.
type CatalogEntryStub struct {
	Code          string
	Price         decimal.Decimal
	DiamondPoints int
	MetalColor    MetalColor
	MetalKarat    int
	DetailURL     string
	Slug          string
}

// ItemFailure records one item that could not be imported.
type ItemFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportSummary is the outcome of one importer run.
type ImportSummary struct {
	Found     int           `json:"found"`
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	Warnings  int           `json:"warnings"`
	Failures  []ItemFailure `json:"failures,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Fail records a failed item.
func (s *ImportSummary) Fail(code, message string) {
	s.Skipped++
	s.Failures = append(s.Failures, ItemFailure{Code: code, Message: message})
}
