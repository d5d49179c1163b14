package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntries is returned when the listing page yields no product links.
	ErrNoEntries = errors.New("no catalog entries found on listing page")

	// ErrAmbiguousDiamondPoints marks "a + b + c puntos" texts. The value is
	// never guessed; the item is reported as failed instead.
	ErrAmbiguousDiamondPoints = errors.New("ambiguous diamond points")

	// ErrBodyTooLarge is wrapped in a FetchError when a decoded body exceeds
	// the fetcher's limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// FetchError wraps network failures and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseFailure is a listing candidate that carried a code but could not be
// turned into a stub.
type ParseFailure struct {
	Code string
	Err  error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Code, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// DetailPageError means the detail page of an entry could not be retrieved.
type DetailPageError struct {
	Code string
	Err  error
}

func (e *DetailPageError) Error() string {
	return fmt.Sprintf("detail page for %s: %v", e.Code, e.Err)
}

func (e *DetailPageError) Unwrap() error { return e.Err }
