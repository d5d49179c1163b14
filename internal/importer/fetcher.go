package importer

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// Fetcher retrieves pages and binary assets from the source site.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchBinary(ctx context.Context, url string) ([]byte, string, error)
}

// PageFetcher is the net/http implementation of Fetcher.
type PageFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewPageFetcher creates a PageFetcher. A zero timeout leaves requests bound
// only by the caller's context.
func NewPageFetcher(timeout time.Duration, userAgent string, maxBodyBytes int64) *PageFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true, // decoded below, brotli included
	}
	return &PageFetcher{
		client:       &http.Client{Transport: transport, Timeout: timeout},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// Fetch GETs an HTML page and returns its body as UTF-8.
func (f *PageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, contentType, err := f.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Unknown label: hand back the raw bytes.
		return body, nil
	}
	utf8Body, err := io.ReadAll(r)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("decode charset: %w", err)}
	}
	return utf8Body, nil
}

// FetchBinary GETs an asset (image) and returns its bytes and content type.
func (f *PageFetcher) FetchBinary(ctx context.Context, url string) ([]byte, string, error) {
	return f.get(ctx, url, "image/avif,image/webp,image/*,*/*;q=0.8")
}

func (f *PageFetcher) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &FetchError{URL: url, Err: err}
	}
	for k, v := range browserHeaders() {
		req.Header[k] = v
	}
	req.Header.Set("Accept", accept)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)),
		}
	}

	reader, err := decompressReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if f.maxBodyBytes > 0 {
		reader = io.LimitReader(reader, f.maxBodyBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if f.maxBodyBytes > 0 && int64(len(body)) > f.maxBodyBytes {
		return nil, "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, f.maxBodyBytes),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

// decompressReader wraps reader with the decoder named by Content-Encoding.
func decompressReader(encoding string, reader io.Reader) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return deflateReader(reader)
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// deflateReader decodes "deflate" bodies. The header value means zlib framing
// but some servers send raw DEFLATE, so the zlib header is checked first.
func deflateReader(reader io.Reader) (io.Reader, error) {
	br := bufio.NewReader(reader)
	head, err := br.Peek(2)
	if err != nil {
		return flate.NewReader(br), nil
	}
	if head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}
