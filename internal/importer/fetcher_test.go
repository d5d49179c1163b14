package importer

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
)

const pageBody = `<html><body><a href="/catalogo/anillo-1/">Anillo 1 $ 10</a></body></html>`

func TestFetchDecodesContentEncoding(t *testing.T) {
	var gz, br, zl, raw bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(pageBody))
	gw.Close()
	bw := brotli.NewWriter(&br)
	bw.Write([]byte(pageBody))
	bw.Close()
	zw := zlib.NewWriter(&zl)
	zw.Write([]byte(pageBody))
	zw.Close()
	fw, _ := flate.NewWriter(&raw, flate.DefaultCompression)
	fw.Write([]byte(pageBody))
	fw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", []byte(pageBody)},
		{"gzip", "gzip", gz.Bytes()},
		{"brotli", "br", br.Bytes()},
		{"deflate zlib", "deflate", zl.Bytes()},
		{"deflate raw", "deflate", raw.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Accept-Encoding") == "" {
					t.Error("missing Accept-Encoding header")
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer srv.Close()

			got, err := NewPageFetcher(0, "test", 0).Fetch(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if string(got) != pageBody {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestFetchTranscodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Próximamente" in Latin-1.
		w.Write([]byte{'P', 'r', 0xF3, 'x', 'i', 'm', 'a', 'm', 'e', 'n', 't', 'e'})
	}))
	defer srv.Close()

	got, err := NewPageFetcher(0, "test", 0).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != "Próximamente" {
		t.Errorf("got %q", got)
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewPageFetcher(0, "test", 0).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusForbidden || fe.URL != srv.URL {
		t.Errorf("unexpected error detail %+v", fe)
	}
}

func TestFetchBinarySniffsType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write(png)
	}))
	defer srv.Close()

	data, contentType, err := NewPageFetcher(0, "test", 0).FetchBinary(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch binary: %v", err)
	}
	if !bytes.Equal(data, png) || contentType != "image/png" {
		t.Errorf("got %d bytes of %q", len(data), contentType)
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(bytes.Repeat([]byte("a"), 4096))
	gw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", bytes.Repeat([]byte("a"), 2000)},
		{"gzip expands past limit", "gzip", gz.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer srv.Close()

			data, _, err := NewPageFetcher(0, "test", 1000).FetchBinary(context.Background(), srv.URL)
			var fe *FetchError
			if !errors.As(err, &fe) || !errors.Is(err, ErrBodyTooLarge) {
				t.Fatalf("expected oversized FetchError, got %d bytes, err %v", len(data), err)
			}
			if data != nil {
				t.Errorf("truncated body returned: %d bytes", len(data))
			}
		})
	}
}

func TestFetchAllowsBodyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(bytes.Repeat([]byte("a"), 1000))
	}))
	defer srv.Close()

	data, _, err := NewPageFetcher(0, "test", 1000).FetchBinary(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data) != 1000 {
		t.Errorf("expected 1000 bytes, got %d", len(data))
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		contentType, src, want string
	}{
		{"image/jpeg", "https://x/a.png", "jpg"},
		{"image/webp; q=1", "", "webp"},
		{"application/octet-stream", "https://x/photo.JPEG", "jpg"},
		{"", "https://x/photo.gif?ver=2", "gif"},
		{"", "https://x/photo", "jpg"},
	}
	for _, tt := range tests {
		if got := imageExtension(tt.contentType, tt.src); got != tt.want {
			t.Errorf("imageExtension(%q, %q) = %q, want %q", tt.contentType, tt.src, got, tt.want)
		}
	}
}
