package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/anillosguillen/catalog_api/internal/config"
)

func TestNewS3ServiceUnconfigured(t *testing.T) {
	_, err := NewS3Service(context.Background(), &config.S3Config{Bucket: "ring-images", Region: "us-east-1"})
	if !errors.Is(err, config.ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured, got %v", err)
	}
}

func TestS3PublicURLAndKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{
			name: "aws",
			cfg:  config.S3Config{Region: "us-east-1", Bucket: "ring-images"},
			want: "https://ring-images.s3.us-east-1.amazonaws.com/rings/a.jpg",
		},
		{
			name: "endpoint",
			cfg:  config.S3Config{Region: "us-east-1", Bucket: "ring-images", Endpoint: "http://minio:9000/"},
			want: "http://minio:9000/ring-images/rings/a.jpg",
		},
		{
			name: "public base",
			cfg:  config.S3Config{Bucket: "ring-images", PublicBaseURL: "https://x.supabase.co/storage/v1/object/public/ring-images/"},
			want: "https://x.supabase.co/storage/v1/object/public/ring-images/rings/a.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3Service{publicBaseURL: publicBaseURL(&tt.cfg)}
			url := s.PublicURL("rings/a.jpg")
			if url != tt.want {
				t.Fatalf("got %q, want %q", url, tt.want)
			}
			key, ok := s.KeyFromURL(url + "?v=2")
			if !ok || key != "rings/a.jpg" {
				t.Errorf("KeyFromURL = %q, %v", key, ok)
			}
			if _, ok := s.KeyFromURL("https://elsewhere.test/rings/a.jpg"); ok {
				t.Error("foreign url accepted")
			}
		})
	}
}

func TestS3UploadAndDelete(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := NewS3Service(context.Background(), &config.S3Config{
		Region:          "us-east-1",
		Bucket:          "ring-images",
		Endpoint:        srv.URL,
		ForcePathStyle:  true,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}

	ctx := context.Background()
	if err := s.Upload(ctx, "rings/anillo-0100-1.jpg", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := s.Delete(ctx, "rings/anillo-0100-1.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "PUT /ring-images/rings/anillo-0100-1.jpg" || calls[1] != "DELETE /ring-images/rings/anillo-0100-1.jpg" {
		t.Errorf("unexpected calls %v", calls)
	}
	if string(body) != "jpeg" {
		t.Errorf("unexpected body %q", body)
	}
}
