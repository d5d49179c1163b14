package config

import (
	"errors"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/rings?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Import.ItemDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms item delay, got %s", cfg.Import.ItemDelay)
	}
	if cfg.Import.CatalogURL != "https://anillosguillen.com/catalogo/" {
		t.Errorf("unexpected catalog url %q", cfg.Import.CatalogURL)
	}
	if cfg.Import.PlaceholderImage == "" {
		t.Error("placeholder image must never be empty")
	}
	if cfg.Admin.SessionTTL != 7*24*time.Hour {
		t.Errorf("expected 7 day session, got %s", cfg.Admin.SessionTTL)
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	if !errors.Is(err, ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured, got %v", err)
	}

	var ue *UnconfiguredError
	if !errors.As(err, &ue) || ue.Component != "database" {
		t.Fatalf("expected database UnconfiguredError, got %v", err)
	}
}

func TestLoadImporterRequiresObjectStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := LoadImporter()
	var ue *UnconfiguredError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnconfiguredError, got %v", err)
	}
	if ue.Component != "object store" || len(ue.Missing) != 2 {
		t.Errorf("unexpected error detail: %+v", ue)
	}
}

func TestLoadImporterConfigured(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("IMPORT_ITEM_DELAY", "1s")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")

	cfg, err := LoadImporter()
	if err != nil {
		t.Fatalf("load importer: %v", err)
	}
	if cfg.Import.ItemDelay != time.Second {
		t.Errorf("expected 1s delay, got %s", cfg.Import.ItemDelay)
	}
	if !cfg.S3.ForcePathStyle {
		t.Error("expected path style addressing")
	}
}

func TestInvalidDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("IMPORT_ITEM_DELAY", "-1s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative delay")
	}
}

func TestAllowedOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://anillosguillen.com, ,http://localhost:3000 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://anillosguillen.com" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}
