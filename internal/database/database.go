package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	appconfig "github.com/anillosguillen/catalog_api/internal/config"
)

// retryPolicy bounds how long Connect waits for Postgres to come up.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
	sleep    func(time.Duration)
}

var defaultRetry = retryPolicy{
	attempts: 5,
	base:     500 * time.Millisecond,
	max:      5 * time.Second,
	sleep:    time.Sleep,
}

// delay is base * 2^(attempt-1), capped to max.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.base << (attempt - 1)
	if d <= 0 || d > p.max {
		return p.max
	}
	return d
}

type opener func(dsn string) (*sqlx.DB, error)

func openPostgres(dsn string) (*sqlx.DB, error) {
	return sqlx.Open("postgres", dsn)
}

// Connect opens the rings database and pings it, retrying while Postgres is
// still starting. The returned pool is shared by the API handlers, the
// scheduled import and the importer CLI.
func Connect(cfg *appconfig.DatabaseConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}
	return connect(DSN(cfg), Target(cfg), defaultRetry, openPostgres)
}

func connect(dsn, target string, p retryPolicy, open opener) (*sqlx.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		db, err := open(dsn)
		if err == nil {
			setPool(db.DB)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				log.Info().Str("target", target).Int("attempt", attempt).Msg("rings database connected")
				return db, nil
			}
			_ = db.Close()
		}
		lastErr = err

		if attempt == p.attempts {
			break
		}
		wait := p.delay(attempt)
		log.Warn().Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("rings database not ready")
		p.sleep(wait)
	}

	return nil, fmt.Errorf("connect to rings database %s after %d attempts: %w", target, p.attempts, lastErr)
}

// DSN builds the lib/pq connection string. DATABASE_URL is used verbatim
// when present (hosted Postgres usually hands out a full URL).
func DSN(cfg *appconfig.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// Target is host:port/name without credentials, for logs and errors.
func Target(cfg *appconfig.DatabaseConfig) string {
	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil || u.Host == "" {
			return "DATABASE_URL"
		}
		return u.Host + u.Path
	}
	return fmt.Sprintf("%s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
}

// setPool configures the connection pool. The importer writes one ring at a
// time, so a small pool is enough for both binaries.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
}
