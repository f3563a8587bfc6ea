// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Cache is the shared read/write store for page markup, model responses, and
// popup markup keyed by normalized structure. Implementations must tolerate
// concurrent key-based upsert; last-write-wins per key is acceptable.
//
// A miss and a storage error are deliberately indistinguishable to callers:
// the fallback is always "fetch it again".
type Cache interface {
	GetHTML(ctx context.Context, url string) (string, bool)
	SetHTML(ctx context.Context, url, html string)

	GetResponse(ctx context.Context, key string) (string, bool)
	SetResponse(ctx context.Context, key, prompt, response, model string)

	GetPopupMarkup(ctx context.Context, structureKey string) (string, bool)
	SetPopupMarkup(ctx context.Context, structureKey, markup string)

	Stats(ctx context.Context) (Stats, error)
	ClearExpired(ctx context.Context) (int64, error)
	ClearAll(ctx context.Context) error
	Close() error
}

// Stats summarizes cache occupancy.
type Stats struct {
	HTMLEntries  int64
	LLMEntries   int64
	PopupEntries int64
	TTL          time.Duration
}

// ResponseKey builds the default cache key for a model call from the model
// name and the raw prompt. Popup-context calls use a composite key instead;
// see the resolver.
func ResponseKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + ":" + prompt))
	return hex.EncodeToString(sum[:])
}

// SQLite is the on-disk Cache implementation. A single instance is constructed
// at startup and handed to every component that needs it; *sql.DB makes the
// per-key upserts safe under concurrent runs.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	log *zap.Logger
}

var _ Cache = (*SQLite)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS html_cache (
	url        TEXT PRIMARY KEY,
	html       TEXT NOT NULL,
	cached_at  TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS llm_cache (
	request_key TEXT PRIMARY KEY,
	prompt      TEXT NOT NULL,
	response    TEXT NOT NULL,
	model       TEXT,
	cached_at   TIMESTAMP NOT NULL,
	expires_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS popup_cache (
	structure_key TEXT PRIMARY KEY,
	html          TEXT NOT NULL,
	cached_at     TIMESTAMP NOT NULL,
	expires_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_html_expires  ON html_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_llm_expires   ON llm_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_popup_expires ON popup_cache(expires_at);
`

// NewSQLite opens (creating if needed) the cache database at path.
func NewSQLite(path string, ttl time.Duration, logger *zap.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// The sqlite driver serializes writes; one connection avoids SQLITE_BUSY
	// churn under concurrent runs.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, log: logger.Named("cache")}, nil
}

func (c *SQLite) get(ctx context.Context, table, keyCol, key string) (string, bool) {
	query := fmt.Sprintf(
		"SELECT html FROM %s WHERE %s = ? AND expires_at > ?", table, keyCol)
	if table == "llm_cache" {
		query = "SELECT response FROM llm_cache WHERE request_key = ? AND expires_at > ?"
	}

	var value string
	err := c.db.QueryRowContext(ctx, query, key, time.Now().UTC()).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false
	case err != nil:
		c.log.Warn("Cache read failed; treating as miss.",
			zap.String("table", table), zap.Error(err))
		return "", false
	}
	return value, true
}

func (c *SQLite) GetHTML(ctx context.Context, url string) (string, bool) {
	return c.get(ctx, "html_cache", "url", url)
}

func (c *SQLite) SetHTML(ctx context.Context, url, html string) {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO html_cache (url, html, cached_at, expires_at) VALUES (?, ?, ?, ?)",
		url, html, now, now.Add(c.ttl))
	if err != nil {
		c.log.Warn("Failed to cache page markup.", zap.String("url", url), zap.Error(err))
	}
}

func (c *SQLite) GetResponse(ctx context.Context, key string) (string, bool) {
	return c.get(ctx, "llm_cache", "request_key", key)
}

func (c *SQLite) SetResponse(ctx context.Context, key, prompt, response, model string) {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO llm_cache (request_key, prompt, response, model, cached_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)",
		key, prompt, response, model, now, now.Add(c.ttl))
	if err != nil {
		c.log.Warn("Failed to cache model response.", zap.Error(err))
	}
}

func (c *SQLite) GetPopupMarkup(ctx context.Context, structureKey string) (string, bool) {
	return c.get(ctx, "popup_cache", "structure_key", structureKey)
}

func (c *SQLite) SetPopupMarkup(ctx context.Context, structureKey, markup string) {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO popup_cache (structure_key, html, cached_at, expires_at) VALUES (?, ?, ?, ?)",
		structureKey, markup, now, now.Add(c.ttl))
	if err != nil {
		c.log.Warn("Failed to cache popup markup.", zap.Error(err))
	}
}

func (c *SQLite) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{TTL: c.ttl}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"html_cache", &stats.HTMLEntries},
		{"llm_cache", &stats.LLMEntries},
		{"popup_cache", &stats.PopupEntries},
	}
	for _, c2 := range counts {
		row := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c2.table)
		if err := row.Scan(c2.dest); err != nil {
			return stats, fmt.Errorf("failed to count %s: %w", c2.table, err)
		}
	}
	return stats, nil
}

func (c *SQLite) ClearExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	var total int64
	for _, table := range []string{"html_cache", "llm_cache", "popup_cache"} {
		res, err := c.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE expires_at <= ?", table), now)
		if err != nil {
			return total, fmt.Errorf("failed to clear expired entries from %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (c *SQLite) ClearAll(ctx context.Context) error {
	for _, table := range []string{"html_cache", "llm_cache", "popup_cache"} {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}
