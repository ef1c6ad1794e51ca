package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/httpcache"
)

// CacheBackend adapts Store's http_cache table to httpcache.Backend, the
// durable tier behind httpcache.Client's in-memory LRU.
type CacheBackend struct {
	store *Store
}

// NewCacheBackend returns the durable cache tier backed by s.
func NewCacheBackend(s *Store) *CacheBackend { return &CacheBackend{store: s} }

func (c *CacheBackend) Get(key string) (httpcache.Entry, bool, error) {
	var statusCode int
	var headerJSON string
	var body []byte
	var expiresAt time.Time

	err := c.store.db.QueryRow(
		`SELECT status_code, header, body, expires_at FROM http_cache WHERE cache_key = ?`, key,
	).Scan(&statusCode, &headerJSON, &body, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httpcache.Entry{}, false, nil
		}
		return httpcache.Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	if time.Now().After(expiresAt) {
		_, _ = c.store.db.Exec(`DELETE FROM http_cache WHERE cache_key = ?`, key)
		return httpcache.Entry{}, false, nil
	}

	header, err := httpcache.UnmarshalHeader([]byte(headerJSON))
	if err != nil {
		return httpcache.Entry{}, false, fmt.Errorf("decode cached header: %w", err)
	}
	return httpcache.Entry{StatusCode: statusCode, Header: header, Body: body}, true, nil
}

func (c *CacheBackend) Set(key string, e httpcache.Entry, ttl time.Duration) error {
	headerJSON, err := httpcache.MarshalHeader(e.Header)
	if err != nil {
		return fmt.Errorf("encode cache header: %w", err)
	}
	_, err = c.store.db.Exec(`
		INSERT INTO http_cache (cache_key, status_code, header, body, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			status_code = excluded.status_code, header = excluded.header,
			body = excluded.body, stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, e.StatusCode, string(headerJSON), e.Body, time.Now(), time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}
