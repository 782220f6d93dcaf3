// Package headercache provides a SQLite-backed cache of parsed plugin
// headers, adapted from the teacher's Nexus-response cache: same
// schema shape (a keyed blob with an expiry), different key and payload.
package headercache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
)

func statFile(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Cache is a SQLite-backed store of headerparser.Header values keyed by
// (canonical path, mtime, game id).
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) a header cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, loadordererr.IOError(path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS header_cache (
	cache_key   TEXT PRIMARY KEY,
	data        TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, loadordererr.IOError(path, err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key builds the cache key for a plugin at path with modification time
// mtime, scoped to id so the same path under a different game never
// collides.
func Key(id game.ID, path string, mtime time.Time) string {
	return fmt.Sprintf("%d:%s:%d", id, path, mtime.Unix())
}

// Get returns the cached header for key, or ok=false on a miss or expiry.
func (c *Cache) Get(key string) (headerparser.Header, bool, error) {
	var data string
	var expiresAt int64
	err := c.db.QueryRow(`SELECT data, expires_at FROM header_cache WHERE cache_key = ?`, key).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return headerparser.Header{}, false, nil
	}
	if err != nil {
		return headerparser.Header{}, false, err
	}
	if time.Now().Unix() > expiresAt {
		_, _ = c.db.Exec(`DELETE FROM header_cache WHERE cache_key = ?`, key)
		return headerparser.Header{}, false, nil
	}

	var h headerparser.Header
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return headerparser.Header{}, false, err
	}
	return h, true, nil
}

// Set stores header under key with the given TTL.
func (c *Cache) Set(key string, h headerparser.Header, ttl time.Duration) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = c.db.Exec(
		`INSERT INTO header_cache (cache_key, data, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, string(data), now, now+int64(ttl.Seconds()),
	)
	return err
}

// Cleanup deletes every expired entry.
func (c *Cache) Cleanup() error {
	_, err := c.db.Exec(`DELETE FROM header_cache WHERE expires_at < ?`, time.Now().Unix())
	return err
}

// Cached wraps parser with c: a header is read from cache on a hit keyed
// by the file's current mtime; on a miss, parser is invoked and the result
// written through.
type Cached struct {
	ID     game.ID
	Parser headerparser.Parser
	Cache  *Cache
	TTL    time.Duration
}

func (c Cached) ParseHeader(path string) (headerparser.Header, error) {
	info, statErr := statFile(path)
	if statErr == nil {
		key := Key(c.ID, path, info)
		if h, ok, err := c.Cache.Get(key); err == nil && ok {
			return h, nil
		}
	}

	h, err := c.Parser.ParseHeader(path)
	if err != nil {
		return h, err
	}

	if statErr == nil {
		ttl := c.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_ = c.Cache.Set(Key(c.ID, path, info), h, ttl)
	}
	return h, nil
}
