package llmfabric

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists the semantic cache to a single SQLite file, for
// deployments that want the response cache to survive a process restart
// (spec.md §9 Open Question: cache locality). Single-flight is still
// process-local; SQLite's own locking arbitrates cross-process writers.
type SQLiteCache struct {
	mu sync.Mutex
	db *sql.DB

	hits int
}

// NewSQLiteCache opens (creating if necessary) a cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("llmfabric: open sqlite cache: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS response_cache (
	fingerprint TEXT PRIMARY KEY,
	response_text TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS prefix_cache (
	fingerprint TEXT PRIMARY KEY
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("llmfabric: migrate sqlite cache: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(fingerprint string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var responseText string
	err := c.db.QueryRow(`SELECT response_text FROM response_cache WHERE fingerprint = ?`, fingerprint).Scan(&responseText)
	if err != nil {
		return CacheEntry{}, false
	}
	c.hits++
	return CacheEntry{ResponseText: responseText}, true
}

func (c *SQLiteCache) Put(fingerprint string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db.Exec(`INSERT INTO response_cache (fingerprint, response_text) VALUES (?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET response_text = excluded.response_text`,
		fingerprint, entry.ResponseText)
}

func (c *SQLiteCache) PrefixLookup(prefixFingerprint string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fp string
	err := c.db.QueryRow(`SELECT fingerprint FROM prefix_cache WHERE fingerprint = ?`, prefixFingerprint).Scan(&fp)
	if err != nil {
		return nil, false
	}
	return fp, true
}

func (c *SQLiteCache) PrefixPut(prefixFingerprint string, artifact any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db.Exec(`INSERT OR IGNORE INTO prefix_cache (fingerprint) VALUES (?)`, prefixFingerprint)
}

func (c *SQLiteCache) HitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
