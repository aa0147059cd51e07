// Package cache is a content-addressed store for compiled artifacts, keyed
// by the SHA-256 of the source text.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	source_hash TEXT PRIMARY KEY,
	artifact    BLOB NOT NULL,
	created_at  INTEGER NOT NULL
);`

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Key derives the cache key for a source text.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(key string) ([]byte, bool, error) {
	var artifact []byte
	err := c.db.QueryRow(
		`SELECT artifact FROM artifacts WHERE source_hash = ?`, key,
	).Scan(&artifact)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return artifact, true, nil
}

func (c *Cache) Put(key string, artifact []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO artifacts (source_hash, artifact, created_at) VALUES (?, ?, ?)`,
		key, artifact, time.Now().Unix(),
	)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
