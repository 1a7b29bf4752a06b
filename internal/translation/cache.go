package translation

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache stores finished translations in a local SQLite database so repeated
// runs over the same document do not hit the providers again.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path
func OpenCache(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS translations (
		key text PRIMARY KEY,
		provider text NOT NULL,
		source_lang text NOT NULL,
		target_lang text NOT NULL,
		translated text NOT NULL,
		created integer NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached translation for text, if any
func (c *Cache) Get(provider, sourceLang, targetLang, text string) (string, bool) {
	var translated string
	err := c.db.QueryRow(`SELECT translated FROM translations WHERE key = ?`,
		cacheKey(provider, sourceLang, targetLang, text)).Scan(&translated)
	if err != nil {
		return "", false
	}
	return translated, true
}

// Put stores a translation
func (c *Cache) Put(provider, sourceLang, targetLang, text, translated string) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO translations VALUES (?, ?, ?, ?, ?, ?)`,
		cacheKey(provider, sourceLang, targetLang, text),
		provider, sourceLang, targetLang, translated, time.Now().Unix())
	return err
}

// Count returns the number of cached translations
func (c *Cache) Count() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&count)
	return count, err
}

// Clear removes all cached translations
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM translations`)
	return err
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheKey hashes the lookup tuple into a fixed-size key
func cacheKey(provider, sourceLang, targetLang, text string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(sourceLang))
	h.Write([]byte{0})
	h.Write([]byte(targetLang))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
