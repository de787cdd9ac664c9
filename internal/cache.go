package internal

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dsljs/dsl/internal/types"
)

const (
	cacheFileName = "dsl_cache.gob"
	defaultMaxAge = 24 * time.Hour

	// cacheFormat is bumped whenever the stored layout or expansion
	// semantics change; files of another format are discarded.
	cacheFormat = 2
)

// CacheKey lists what an expansion depends on besides the source text.
type CacheKey struct {
	Marker    string
	MaxPasses int
	Libraries []string
}

// fingerprint digests the settings together with the current content of
// every library file.
func (k CacheKey) fingerprint() (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "format=%d\nmarker=%q\npasses=%d\n", cacheFormat, k.Marker, k.MaxPasses)
	for _, lib := range k.Libraries {
		data, err := os.ReadFile(lib)
		if err != nil {
			return "", fmt.Errorf("failed to read library %s: %w", lib, err)
		}
		fmt.Fprintf(h, "library=%q size=%d\n", lib, len(data))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digest(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	SourceDigest string
	Fingerprint  string
	Result       types.Result
	StoredAt     time.Time
}

// cacheFile is the on-disk layout.
type cacheFile struct {
	Format  int
	Entries map[string]cacheEntry
}

// Cache keeps expanded output per source path. An entry is served only for
// the exact source text it was expanded from, under the same marker, pass
// limit and library contents, and while it is younger than the max age.
type Cache struct {
	dir     string
	key     CacheKey
	maxAge  time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache opens the cache stored in dir, creating the directory when
// needed. An unreadable or outdated cache file starts an empty cache.
func NewCache(dir string, key CacheKey) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if _, err := key.fingerprint(); err != nil {
		return nil, err
	}

	c := &Cache{
		dir:     dir,
		key:     key,
		maxAge:  defaultMaxAge,
		entries: make(map[string]cacheEntry),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var stored cacheFile
	if err := gob.NewDecoder(file).Decode(&stored); err != nil || stored.Format != cacheFormat {
		return nil
	}
	if stored.Entries != nil {
		c.entries = stored.Entries
	}
	return nil
}

// save writes the entries through a temporary file so a concurrent reader
// never sees a partial cache. Callers hold c.mu.
func (c *Cache) save() error {
	for name, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, name)
		}
	}

	tmp, err := os.CreateTemp(c.dir, cacheFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(cacheFile{Format: cacheFormat, Entries: c.entries}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path())
}

func (c *Cache) expired(entry cacheEntry) bool {
	return time.Since(entry.StoredAt) > c.maxAge
}

// Set stores res as the expansion of filename whose content is src.
func (c *Cache) Set(filename string, src []byte, res *types.Result) error {
	fp, err := c.key.fingerprint()
	if err != nil {
		return err
	}

	stored := *res
	stored.Cached = false

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[filename] = cacheEntry{
		SourceDigest: digest(src),
		Fingerprint:  fp,
		Result:       stored,
		StoredAt:     time.Now(),
	}
	return c.save()
}

// Get returns the stored expansion of filename if it was produced from src
// under the current settings. Stale entries are dropped.
func (c *Cache) Get(filename string, src []byte) (*types.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[filename]
	if !ok {
		return nil, false
	}
	if c.expired(entry) || entry.SourceDigest != digest(src) {
		delete(c.entries, filename)
		return nil, false
	}
	if fp, err := c.key.fingerprint(); err != nil || fp != entry.Fingerprint {
		delete(c.entries, filename)
		return nil, false
	}

	res := entry.Result
	res.Cached = true
	return &res, true
}

// SetMaxAge changes how long entries stay valid.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAge = d
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
