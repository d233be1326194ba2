// Package ratingcache stores provider responses per (content type, id) key in
// one JSON file each, fronted by an in-memory map.
//
// Reads hit memory first and fall back to disk, populating memory on success.
// Writes update memory before the durable write so concurrent readers see the
// new value even if the write fails. All disk access is serialized through a
// single gate; memory reads never wait on it. Disk and decode failures are
// logged and reported as a miss.
package ratingcache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"ratingsync/internal/fileutil"
	"ratingsync/internal/logging"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/metrics"
)

const fileExt = ".json"

// Entry is one cached provider response.
type Entry struct {
	Key       string
	FetchedAt time.Time
	Payload   *mdblist.Payload
	Raw       []byte
}

// Age reports how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Fresh reports whether the entry is no older than ttl.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) <= ttl
}

// record is the on-disk layout.
type record struct {
	CachedAtUTC time.Time        `json:"cachedAtUtc"`
	Data        *mdblist.Payload `json:"data"`
	RawJSON     string           `json:"rawJson,omitempty"`
}

// Cache is safe for concurrent use.
type Cache struct {
	dir    string
	logger *slog.Logger
	mem    sync.Map // folded key -> Entry
	gate   chan struct{}
}

// Key builds the logical cache key for a provider lookup.
func Key(contentType, externalID string) string {
	return normalizeKey(strings.TrimSpace(contentType) + ":" + strings.TrimSpace(externalID))
}

func normalizeKey(key string) string {
	return cases.Fold().String(strings.TrimSpace(key))
}

// New creates a cache rooted at dir. The directory is created on first write.
func New(dir string, logger *slog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "ratingcache"),
		gate:   make(chan struct{}, 1),
	}
}

// Dir returns the directory holding cache files.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the entry for key. The error is non-nil only when ctx is done.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	key = normalizeKey(key)
	if key == "" {
		return Entry{}, false, nil
	}
	if v, ok := c.mem.Load(key); ok {
		metrics.CacheLookups.WithLabelValues("memory").Inc()
		return v.(Entry), true, nil
	}
	if c.dir == "" {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Entry{}, false, nil
	}

	if err := c.acquire(ctx); err != nil {
		return Entry{}, false, err
	}
	defer c.release()

	// Another caller may have loaded or written the key while we waited.
	if v, ok := c.mem.Load(key); ok {
		metrics.CacheLookups.WithLabelValues("memory").Inc()
		return v.(Entry), true, nil
	}

	entry, ok := c.load(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Entry{}, false, nil
	}
	c.mem.Store(key, entry)
	metrics.CacheLookups.WithLabelValues("disk").Inc()
	return entry, true, nil
}

// Put stores entry under key. Memory is updated even when the durable write
// fails; the returned error describes the durable failure or cancellation.
func (c *Cache) Put(ctx context.Context, key string, entry Entry) error {
	key = normalizeKey(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	if entry.Payload == nil {
		return errors.New("cache entry payload cannot be nil")
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now()
	}
	entry.Key = key
	entry.FetchedAt = entry.FetchedAt.UTC()
	c.mem.Store(key, entry)

	if c.dir == "" {
		return nil
	}
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	rec := record{CachedAtUTC: entry.FetchedAt, Data: entry.Payload, RawJSON: string(entry.Raw)}
	if err := fileutil.WriteJSONAtomic(c.pathFor(key), rec); err != nil {
		metrics.CacheWriteFailures.Inc()
		logging.WarnWithContext(c.logger, "cache write failed", "cache_write_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions and free space in paths.cache_dir"),
			logging.String(logging.FieldImpact, "response is kept in memory only and will be fetched again after restart"),
		)
		return fmt.Errorf("persist cache entry %s: %w", key, err)
	}
	c.logger.Debug("cached provider response",
		logging.String("key", key),
		logging.Int("ratings", len(entry.Payload.Ratings)),
	)
	return nil
}

// Keys lists the keys of all entries on disk, sorted.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if c.dir == "" {
		return nil, nil
	}
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	keys := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if key, ok := keyFromFileName(de.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *Cache) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case c.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cache) release() {
	<-c.gate
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, fileNameForKey(key))
}

func fileNameForKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + fileExt
}

func keyFromFileName(name string) (string, bool) {
	encoded, ok := strings.CutSuffix(name, fileExt)
	if !ok || encoded == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// load reads one entry from disk. Callers hold the gate.
func (c *Cache) load(key string) (Entry, bool) {
	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(c.logger, "cache read failed", "cache_read_failed",
				logging.String("key", key),
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry treated as missing and fetched again"),
			)
		}
		return Entry{}, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.WarnWithContext(c.logger, "cache entry corrupt", "cache_decode_failed",
			logging.String("key", key),
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file is overwritten on the next successful fetch"),
			logging.String(logging.FieldImpact, "entry treated as missing and fetched again"),
		)
		return Entry{}, false
	}

	payload := recoverPayload(rec.Data, rec.RawJSON)
	if payload == nil {
		c.logger.Debug("cache entry has no usable payload", logging.String("key", key))
		return Entry{}, false
	}
	return Entry{
		Key:       key,
		FetchedAt: rec.CachedAtUTC.UTC(),
		Payload:   payload,
		Raw:       []byte(rec.RawJSON),
	}, true
}

// recoverPayload fills fields missing from the stored payload using the raw
// provider body, so entries written by older versions gain newer fields.
func recoverPayload(data *mdblist.Payload, raw string) *mdblist.Payload {
	if strings.TrimSpace(raw) == "" {
		return data
	}
	if data != nil && len(data.Ratings) > 0 && data.IDs.IMDB != "" && data.IDs.TMDB != "" && data.Type != "" {
		return data
	}
	parsed, ok := mdblist.ParsePayload([]byte(raw))
	if !ok {
		return data
	}
	if data == nil {
		return parsed
	}
	merged := *data
	if merged.Type == "" {
		merged.Type = parsed.Type
	}
	if merged.IDs.TMDB == "" {
		merged.IDs.TMDB = parsed.IDs.TMDB
	}
	if merged.IDs.IMDB == "" {
		merged.IDs.IMDB = parsed.IDs.IMDB
	}
	if len(merged.Ratings) == 0 {
		merged.Ratings = parsed.Ratings
	}
	return &merged
}
