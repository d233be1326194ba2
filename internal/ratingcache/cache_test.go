package ratingcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ratingsync/internal/logging"
	"ratingsync/internal/mdblist"
)

func samplePayload() *mdblist.Payload {
	v := 7.6
	s := 81.0
	return &mdblist.Payload{
		Type: mdblist.ContentMovie,
		IDs:  mdblist.ExternalIDs{TMDB: "603", IMDB: "tt0133093"},
		Ratings: []mdblist.Rating{
			{Source: "imdb", Value: &v},
			{Source: "metacritic", Score: &s},
		},
	}
}

func TestPutGetRoundTripAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cache := New(dir, logging.NewNop())
	key := Key(mdblist.ContentMovie, "603")
	if err := cache.Put(ctx, key, Entry{FetchedAt: fetched, Payload: samplePayload(), Raw: []byte(`{"type":"movie"}`)}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get from memory: ok=%v err=%v", ok, err)
	}
	if !entry.FetchedAt.Equal(fetched) || entry.Payload.IDs.IMDB != "tt0133093" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	restarted := New(dir, logging.NewNop())
	entry, ok, err = restarted.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get after restart: ok=%v err=%v", ok, err)
	}
	if !entry.FetchedAt.Equal(fetched) {
		t.Fatalf("timestamp lost: %v", entry.FetchedAt)
	}
	if len(entry.Payload.Ratings) != 2 || *entry.Payload.Ratings[0].Value != 7.6 || *entry.Payload.Ratings[1].Score != 81 {
		t.Fatalf("ratings lost: %+v", entry.Payload.Ratings)
	}
	if string(entry.Raw) != `{"type":"movie"}` {
		t.Fatalf("raw body lost: %q", entry.Raw)
	}
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cache := New(dir, logging.NewNop())
	if err := cache.Put(ctx, "MOVIE:tt1", Entry{Payload: samplePayload()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "movie:TT1"); !ok {
		t.Fatal("expected case-insensitive hit in memory")
	}
	if _, ok, _ := New(dir, logging.NewNop()).Get(ctx, " Movie:tt1 "); !ok {
		t.Fatal("expected case-insensitive hit on disk")
	}
	if Key(" Show ", " 1399 ") != "show:1399" {
		t.Fatalf("unexpected key %q", Key(" Show ", " 1399 "))
	}
}

func TestFileNamesAreReversible(t *testing.T) {
	for _, key := range []string{"movie:603", "show:a/b\\c:d", "movie:ünïcode"} {
		name := fileNameForKey(key)
		if strings.ContainsAny(name, "/\\:") {
			t.Fatalf("unsafe file name %q", name)
		}
		got, ok := keyFromFileName(name)
		if !ok || got != key {
			t.Fatalf("round trip %q -> %q -> %q", key, name, got)
		}
	}
	if _, ok := keyFromFileName("notes.txt"); ok {
		t.Fatal("unexpected key from foreign file")
	}
}

func TestKeysListsDiskEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cache := New(dir, logging.NewNop())
	for _, key := range []string{Key("show", "2"), Key("movie", "1")} {
		if err := cache.Put(ctx, key, Entry{Payload: samplePayload()}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "movie:1" || keys[1] != "show:2" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestCorruptFileIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := Key("movie", "9")
	if err := os.WriteFile(filepath.Join(dir, fileNameForKey(key)), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ok, err := New(dir, logging.NewNop()).Get(ctx, key)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestPutFailureKeepsMemoryValue(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := New(filepath.Join(blocker, "cache"), logging.NewNop())
	key := Key("movie", "1")
	if err := cache.Put(ctx, key, Entry{Payload: samplePayload()}); err == nil {
		t.Fatal("expected durable write failure")
	}
	if _, ok, _ := cache.Get(ctx, key); !ok {
		t.Fatal("memory value should survive durable failure")
	}
}

func TestRawJSONRecoversMissingFields(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := Key("movie", "603")
	content := `{"cachedAtUtc":"2026-01-01T00:00:00Z","data":{"type":"movie","ids":{"tmdb":"603"},"ratings":[]},` +
		`"rawJson":"{\"type\":\"movie\",\"ids\":{\"tmdb\":603,\"imdb\":\"tt0133093\"},\"ratings\":[{\"source\":\"imdb\",\"value\":8.7}]}"}`
	if err := os.WriteFile(filepath.Join(dir, fileNameForKey(key)), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	entry, ok, err := New(dir, logging.NewNop()).Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if entry.Payload.IDs.IMDB != "tt0133093" {
		t.Fatalf("imdb id not recovered: %+v", entry.Payload.IDs)
	}
	if len(entry.Payload.Ratings) != 1 || entry.Payload.Ratings[0].Source != "imdb" {
		t.Fatalf("ratings not recovered: %+v", entry.Payload.Ratings)
	}
}

func TestGetCancelledWhileWaitingForGate(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNop())
	cache.gate <- struct{}{}
	defer cache.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := cache.Get(ctx, Key("movie", "1"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMemoryReadsDoNotWaitForGate(t *testing.T) {
	ctx := context.Background()
	cache := New(t.TempDir(), logging.NewNop())
	key := Key("movie", "1")
	if err := cache.Put(ctx, key, Entry{Payload: samplePayload()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	cache.gate <- struct{}{}
	defer cache.release()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := cache.Get(ctx, key); !ok || err != nil {
				t.Errorf("memory read blocked or missed: ok=%v err=%v", ok, err)
			}
		}()
	}
	wg.Wait()
}

func TestEntryFreshness(t *testing.T) {
	now := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	entry := Entry{FetchedAt: now.Add(-48 * time.Hour)}
	if entry.Fresh(now, 24*time.Hour) {
		t.Fatal("two day old entry should be stale with a one day ttl")
	}
	if !entry.Fresh(now, 48*time.Hour) {
		t.Fatal("entry exactly at ttl should be fresh")
	}
}

func TestPutRejectsInvalidEntries(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNop())
	if err := cache.Put(context.Background(), "", Entry{Payload: samplePayload()}); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := cache.Put(context.Background(), "movie:1", Entry{}); err == nil {
		t.Fatal("expected error for nil payload")
	}
}
