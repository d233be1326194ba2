package testsupport

import (
	"context"
	"testing"

	"ratingsync/internal/config"
	"ratingsync/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddItem inserts an item for tests using the provided store.
func AddItem(t testing.TB, store *library.Store, item library.Item) library.Item {
	t.Helper()

	added, err := store.Add(context.Background(), item)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return added
}
