package testsupport

import (
	"testing"

	"mediasort/internal/catalog"
	"mediasort/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenEphemeralStore opens an in-memory catalog.Store and registers cleanup.
func MustOpenEphemeralStore(t testing.TB, workers int) *catalog.Store {
	t.Helper()

	store, err := catalog.OpenEphemeral(workers)
	if err != nil {
		t.Fatalf("catalog.OpenEphemeral: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
