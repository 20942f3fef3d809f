package testsupport

import (
	"context"
	"testing"

	"ludex/internal/config"
	"ludex/internal/logging"
	"ludex/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedIdentity writes an identity row and fails the test on error.
func SeedIdentity(t testing.TB, st *store.Store, identity store.Identity) {
	t.Helper()

	if !st.UpsertIdentity(context.Background(), identity) {
		t.Fatalf("UpsertIdentity failed for %s", identity.LocalItemID)
	}
}
