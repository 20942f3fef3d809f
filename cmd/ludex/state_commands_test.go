package main

import (
	"context"
	"testing"

	"ludex/internal/store"
	"ludex/internal/testsupport"
)

func TestStateShowAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	st := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedIdentity(t, st, store.Identity{
		LocalItemID:        "games/alpha.zip",
		RemoteItemID:       "r-1",
		RemoteCollectionID: "rem-games",
	})
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, []string{"state", "show", "games/alpha.zip"}, env.configPath)
	if err != nil {
		t.Fatalf("state show: %v", err)
	}
	requireContains(t, out, "r-1")
	requireContains(t, out, "rem-games")

	out, _, err = runCLI(t, []string{"state", "list", "rem-games"}, env.configPath)
	if err != nil {
		t.Fatalf("state list: %v", err)
	}
	requireContains(t, out, "games/alpha.zip")

	out, _, err = runCLI(t, []string{"state", "list", "other-collection"}, env.configPath)
	if err != nil {
		t.Fatalf("state list empty: %v", err)
	}
	requireContains(t, out, "No rows")
}

func TestStateShowMissingItem(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"state", "show", "absent"}, env.configPath); err == nil {
		t.Fatal("expected error for missing item")
	}
}

func TestStateForget(t *testing.T) {
	env := setupCLITestEnv(t)

	st := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "l-1", RemoteItemID: "r-1"})
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, []string{"state", "forget", "l-1"}, env.configPath)
	if err != nil {
		t.Fatalf("state forget: %v", err)
	}
	requireContains(t, out, "Removed state")

	st = testsupport.MustOpenStore(t, env.cfg)
	defer st.Close()
	if state := st.Get(context.Background(), "l-1"); state != nil {
		t.Fatalf("state survived forget: %+v", state)
	}
}
