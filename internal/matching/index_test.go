package matching

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ludex/internal/library"
	"ludex/internal/store"
	"ludex/internal/testsupport"
)

func TestBuildIndexUsesPersistedIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.SeedIdentity(t, st, store.Identity{
		LocalItemID:      "local-1",
		RemoteItemID:     "rem-1",
		LocalContentHash: "cafe0001",
	})

	items := []library.Item{{ID: "local-1", Title: "Alpha Quest", PrimaryPath: "/games/alpha.zip"}}
	idx := BuildIndex(context.Background(), st, items, BuildOptions{}, nil)

	if idx.Len() != 1 {
		t.Fatalf("got %d candidates, want 1", idx.Len())
	}
	cand, ok := idx.byRemoteID["rem-1"]
	if !ok {
		t.Fatal("persisted remote id not indexed")
	}
	if cand.ContentHash != "cafe0001" {
		t.Fatalf("got hash %q, want cafe0001", cand.ContentHash)
	}
}

func TestBuildIndexHashWriteBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "beta.zip")
	if err := os.WriteFile(path, []byte("game payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	testsupport.SeedIdentity(t, st, store.Identity{
		LocalItemID:  "local-2",
		RemoteItemID: "rem-2",
	})

	items := []library.Item{{ID: "local-2", Title: "Beta Station", PrimaryPath: path}}
	idx := BuildIndex(context.Background(), st, items, BuildOptions{ContentHashing: true}, nil)

	cand, ok := idx.byRemoteID["rem-2"]
	if !ok {
		t.Fatal("candidate missing from index")
	}
	if cand.ContentHash == "" {
		t.Fatal("hash not computed")
	}

	st.Flush()
	state := st.Get(context.Background(), "local-2")
	if state == nil {
		t.Fatal("state missing after flush")
	}
	if state.LocalContentHash != cand.ContentHash {
		t.Fatalf("persisted hash %q, want %q", state.LocalContentHash, cand.ContentHash)
	}
	if state.RemoteItemID != "rem-2" {
		t.Fatalf("write-back lost remote id, got %q", state.RemoteItemID)
	}
}

func TestBuildIndexHashFailureSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	items := []library.Item{{ID: "local-3", Title: "Gamma", PrimaryPath: "/does/not/exist.zip"}}
	idx := BuildIndex(context.Background(), st, items, BuildOptions{ContentHashing: true}, nil)

	if idx.Len() != 1 {
		t.Fatalf("hash failure dropped the candidate, len=%d", idx.Len())
	}
	if len(idx.byContentHash) != 0 {
		t.Fatal("unexpected hash entry")
	}
}

func TestIndexFirstWinsOnCollision(t *testing.T) {
	idx := NewIndex([]Candidate{
		{Item: library.Item{ID: "first"}, RemoteItemID: "rem-x"},
		{Item: library.Item{ID: "second"}, RemoteItemID: "rem-x"},
	})
	if got := idx.byRemoteID["rem-x"].Item.ID; got != "first" {
		t.Fatalf("collision winner %q, want first", got)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// md5("hello")
	if got != "5d41402abc4b2a76b9719d911017c592" {
		t.Fatalf("got %s", got)
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
