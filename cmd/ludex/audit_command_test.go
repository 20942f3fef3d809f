package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ludex/internal/catalog"
	"ludex/internal/testsupport"
)

func TestAuditCommandEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)

	libraryRoot := t.TempDir()
	collectionDir := filepath.Join(libraryRoot, "games")
	if err := os.MkdirAll(collectionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Alpha Quest.zip", "No Remote Twin.zip"} {
		if err := os.WriteFile(filepath.Join(collectionDir, name), []byte("payload"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/games/entries" {
			http.NotFound(w, r)
			return
		}
		page := catalog.Page{Total: 1}
		if r.URL.Query().Get("page") == "1" {
			page.Entries = []catalog.Entry{{ID: "r-1", Title: "Alpha Quest", CollectionID: "games"}}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	env.cfg.Catalog.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	args := []string{"audit", "games", "--library-root", libraryRoot, "--force"}
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "1 updated")
	requireContains(t, out, "1 not found")

	st := testsupport.MustOpenStore(t, env.cfg)
	state := st.Get(context.Background(), "games/Alpha Quest.zip")
	if state == nil || state.RemoteItemID != "r-1" {
		t.Fatalf("audit did not persist linkage: %+v", state)
	}
}

func TestAuditCommandDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	libraryRoot := t.TempDir()
	collectionDir := filepath.Join(libraryRoot, "games")
	if err := os.MkdirAll(collectionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(collectionDir, "Alpha Quest.zip"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := catalog.Page{Total: 1}
		if r.URL.Query().Get("page") == "1" {
			page.Entries = []catalog.Entry{{ID: "r-1", Title: "Alpha Quest"}}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	env.cfg.Catalog.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	args := []string{"audit", "games", "--library-root", libraryRoot, "--force", "--dry-run"}
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("audit dry run: %v", err)
	}
	requireContains(t, out, "1 updated")

	st := testsupport.MustOpenStore(t, env.cfg)
	if state := st.Get(context.Background(), "games/Alpha Quest.zip"); state != nil {
		t.Fatalf("dry run persisted state: %+v", state)
	}
}
