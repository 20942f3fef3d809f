package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryProviderSortsByTitle(t *testing.T) {
	p := NewMemoryProvider()
	p.Add("games", Item{ID: "b", Title: "Beta"})
	p.Add("games", Item{ID: "a", Title: "Alpha"})

	items, err := p.Items(context.Background(), "games")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Title != "Alpha" {
		t.Fatalf("items = %+v", items)
	}
}

func TestMemoryProviderUnknownCollection(t *testing.T) {
	p := NewMemoryProvider()
	if _, err := p.Items(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown collection")
	}

	p.Register("empty")
	items, err := p.Items(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("registered collection should be empty, got %+v", items)
	}
}

func TestDirectoryProviderItems(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "games")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Beta Station.zip", "Alpha Quest.7z", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := NewDirectoryProvider(root)
	if err != nil {
		t.Fatal(err)
	}
	items, err := p.Items(context.Background(), "games")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (hidden files and directories skipped)", len(items))
	}
	if items[0].Title != "Alpha Quest" || items[1].Title != "Beta Station" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].ID != "games/Alpha Quest.7z" {
		t.Fatalf("id = %q", items[0].ID)
	}
	if items[0].PrimaryPath != filepath.Join(dir, "Alpha Quest.7z") {
		t.Fatalf("path = %q", items[0].PrimaryPath)
	}
}

func TestDirectoryProviderRejectsEscape(t *testing.T) {
	p, err := NewDirectoryProvider(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Items(context.Background(), "../outside"); err == nil {
		t.Fatal("expected escape rejection")
	}
}
