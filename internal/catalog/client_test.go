package catalog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"ludex/internal/catalog"
)

func newTestServer(t *testing.T, entries []catalog.Entry) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/gog/entries", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if size < 1 {
			size = len(entries)
		}
		start := (page - 1) * size
		end := start + size
		if start > len(entries) {
			start = len(entries)
		}
		if end > len(entries) {
			end = len(entries)
		}
		_ = json.NewEncoder(w).Encode(catalog.Page{Entries: entries[start:end], Total: len(entries)})
	})
	mux.HandleFunc("/entries/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/entries/"):]
		for _, entry := range entries {
			if entry.ID == id {
				_ = json.NewEncoder(w).Encode(entry)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func makeEntries(n int) []catalog.Entry {
	entries := make([]catalog.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, catalog.Entry{
			ID:           fmt.Sprintf("e-%03d", i),
			Title:        fmt.Sprintf("Game %d", i),
			CollectionID: "gog",
		})
	}
	return entries
}

func TestListCollectionSinglePage(t *testing.T) {
	server := newTestServer(t, makeEntries(3))
	client, err := catalog.New(server.URL, "test-key", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	page, err := client.ListCollection(context.Background(), "gog", catalog.ListOptions{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListCollection: %v", err)
	}
	if len(page.Entries) != 3 || page.Total != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestFetchAllEntriesPagesThrough(t *testing.T) {
	server := newTestServer(t, makeEntries(12))
	client, err := catalog.New(server.URL, "test-key", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	all, err := catalog.FetchAllEntries(context.Background(), client, "gog", 5)
	if err != nil {
		t.Fatalf("FetchAllEntries: %v", err)
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(all))
	}
	if all[0].ID != "e-000" || all[11].ID != "e-011" {
		t.Fatalf("unexpected entry order: first=%s last=%s", all[0].ID, all[11].ID)
	}
}

func TestGetEntryNotFoundReturnsNil(t *testing.T) {
	server := newTestServer(t, makeEntries(1))
	client, err := catalog.New(server.URL, "test-key", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	entry, err := client.GetEntry(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for missing entry, got %+v", entry)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := catalog.New("  ", "key", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
