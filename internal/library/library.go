// Package library defines the contract against the host application's
// library. The reconciliation core only reads items through this interface;
// it never mutates host-library fields directly.
package library

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Item is the read-only view of one local library entry.
type Item struct {
	ID          string
	Title       string
	PrimaryPath string
}

// Provider enumerates local items per collection.
type Provider interface {
	Items(ctx context.Context, collection string) ([]Item, error)
}

// MemoryProvider is an in-memory Provider for tests and embedding hosts
// that already hold their library in memory.
type MemoryProvider struct {
	mu          sync.RWMutex
	collections map[string][]Item
}

// NewMemoryProvider returns an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{collections: make(map[string][]Item)}
}

// Register creates a collection, empty until items are added.
func (p *MemoryProvider) Register(collection string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.collections[collection]; !ok {
		p.collections[collection] = nil
	}
}

// Add appends an item to a collection.
func (p *MemoryProvider) Add(collection string, item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collections[collection] = append(p.collections[collection], item)
}

// Items returns the items of a collection sorted by title.
func (p *MemoryProvider) Items(_ context.Context, collection string) ([]Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	items, ok := p.collections[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	out := make([]Item, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
