package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirectoryProvider treats each subdirectory of a root as a collection and
// every regular file inside it as one item. Item ids are the path relative
// to the root, stable across runs on the same machine.
type DirectoryProvider struct {
	root string
}

// NewDirectoryProvider roots a provider at dir.
func NewDirectoryProvider(dir string) (*DirectoryProvider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve library root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", abs)
	}
	return &DirectoryProvider{root: abs}, nil
}

// Items lists the regular files of one collection directory, sorted by
// title. Hidden files are skipped.
func (p *DirectoryProvider) Items(_ context.Context, collection string) ([]Item, error) {
	dir := filepath.Join(p.root, filepath.Clean(collection))
	rel, err := filepath.Rel(p.root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("collection %q escapes the library root", collection)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read collection %q: %w", collection, err)
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		items = append(items, Item{
			ID:          filepath.ToSlash(filepath.Join(rel, name)),
			Title:       strings.TrimSuffix(name, filepath.Ext(name)),
			PrimaryPath: filepath.Join(dir, name),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return items, nil
}
