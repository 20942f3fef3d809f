package matching

import (
	"context"
	"log/slog"
	"strings"

	"ludex/internal/library"
	"ludex/internal/logging"
	"ludex/internal/normalize"
	"ludex/internal/store"
)

// Candidate is one local item prepared for matching.
type Candidate struct {
	Item         library.Item
	RemoteItemID string
	ContentHash  string
	NormTitle    string
	NormFileName string
}

// Index holds the per-run lookup structures. Build once per collection; a
// stale index is cheaper to rebuild than to patch.
type Index struct {
	byRemoteID    map[string]*Candidate
	byContentHash map[string]*Candidate
	byFileName    map[string]*Candidate
	byTitle       map[string][]*Candidate
	candidates    []*Candidate
}

// BuildOptions controls index construction.
type BuildOptions struct {
	// ContentHashing enables on-demand hashing of items without a cached
	// hash. Hashing is expensive; a computed hash is queued back to the
	// store for future reuse.
	ContentHashing bool
}

// BuildIndex prepares the lookup structures for one local collection.
// Hash failures are logged and skipped, never fatal.
func BuildIndex(ctx context.Context, st *store.Store, items []library.Item, opts BuildOptions, logger *slog.Logger) *Index {
	if logger == nil {
		logger = logging.NewNop()
	}

	idx := &Index{
		byRemoteID:    make(map[string]*Candidate, len(items)),
		byContentHash: make(map[string]*Candidate, len(items)),
		byFileName:    make(map[string]*Candidate, len(items)),
		byTitle:       make(map[string][]*Candidate, len(items)),
		candidates:    make([]*Candidate, 0, len(items)),
	}

	for _, item := range items {
		cand := &Candidate{
			Item:         item,
			NormTitle:    normalize.Title(item.Title),
			NormFileName: foldFileName(item.PrimaryPath),
		}

		persisted := st.Get(ctx, item.ID)
		if persisted != nil {
			cand.RemoteItemID = persisted.RemoteItemID
			cand.ContentHash = persisted.LocalContentHash
		}

		if opts.ContentHashing && cand.ContentHash == "" && item.PrimaryPath != "" {
			hash, err := HashFile(item.PrimaryPath)
			if err != nil {
				logger.Debug("content hash skipped",
					logging.String("item", item.ID), logging.Error(err))
			} else {
				cand.ContentHash = hash
				identity := store.Identity{LocalItemID: item.ID, LocalContentHash: hash}
				if persisted != nil {
					identity.RemoteItemID = persisted.RemoteItemID
					identity.RemoteCollectionID = persisted.RemoteCollectionID
					identity.ServerOrigin = persisted.ServerOrigin
					identity.RemoteContentHash = persisted.RemoteContentHash
					identity.InstallKind = persisted.InstallKind
				}
				st.QueueIdentityWrite(identity)
			}
		}

		idx.add(cand)
	}
	return idx
}

// NewIndex builds an index from prepared candidates, bypassing the store.
// Intended for tests and embedding hosts that resolve identity themselves.
func NewIndex(candidates []Candidate) *Index {
	idx := &Index{
		byRemoteID:    make(map[string]*Candidate, len(candidates)),
		byContentHash: make(map[string]*Candidate, len(candidates)),
		byFileName:    make(map[string]*Candidate, len(candidates)),
		byTitle:       make(map[string][]*Candidate, len(candidates)),
		candidates:    make([]*Candidate, 0, len(candidates)),
	}
	for i := range candidates {
		cand := candidates[i]
		if cand.NormTitle == "" {
			cand.NormTitle = normalize.Title(cand.Item.Title)
		}
		if cand.NormFileName == "" {
			cand.NormFileName = foldFileName(cand.Item.PrimaryPath)
		}
		idx.add(&cand)
	}
	return idx
}

// add indexes a candidate. First hit wins on key collisions; ties are not
// re-scored.
func (idx *Index) add(cand *Candidate) {
	idx.candidates = append(idx.candidates, cand)

	if cand.RemoteItemID != "" {
		if _, ok := idx.byRemoteID[cand.RemoteItemID]; !ok {
			idx.byRemoteID[cand.RemoteItemID] = cand
		}
	}
	if cand.ContentHash != "" {
		key := strings.ToLower(cand.ContentHash)
		if _, ok := idx.byContentHash[key]; !ok {
			idx.byContentHash[key] = cand
		}
	}
	if cand.NormFileName != "" {
		if _, ok := idx.byFileName[cand.NormFileName]; !ok {
			idx.byFileName[cand.NormFileName] = cand
		}
	}
	if cand.NormTitle != "" {
		idx.byTitle[cand.NormTitle] = append(idx.byTitle[cand.NormTitle], cand)
	}
}

// Len returns the number of indexed candidates.
func (idx *Index) Len() int {
	return len(idx.candidates)
}

func foldFileName(path string) string {
	return strings.ToLower(normalize.FileName(path))
}
