package matching

import (
	"fmt"
	"strings"

	"ludex/internal/catalog"
	"ludex/internal/normalize"
)

// FindMatch resolves a catalog entry against the index. Strategies run in
// fixed priority order; the first hit wins and later strategies are never
// consulted, even if they would score higher. Returns nil when no strategy
// produces a candidate at or above the fuzzy floor.
func FindMatch(idx *Index, entry catalog.Entry, strategies Strategies, policy Policy) *Result {
	policy = policy.normalized()

	if strategies.RemoteID && entry.ID != "" {
		if cand, ok := idx.byRemoteID[entry.ID]; ok {
			return newResult(cand, entry, StrategyRemoteID, ConfidenceExact, 1)
		}
	}

	if strategies.ContentHash && entry.ContentHash != "" {
		if cand, ok := idx.byContentHash[strings.ToLower(entry.ContentHash)]; ok {
			return newResult(cand, entry, StrategyContentHash, ConfidenceHigh, 1)
		}
	}

	if strategies.FileName && entry.FileName != "" {
		key := strings.ToLower(normalize.FileName(entry.FileName))
		if key != "" {
			if cand, ok := idx.byFileName[key]; ok {
				return newResult(cand, entry, StrategyFileName, ConfidenceHigh, 1)
			}
		}
	}

	if strategies.Title {
		if res := matchByTitle(idx, entry, policy); res != nil {
			return res
		}
	}
	return nil
}

func matchByTitle(idx *Index, entry catalog.Entry, policy Policy) *Result {
	title := normalize.Title(entry.Title)
	if title == "" {
		return nil
	}

	// Exact normalized equality is its own bucket: normalization is lossy
	// enough that equality still only warrants medium confidence.
	if bucket, ok := idx.byTitle[title]; ok && len(bucket) > 0 {
		return newResult(bucket[0], entry, StrategyNormalizedTitle, ConfidenceMedium, 1)
	}

	var best *Candidate
	var bestScore float64
	for _, cand := range idx.candidates {
		if cand.NormTitle == "" {
			continue
		}
		score := TokenSetJaccard(title, cand.NormTitle)
		if score > bestScore {
			best = cand
			bestScore = score
		}
	}
	if best == nil || bestScore < policy.FuzzyMatchFloor {
		return nil
	}
	return newResult(best, entry, StrategyNormalizedTitle, policy.tierForScore(bestScore), bestScore)
}

func newResult(cand *Candidate, entry catalog.Entry, strategy Strategy, confidence Confidence, score float64) *Result {
	return &Result{
		Item:        cand.Item,
		Strategy:    strategy,
		Confidence:  confidence,
		Score:       score,
		Disparities: disparities(cand, entry),
	}
}

// disparities lists the fields where the winning pair disagree. They are
// advisory; a match with disparities is still a match.
func disparities(cand *Candidate, entry catalog.Entry) []string {
	var out []string

	if entry.Title != "" && cand.Item.Title != "" {
		if normalize.Title(entry.Title) != cand.NormTitle {
			out = append(out, fmt.Sprintf("title %q vs %q", entry.Title, cand.Item.Title))
		}
	}
	if entry.FileName != "" && cand.NormFileName != "" {
		remote := strings.ToLower(normalize.FileName(entry.FileName))
		if remote != "" && remote != cand.NormFileName {
			out = append(out, fmt.Sprintf("file name %q vs %q", entry.FileName, cand.NormFileName))
		}
	}
	if entry.ContentHash != "" && cand.ContentHash != "" {
		if !strings.EqualFold(entry.ContentHash, cand.ContentHash) {
			out = append(out, "content hash mismatch")
		}
	}
	return out
}
