// Package matching maps remote catalog entries to local library items.
//
// Strategies form a strict priority chain: remote id, then content hash,
// then file name, then normalized title. The first strategy that yields a
// candidate wins; stronger identifiers are never overridden by weaker fuzzy
// signals, and within a strategy the first hit wins. Title matching falls
// back to token-set Jaccard scoring with a hard floor below which no match
// is reported.
package matching
