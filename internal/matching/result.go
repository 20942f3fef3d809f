package matching

import "ludex/internal/library"

// Strategy identifies which signal produced a match.
type Strategy string

const (
	StrategyNone            Strategy = "none"
	StrategyRemoteID        Strategy = "remote_id"
	StrategyContentHash     Strategy = "content_hash"
	StrategyFileName        Strategy = "file_name"
	StrategyNormalizedTitle Strategy = "normalized_title"
)

// Confidence ranks how trustworthy a match is.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Result is the outcome of matching one remote entry against the index.
type Result struct {
	Item       library.Item
	Strategy   Strategy
	Confidence Confidence
	Score      float64
	// Disparities lists field names where the matched pair's metadata
	// disagrees, for callers that flag items needing manual review.
	Disparities []string
}

// Strategies toggles individual match strategies.
type Strategies struct {
	RemoteID    bool
	ContentHash bool
	FileName    bool
	Title       bool
}

// AllStrategies enables the full priority chain.
func AllStrategies() Strategies {
	return Strategies{RemoteID: true, ContentHash: true, FileName: true, Title: true}
}
