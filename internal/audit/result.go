package audit

import (
	"time"

	"ludex/internal/matching"
)

// Outcome is the terminal classification of one audited item. Every item
// reaches exactly one outcome per run; there are no retries within a run.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeUpdated   Outcome = "updated"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult records the outcome for one local item.
type ItemResult struct {
	ItemID     string
	Title      string
	Outcome    Outcome
	Strategy   matching.Strategy
	Confidence matching.Confidence
	Detail     string
}

// Summary aggregates per-outcome counts for a run.
type Summary struct {
	Total     int
	Skipped   int
	NotFound  int
	Unchanged int
	Updated   int
	Failed    int
}

func (s *Summary) record(outcome Outcome) {
	switch outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeFailed:
		s.Failed++
	}
}

// Progress is emitted after every completed item. Events arrive in
// completion order, not submission order.
type Progress struct {
	CorrelationID string
	Processed     int
	Total         int
	Percent       float64
	Summary       Summary
}

// Result is the structured outcome of one audit run. Items are sorted by
// title so the report is deterministic even though execution order is not.
type Result struct {
	CorrelationID string
	CollectionID  string
	Items         []ItemResult
	Summary       Summary
	StartedAt     time.Time
	FinishedAt    time.Time
	Cancelled     bool
	Failed        bool
	Message       string
}

// Duration reports how long the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
