package audit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ludex/internal/catalog"
	"ludex/internal/config"
	"ludex/internal/library"
	"ludex/internal/logging"
	"ludex/internal/matching"
	"ludex/internal/store"
)

// ErrAuditInProgress reports that another audit run holds the single-flight
// gate. The request is rejected, never queued.
var ErrAuditInProgress = errors.New("audit already running")

// Options controls one audit run.
type Options struct {
	// MaxParallelism bounds the worker pool. Values below 1 clamp to 1.
	MaxParallelism int
	// APIDelay is slept after each successful identity write to respect
	// remote rate limits.
	APIDelay time.Duration
	// ForceFullRematch audits every item regardless of existing linkage.
	ForceFullRematch bool
	// RematchMissingID audits items that have no remote linkage yet.
	RematchMissingID bool
	// RevalidateExisting audits items that already have remote linkage.
	RevalidateExisting bool
	// DryRun matches and counts outcomes but skips all persistence writes.
	DryRun bool
	// CorrelationID tags the run in logs and progress events. Generated
	// when empty.
	CorrelationID string
}

// OptionsFromConfig maps configuration defaults to run options.
func OptionsFromConfig(cfg config.Audit) Options {
	return Options{
		MaxParallelism:     cfg.MaxParallelism,
		APIDelay:           time.Duration(cfg.APIDelayMs) * time.Millisecond,
		RematchMissingID:   cfg.RematchMissingID,
		RevalidateExisting: cfg.RevalidateExisting,
	}
}

func (o Options) normalized() Options {
	if o.MaxParallelism < 1 {
		o.MaxParallelism = 1
	}
	if o.APIDelay < 0 {
		o.APIDelay = 0
	}
	if o.CorrelationID == "" {
		o.CorrelationID = uuid.NewString()
	}
	return o
}

// Scheduler re-validates linkage for entire collections, one run at a time.
type Scheduler struct {
	store   *store.Store
	catalog catalog.Client
	library library.Provider
	logger  *slog.Logger

	serverOrigin   string
	pageSize       int
	contentHashing bool
	policy         matching.Policy

	// gate is the single-flight lock. It belongs to this instance so
	// independent schedulers (and their tests) never contend.
	gate chan struct{}
}

// NewScheduler wires a scheduler against its collaborators.
func NewScheduler(st *store.Store, catalogClient catalog.Client, provider library.Provider, cfg *config.Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:          st,
		catalog:        catalogClient,
		library:        provider,
		logger:         logging.WithComponent(logger, "audit"),
		serverOrigin:   cfg.Catalog.BaseURL,
		pageSize:       cfg.Catalog.PageSize,
		contentHashing: cfg.Matching.ContentHashing,
		policy:         matching.DefaultPolicy(),
		gate:           make(chan struct{}, 1),
	}
}

// Run audits one remote collection. A structured Result comes back in all
// cases; the error is non-nil only for single-flight rejection.
func (s *Scheduler) Run(ctx context.Context, collectionID string, opts Options, onProgress func(Progress)) (*Result, error) {
	opts = opts.normalized()

	select {
	case s.gate <- struct{}{}:
	default:
		return &Result{
			CorrelationID: opts.CorrelationID,
			CollectionID:  collectionID,
			Failed:        true,
			Message:       ErrAuditInProgress.Error(),
			StartedAt:     time.Now(),
			FinishedAt:    time.Now(),
		}, ErrAuditInProgress
	}
	defer func() { <-s.gate }()

	logger := s.logger.With(logging.String("correlation_id", opts.CorrelationID), logging.String("collection", collectionID))
	result := &Result{
		CorrelationID: opts.CorrelationID,
		CollectionID:  collectionID,
		StartedAt:     time.Now(),
	}

	localCollection := s.store.CollectionMapping(ctx, collectionID)
	if localCollection == "" {
		localCollection = collectionID
	}

	items, err := s.library.Items(ctx, localCollection)
	if err != nil {
		logger.Error("collection enumeration failed", logging.Error(err))
		result.Failed = true
		result.Message = "enumerate collection: " + err.Error()
		result.FinishedAt = time.Now()
		return result, nil
	}
	if len(items) == 0 {
		result.FinishedAt = time.Now()
		return result, nil
	}

	// Hash write-backs are persistence too, so dry runs skip hashing
	// entirely rather than caching behind the caller's back.
	buildOpts := matching.BuildOptions{ContentHashing: s.contentHashing && !opts.DryRun}
	idx := matching.BuildIndex(ctx, s.store, items, buildOpts, logger)
	// Drain queued hash write-backs before item processing so a late
	// background write cannot overwrite linkage written by this run.
	s.store.Flush()

	entries, err := catalog.FetchAllEntries(ctx, s.catalog, collectionID, s.pageSize)
	if err != nil {
		logger.Error("catalog fetch failed", logging.Error(err))
		result.Failed = true
		result.Message = "fetch catalog entries: " + err.Error()
		result.FinishedAt = time.Now()
		return result, nil
	}

	logger.Info("audit started",
		logging.Int("items", len(items)),
		logging.Int("entries", len(entries)),
		logging.Int("parallelism", opts.MaxParallelism),
		logging.Bool("dry_run", opts.DryRun))

	winners := bestMatches(idx, entries, s.policy)

	result.Items = s.processItems(ctx, collectionID, items, winners, opts, onProgress, logger)
	for _, item := range result.Items {
		result.Summary.record(item.Outcome)
	}
	result.Summary.Total = len(result.Items)
	result.Cancelled = ctx.Err() != nil
	result.FinishedAt = time.Now()

	sort.Slice(result.Items, func(i, j int) bool {
		if result.Items[i].Title != result.Items[j].Title {
			return result.Items[i].Title < result.Items[j].Title
		}
		return result.Items[i].ItemID < result.Items[j].ItemID
	})

	logger.Info("audit finished",
		logging.Int("updated", result.Summary.Updated),
		logging.Int("unchanged", result.Summary.Unchanged),
		logging.Int("not_found", result.Summary.NotFound),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Int("failed", result.Summary.Failed),
		logging.Bool("cancelled", result.Cancelled),
		logging.Duration("duration", result.Duration()))
	return result, nil
}

// itemMatch pairs a remote entry with the match evidence that selected it.
type itemMatch struct {
	entry catalog.Entry
	match *matching.Result
}

// bestMatches resolves each remote entry against the full index with every
// strategy enabled, then keeps the strongest entry per local item. Ranks tie
// toward the entry seen first.
func bestMatches(idx *matching.Index, entries []catalog.Entry, policy matching.Policy) map[string]itemMatch {
	winners := make(map[string]itemMatch)
	for _, entry := range entries {
		res := matching.FindMatch(idx, entry, matching.AllStrategies(), policy)
		if res == nil {
			continue
		}
		current, ok := winners[res.Item.ID]
		if !ok || stronger(res, current.match) {
			winners[res.Item.ID] = itemMatch{entry: entry, match: res}
		}
	}
	return winners
}

func confidenceRank(c matching.Confidence) int {
	switch c {
	case matching.ConfidenceExact:
		return 4
	case matching.ConfidenceHigh:
		return 3
	case matching.ConfidenceMedium:
		return 2
	case matching.ConfidenceLow:
		return 1
	default:
		return 0
	}
}

func stronger(candidate, incumbent *matching.Result) bool {
	cr, ir := confidenceRank(candidate.Confidence), confidenceRank(incumbent.Confidence)
	if cr != ir {
		return cr > ir
	}
	return candidate.Score > incumbent.Score
}

func (s *Scheduler) processItems(ctx context.Context, collectionID string, items []library.Item, winners map[string]itemMatch, opts Options, onProgress func(Progress), logger *slog.Logger) []ItemResult {
	jobs := make(chan library.Item)
	results := make([]ItemResult, 0, len(items))

	var mu sync.Mutex
	var running Summary
	processed := 0
	total := len(items)

	var wg sync.WaitGroup
	for i := 0; i < opts.MaxParallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				res := s.auditItem(ctx, collectionID, item, winners, opts, logger)

				mu.Lock()
				results = append(results, res)
				running.record(res.Outcome)
				processed++
				running.Total = processed
				if onProgress != nil {
					onProgress(Progress{
						CorrelationID: opts.CorrelationID,
						Processed:     processed,
						Total:         total,
						Percent:       float64(processed) / float64(total) * 100,
						Summary:       running,
					})
				}
				mu.Unlock()
			}
		}()
	}

	for _, item := range items {
		jobs <- item
	}
	close(jobs)
	wg.Wait()
	return results
}

func (s *Scheduler) auditItem(ctx context.Context, collectionID string, item library.Item, winners map[string]itemMatch, opts Options, logger *slog.Logger) ItemResult {
	res := ItemResult{ItemID: item.ID, Title: item.Title}

	if ctx.Err() != nil {
		res.Outcome = OutcomeFailed
		res.Detail = "cancelled"
		return res
	}

	if s.store.IsExcluded(ctx, item.ID) {
		res.Outcome = OutcomeSkipped
		res.Detail = "excluded"
		return res
	}

	state := s.store.Get(ctx, item.ID)
	hasLinkage := state != nil && state.HasRemoteLink()

	if !opts.ForceFullRematch {
		if hasLinkage && !opts.RevalidateExisting {
			res.Outcome = OutcomeSkipped
			return res
		}
		if !hasLinkage && !opts.RematchMissingID {
			res.Outcome = OutcomeSkipped
			return res
		}
	}

	winner, ok := winners[item.ID]
	if !ok {
		res.Outcome = OutcomeNotFound
		return res
	}
	res.Strategy = winner.match.Strategy
	res.Confidence = winner.match.Confidence

	if hasLinkage && state.RemoteItemID == winner.entry.ID && !opts.ForceFullRematch {
		res.Outcome = OutcomeUnchanged
		return res
	}

	if opts.DryRun {
		res.Outcome = OutcomeUpdated
		res.Detail = "dry run"
		return res
	}

	identity := store.Identity{
		LocalItemID:        item.ID,
		RemoteItemID:       winner.entry.ID,
		RemoteCollectionID: winner.entry.CollectionID,
		ServerOrigin:       s.serverOrigin,
		RemoteContentHash:  winner.entry.ContentHash,
	}
	if identity.RemoteCollectionID == "" {
		identity.RemoteCollectionID = collectionID
	}
	if state != nil {
		identity.LocalContentHash = state.LocalContentHash
		identity.InstallKind = state.InstallKind
		if identity.ServerOrigin == "" {
			identity.ServerOrigin = state.ServerOrigin
		}
	}

	if !s.store.UpsertIdentity(ctx, identity) {
		logger.Warn("identity write failed", logging.String("item", item.ID))
		res.Outcome = OutcomeFailed
		res.Detail = "identity write failed"
		return res
	}
	res.Outcome = OutcomeUpdated

	if opts.APIDelay > 0 {
		select {
		case <-time.After(opts.APIDelay):
		case <-ctx.Done():
		}
	}
	return res
}
