package signals

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saaga0h/wellness-engine/internal/cache"
	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Aggregator fans out to every domain source and assembles a Context.
// It never returns an error: failing sources degrade their slice only.
type Aggregator struct {
	sources    []Source
	windowDays int
	timeout    time.Duration
	memo       *cache.Cache[string, *wellness.Context]
	logger     *slog.Logger
	now        func() time.Time
}

// AggregatorConfig holds aggregation tuning
type AggregatorConfig struct {
	WindowDays    int
	SourceTimeout time.Duration
	MemoTTL       time.Duration
}

// NewAggregator creates an aggregator over the given sources
func NewAggregator(sources []Source, cfg AggregatorConfig, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources:    sources,
		windowDays: cfg.WindowDays,
		timeout:    cfg.SourceTimeout,
		memo:       cache.New[string, *wellness.Context](cfg.MemoTTL),
		logger:     logger,
		now:        time.Now,
	}
}

// Aggregate builds the Context for a user. Contexts built within the memo
// window are reused unless forceRefresh is set. The returned Context is
// shared and must be treated as read-only.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, forceRefresh bool) *wellness.Context {
	if !forceRefresh {
		if cached, ok := a.memo.Get(userID); ok {
			a.logger.Debug("Using memoised context", "user_id", userID)
			return cached
		}
	}

	result := wellness.NewContext(userID, a.now())

	var (
		mu        sync.Mutex
		g         errgroup.Group
		succeeded int
	)

	for _, src := range a.sources {
		src := src
		g.Go(func() error {
			latest, history, err := a.fetch(ctx, src, userID)

			mu.Lock()
			defer mu.Unlock()

			if latest != nil {
				result.Current[src.Domain()] = latest
			}
			if len(history) > 0 {
				result.History[src.Domain()] = history
			}

			if err != nil {
				result.Failures = append(result.Failures, wellness.SourceFailure{
					Domain: src.Domain(),
					Error:  err.Error(),
				})
				a.logger.Warn("Domain source degraded",
					"user_id", userID,
					"domain", src.Domain(),
					"error", err)
				if latest == nil && history == nil {
					return nil
				}
			}
			succeeded++
			return nil
		})
	}

	// Goroutines never return errors
	_ = g.Wait()

	sortFailures(result.Failures)

	if succeeded == 0 {
		a.logger.Warn("All domain sources failed, using default context",
			"user_id", userID,
			"sources", len(a.sources))
		return defaultContext(userID, result.GeneratedAt, result.Failures)
	}

	a.memo.Set(userID, result)

	a.logger.Debug("Context aggregated",
		"user_id", userID,
		"domains_current", len(result.Current),
		"domains_history", len(result.History),
		"failures", len(result.Failures))

	return result
}

// Invalidate drops the memoised context for a user
func (a *Aggregator) Invalidate(userID string) {
	a.memo.Delete(userID)
}

// fetch reads latest and history for one source under the per-source timeout.
// Partial results are returned alongside the error.
func (a *Aggregator) fetch(ctx context.Context, src Source, userID string) (*wellness.DomainSample, []wellness.DomainSample, error) {
	sctx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	latest, latestErr := callSource(sctx, func(c context.Context) (*wellness.DomainSample, error) {
		return src.Latest(c, userID)
	})
	history, historyErr := callSource(sctx, func(c context.Context) ([]wellness.DomainSample, error) {
		return src.History(c, userID, a.windowDays)
	})

	switch {
	case latestErr != nil && historyErr != nil:
		return nil, nil, fmt.Errorf("%w: %v; %v", wellness.ErrSourceUnavailable, latestErr, historyErr)
	case latestErr != nil:
		return nil, history, fmt.Errorf("%w: latest: %v", wellness.ErrSourceUnavailable, latestErr)
	case historyErr != nil:
		return latest, nil, fmt.Errorf("%w: history: %v", wellness.ErrSourceUnavailable, historyErr)
	}

	if history == nil {
		history = []wellness.DomainSample{}
	}
	return latest, history, nil
}

// callSource runs fn but stops waiting once ctx is done, so a source that
// ignores cancellation cannot block aggregation past its timeout.
func callSource[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// defaultContext is returned when every source failed: empty histories and
// neutral trends for all domains.
func defaultContext(userID string, now time.Time, failures []wellness.SourceFailure) *wellness.Context {
	c := wellness.NewContext(userID, now)
	for _, d := range wellness.AllDomains {
		c.History[d] = []wellness.DomainSample{}
		c.Trends[d] = wellness.TrendResult{Direction: wellness.DirectionStable}
	}
	c.Failures = failures
	c.Degraded = true
	return c
}

func sortFailures(failures []wellness.SourceFailure) {
	order := make(map[wellness.Domain]int, len(wellness.AllDomains))
	for i, d := range wellness.AllDomains {
		order[d] = i
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return order[failures[i].Domain] < order[failures[j].Domain]
	})
}
