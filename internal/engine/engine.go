// Package engine wires the wellness pipeline behind a per-user, per-day
// read-through cache backed by persistent storage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saaga0h/wellness-engine/internal/cache"
	"github.com/saaga0h/wellness-engine/internal/insight"
	"github.com/saaga0h/wellness-engine/internal/recommend"
	"github.com/saaga0h/wellness-engine/internal/score"
	"github.com/saaga0h/wellness-engine/internal/storage"
	"github.com/saaga0h/wellness-engine/internal/trend"
	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Default and maximum number of days returned by GetHistory
const (
	DefaultHistoryLimit = 7
	MaxHistoryLimit     = 90
)

// ContextProvider builds the signal context for a user
type ContextProvider interface {
	Aggregate(ctx context.Context, userID string, forceRefresh bool) *wellness.Context
	Invalidate(userID string)
}

// RecommendationSource produces generated recommendations
type RecommendationSource interface {
	Request(ctx context.Context, in recommend.PromptInput) ([]wellness.Recommendation, error)
}

// Notifier is told about every freshly computed result
type Notifier interface {
	PublishResult(ctx context.Context, result wellness.DailyResult) error
}

// ProfileSource resolves personalisation details for a user
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (recommend.Profile, error)
}

// Options tunes the engine
type Options struct {
	Locale            string
	Location          *time.Location
	Latitude          float64
	Longitude         float64
	ResultTTL         time.Duration
	MaxInsights       int
	AllowHealthAlerts bool
	Clock             func() time.Time
}

// Engine computes and serves daily results. Create one per process and share it.
type Engine struct {
	signals   ContextProvider
	requester RecommendationSource
	store     storage.Gateway
	notifier  Notifier
	profiles  ProfileSource
	results   *cache.Cache[string, wellness.DailyResult]
	opts      Options
	logger    *slog.Logger
}

// New creates an engine. requester, notifier and profiles may be nil: without
// a requester every result uses the fallback generator.
func New(
	signals ContextProvider,
	requester RecommendationSource,
	store storage.Gateway,
	notifier Notifier,
	profiles ProfileSource,
	opts Options,
	logger *slog.Logger,
) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Engine{
		signals:   signals,
		requester: requester,
		store:     store,
		notifier:  notifier,
		profiles:  profiles,
		results:   cache.New[string, wellness.DailyResult](opts.ResultTTL).WithClock(opts.Clock),
		opts:      opts,
		logger:    logger,
	}
}

func cacheKey(userID, date string) string {
	return userID + "|" + date
}

// Today returns the current date in the engine's timezone
func (e *Engine) Today() string {
	return e.opts.Clock().In(e.opts.Location).Format(wellness.DateLayout)
}

// ComputeOrGet returns today's result for a user. A cached or stored result is
// returned as is; otherwise the pipeline runs once and its result is stored.
// forceRefresh skips both lookups and overwrites the stored result.
// It never fails: every error resolves to a degraded but complete result.
func (e *Engine) ComputeOrGet(ctx context.Context, userID string, forceRefresh bool) (result wellness.DailyResult) {
	now := e.opts.Clock().In(e.opts.Location)
	date := now.Format(wellness.DateLayout)
	key := cacheKey(userID, date)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Pipeline panicked, serving default result",
				"user_id", userID,
				"panic", fmt.Sprint(r))
			result = e.defaultResult(userID, date, now)
		}
	}()

	if !forceRefresh {
		if cached, ok := e.results.Get(key); ok {
			e.logger.Debug("Serving result from memory", "user_id", userID, "date", date)
			return cached
		}

		stored, err := e.store.Get(ctx, userID, date)
		switch {
		case err == nil:
			e.logger.Debug("Serving stored result", "user_id", userID, "date", date)
			e.results.Set(key, *stored)
			return *stored
		case errors.Is(err, wellness.ErrNotFound):
		default:
			e.logger.Warn("Failed to read stored result, recomputing",
				"user_id", userID,
				"date", date,
				"error", err)
		}
	}

	// The result becomes the user's result for the whole day, so a caller
	// that goes away must not leave a degraded one behind. Source and model
	// calls keep their own timeouts.
	work := context.WithoutCancel(ctx)

	result = e.compute(work, userID, date, now, forceRefresh)

	if err := e.store.Upsert(work, result); err != nil {
		// Served from memory; the next miss writes again
		e.logger.Error("Failed to persist daily result",
			"user_id", userID,
			"date", date,
			"error", err)
	}
	e.results.Set(key, result)

	if e.notifier != nil {
		if err := e.notifier.PublishResult(work, result); err != nil {
			e.logger.Warn("Failed to publish daily result", "user_id", userID, "error", err)
		}
	}

	e.logger.Info("Daily result computed",
		"user_id", userID,
		"date", date,
		"score", result.OverallScore,
		"focus", result.Summary.Focus,
		"source", result.Metrics.Source,
		"degraded", result.Metrics.Degraded,
		"forced", forceRefresh)

	return result
}

func (e *Engine) compute(ctx context.Context, userID, date string, now time.Time, forceRefresh bool) wellness.DailyResult {
	sig := e.signals.Aggregate(ctx, userID, forceRefresh)

	var (
		trends   map[wellness.Domain]wellness.TrendResult
		insights []wellness.Insight
		g        errgroup.Group
	)
	g.Go(func() error {
		trends = trend.AnalyzeContext(sig)
		return nil
	})
	g.Go(func() error {
		insights = insight.Evaluate(insight.InputFromContext(sig))
		return nil
	})
	_ = g.Wait()

	// The aggregator may hand out a memoised context; trends go on a copy
	view := *sig
	view.Trends = trends
	sig = &view

	insights = append(insights, insight.TrendInsights(sig.Trends)...)
	insights = insight.Filter(insights, insight.FilterOptions{
		MaxCount:          e.opts.MaxInsights,
		AllowHealthAlerts: e.opts.AllowHealthAlerts,
	})

	inputs := wellness.InputsFromContext(sig)
	overall := score.Synthesize(inputs)
	summary := score.Summarize(inputs)

	recs, source := e.recommend(ctx, recommend.PromptInput{
		Profile:  e.profile(ctx, userID),
		Date:     date,
		Locale:   e.opts.Locale,
		Inputs:   inputs,
		Score:    overall,
		Summary:  summary,
		Insights: insights,
		Trends:   sig.Trends,
		Daylight: recommend.CalculateDaylight(now, e.opts.Latitude, e.opts.Longitude),
	})

	return wellness.DailyResult{
		UserID:          userID,
		Date:            date,
		OverallScore:    overall,
		Summary:         summary,
		Recommendations: recs,
		Metrics: wellness.Metrics{
			Inputs:      inputs,
			Trends:      sig.Trends,
			Insights:    insights,
			Degraded:    sig.Degraded,
			Source:      source,
			GeneratedAt: now,
		},
	}
}

func (e *Engine) recommend(ctx context.Context, in recommend.PromptInput) ([]wellness.Recommendation, string) {
	if e.requester != nil {
		recs, err := e.requester.Request(ctx, in)
		if err == nil && len(recs) > 0 {
			return recs, wellness.SourceAI
		}
		e.logger.Warn("Using fallback recommendations", "error", err)
	}
	return recommend.Fallback(in.Inputs, in.Locale), wellness.SourceFallback
}

func (e *Engine) profile(ctx context.Context, userID string) recommend.Profile {
	if e.profiles == nil {
		return recommend.Profile{}
	}
	p, err := e.profiles.Profile(ctx, userID)
	if err != nil {
		e.logger.Warn("Profile lookup failed", "user_id", userID, "error", err)
		return recommend.Profile{}
	}
	return p
}

func (e *Engine) defaultResult(userID, date string, now time.Time) wellness.DailyResult {
	inputs := wellness.DefaultInputs()
	return wellness.DailyResult{
		UserID:          userID,
		Date:            date,
		OverallScore:    score.Synthesize(inputs),
		Summary:         score.Summarize(inputs),
		Recommendations: recommend.Fallback(inputs, e.opts.Locale),
		Metrics: wellness.Metrics{
			Inputs:      inputs,
			Degraded:    true,
			Source:      wellness.SourceFallback,
			GeneratedAt: now,
		},
	}
}

// GetHistory returns up to limit stored results for a user, newest first
func (e *Engine) GetHistory(ctx context.Context, userID string, limit int) ([]wellness.DailyResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	results, err := e.store.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}
	if results == nil {
		results = []wellness.DailyResult{}
	}
	return results, nil
}

// Invalidate drops every in-memory entry for a user, including the memoised
// signal context. Stored results are left untouched.
func (e *Engine) Invalidate(userID string) int {
	prefix := userID + "|"
	removed := e.results.DeleteFunc(func(k string) bool {
		return strings.HasPrefix(k, prefix)
	})
	e.signals.Invalidate(userID)
	return removed
}

// InvalidateAll drops every in-memory result
func (e *Engine) InvalidateAll() {
	e.results.Clear()
}

// CleanupExpired drops expired in-memory results and returns how many were removed
func (e *Engine) CleanupExpired() int {
	return e.results.CleanupExpired()
}
