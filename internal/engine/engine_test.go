package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/wellness-engine/internal/recommend"
	"github.com/saaga0h/wellness-engine/internal/signals"
	"github.com/saaga0h/wellness-engine/internal/storage"
	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/llm"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

const aiResponse = `{"recommendations":[
	{"id":"walk","priority":"medium","category":"movement","action":"Take a short walk","reason":"Steps are low"},
	{"id":"breathe","priority":"high","category":"mindfulness","action":"Breathe slowly for five minutes","reason":"Mood is low"}
]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSignals serves a fixed context and counts calls
type fakeSignals struct {
	mu          sync.Mutex
	ctx         *wellness.Context
	calls       int
	invalidated []string
}

func (f *fakeSignals) Aggregate(ctx context.Context, userID string, forceRefresh bool) *wellness.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	c := *f.ctx
	c.UserID = userID
	return &c
}

func (f *fakeSignals) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

func (f *fakeSignals) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingNotifier captures published results
type recordingNotifier struct {
	mu      sync.Mutex
	results []wellness.DailyResult
}

func (n *recordingNotifier) PublishResult(ctx context.Context, r wellness.DailyResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
	return nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func signalContext(values map[wellness.Domain]map[string]float64) *wellness.Context {
	c := wellness.NewContext("", fixedNow)
	for d, v := range values {
		c.Current[d] = &wellness.DomainSample{
			Domain:     d,
			Timestamp:  fixedNow.Add(-time.Hour),
			Values:     v,
			Confidence: 1,
		}
	}
	return c
}

func lowContext() *wellness.Context {
	return signalContext(map[wellness.Domain]map[string]float64{
		wellness.DomainMood:      {wellness.MetricMoodScore: 1},
		wellness.DomainSleep:     {wellness.MetricSleepHours: 4, wellness.MetricSleepQuality: 30},
		wellness.DomainActivity:  {wellness.MetricSteps: 1000},
		wellness.DomainRecovery:  {wellness.MetricHRV: 10},
		wellness.DomainHydration: {wellness.MetricGlasses: 2},
	})
}

func healthyContext() *wellness.Context {
	return signalContext(map[wellness.Domain]map[string]float64{
		wellness.DomainMood:      {wellness.MetricMoodScore: 5},
		wellness.DomainSleep:     {wellness.MetricSleepHours: 8, wellness.MetricSleepQuality: 95},
		wellness.DomainActivity:  {wellness.MetricSteps: 12000},
		wellness.DomainRecovery:  {wellness.MetricHRV: 55},
		wellness.DomainHydration: {wellness.MetricGlasses: 8},
	})
}

type fixture struct {
	engine   *Engine
	signals  *fakeSignals
	store    *storage.MemoryGateway
	llm      *llm.MockClient
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T, sig *wellness.Context, mock *llm.MockClient) *fixture {
	t.Helper()

	f := &fixture{
		signals:  &fakeSignals{ctx: sig},
		store:    storage.NewMemoryGateway(),
		llm:      mock,
		notifier: &recordingNotifier{},
		now:      fixedNow,
	}

	var requester RecommendationSource
	if mock != nil {
		requester = recommend.NewRequester(mock, recommend.RequesterConfig{
			Model:       "test",
			Timeout:     time.Second,
			MaxRetries:  0,
			BaseBackoff: time.Millisecond,
		}, testLogger())
	}

	f.engine = New(f.signals, requester, f.store, f.notifier, nil, Options{
		Locale:      recommend.LocaleEnglish,
		Location:    time.UTC,
		Latitude:    45.46,
		Longitude:   9.19,
		ResultTTL:   30 * time.Minute,
		MaxInsights: 5,
		Clock:       func() time.Time { return f.now },
	}, testLogger())

	return f
}

func TestComputeOrGet_IdempotentWithinDay(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	ctx := context.Background()

	first := f.engine.ComputeOrGet(ctx, "u1", false)
	second := f.engine.ComputeOrGet(ctx, "u1", false)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.llm.Calls(), "second call must not reach the model")
	assert.Equal(t, 1, f.signals.Calls())
	assert.Equal(t, 1, f.store.Upserts())
	assert.Equal(t, wellness.SourceAI, first.Metrics.Source)
	assert.Equal(t, "2026-03-14", first.Date)
	require.Len(t, first.Recommendations, 2)
	assert.Equal(t, "breathe", first.Recommendations[0].ID)
}

func TestComputeOrGet_ForceRefreshRecomputes(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	ctx := context.Background()

	f.engine.ComputeOrGet(ctx, "u1", false)
	f.engine.ComputeOrGet(ctx, "u1", true)

	assert.Equal(t, 2, f.llm.Calls())
	assert.Equal(t, 2, f.store.Upserts())
	assert.Len(t, f.notifier.results, 2)
}

func TestComputeOrGet_NewDayRecomputes(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	ctx := context.Background()

	first := f.engine.ComputeOrGet(ctx, "u1", false)
	f.now = fixedNow.Add(24 * time.Hour)
	second := f.engine.ComputeOrGet(ctx, "u1", false)

	assert.Equal(t, "2026-03-15", second.Date)
	assert.NotEqual(t, first.Date, second.Date)
	assert.Equal(t, 2, f.llm.Calls())
}

func TestComputeOrGet_StoredResultBypassesPipeline(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	ctx := context.Background()

	stored := wellness.DailyResult{
		UserID:       "u1",
		Date:         "2026-03-14",
		OverallScore: 77,
		Summary:      wellness.Summary{Focus: "movement"},
		Recommendations: []wellness.Recommendation{
			{ID: "x", Priority: wellness.PriorityLow, Category: "movement", Action: "Walk", Source: wellness.SourceAI},
		},
		Metrics: wellness.Metrics{Inputs: wellness.DefaultInputs(), Source: wellness.SourceAI},
	}
	require.NoError(t, f.store.Upsert(ctx, stored))

	got := f.engine.ComputeOrGet(ctx, "u1", false)

	assert.Equal(t, 77, got.OverallScore)
	assert.Equal(t, "x", got.Recommendations[0].ID)
	assert.Equal(t, 0, f.llm.Calls())
	assert.Equal(t, 0, f.signals.Calls())
	assert.Empty(t, f.notifier.results)
}

func TestComputeOrGet_ModelFailureFallsBack(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, &llm.StatusError{StatusCode: 400, Body: "bad"}
		},
	}
	f := newFixture(t, lowContext(), mock)

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	assert.Equal(t, wellness.SourceFallback, got.Metrics.Source)
	require.NotEmpty(t, got.Recommendations)
	assert.LessOrEqual(t, len(got.Recommendations), wellness.MaxRecommendations)
	assert.Equal(t, "mindfulness", got.Recommendations[0].Category)
}

func TestComputeOrGet_HealthySignalsWithoutModel(t *testing.T) {
	f := newFixture(t, healthyContext(), nil)

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	assert.Equal(t, 100, got.OverallScore)
	assert.Equal(t, wellness.SourceFallback, got.Metrics.Source)
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "maintenance", got.Recommendations[0].Category)
}

func TestComputeOrGet_PersistenceFailureStillServes(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	f.store.UpsertErr = errors.New("disk full")
	ctx := context.Background()

	first := f.engine.ComputeOrGet(ctx, "u1", false)
	second := f.engine.ComputeOrGet(ctx, "u1", false)

	assert.NotEmpty(t, first.Recommendations)
	assert.Equal(t, first, second, "served from memory after a failed write")
	assert.Equal(t, 1, f.llm.Calls())
}

func TestComputeOrGet_StoreReadFailureRecomputes(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	f.store.GetErr = errors.New("connection reset")

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	assert.Equal(t, wellness.SourceAI, got.Metrics.Source)
	assert.Equal(t, 1, f.llm.Calls())
}

func TestComputeOrGet_DegradedContextStillProducesResult(t *testing.T) {
	degraded := wellness.NewContext("", fixedNow)
	degraded.Degraded = true
	f := newFixture(t, degraded, nil)

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	assert.True(t, got.Metrics.Degraded)
	assert.Equal(t, wellness.DefaultInputs(), got.Metrics.Inputs)
	assert.NotEmpty(t, got.Recommendations)
	require.NotEmpty(t, got.Metrics.Insights)
}

func TestComputeOrGet_DoesNotMutateSharedContext(t *testing.T) {
	sig := lowContext()
	f := newFixture(t, sig, nil)

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	assert.Empty(t, sig.Trends)
	assert.Len(t, got.Metrics.Trends, len(wellness.AllDomains))
}

func TestComputeOrGet_TrendsFromHistory(t *testing.T) {
	sig := lowContext()
	for i, v := range []float64{1, 2, 3, 4, 5} {
		sig.History[wellness.DomainMood] = append(sig.History[wellness.DomainMood], wellness.DomainSample{
			Domain:     wellness.DomainMood,
			Timestamp:  fixedNow.Add(time.Duration(i-5) * 24 * time.Hour),
			Values:     map[string]float64{wellness.MetricMoodScore: v},
			Confidence: 1,
		})
	}
	f := newFixture(t, sig, nil)

	got := f.engine.ComputeOrGet(context.Background(), "u1", false)

	mood := got.Metrics.Trends[wellness.DomainMood]
	assert.Equal(t, wellness.DirectionImproving, mood.Direction)
	assert.Equal(t, 5, mood.Points)
	assert.Equal(t, wellness.DirectionStable, got.Metrics.Trends[wellness.DomainSleep].Direction)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t, lowContext(), llm.RespondWith(aiResponse))
	ctx := context.Background()

	f.engine.ComputeOrGet(ctx, "u1", false)
	f.engine.ComputeOrGet(ctx, "u2", false)

	assert.Equal(t, 1, f.engine.Invalidate("u1"))
	assert.Equal(t, []string{"u1"}, f.signals.invalidated)

	// Still served from the store, not recomputed
	f.engine.ComputeOrGet(ctx, "u1", false)
	assert.Equal(t, 2, f.llm.Calls())

	f.engine.InvalidateAll()
	assert.Equal(t, 0, f.engine.results.Len())
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t, lowContext(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.now = fixedNow.Add(time.Duration(i) * 24 * time.Hour)
		f.engine.ComputeOrGet(ctx, "u1", false)
	}

	history, err := f.engine.GetHistory(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-03-16", history[0].Date)
	assert.Equal(t, "2026-03-15", history[1].Date)

	empty, err := f.engine.GetHistory(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestToday_UsesConfiguredTimezone(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("timezone data unavailable")
	}

	late := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	e := New(&fakeSignals{ctx: lowContext()}, nil, storage.NewMemoryGateway(), nil, nil, Options{
		Location: rome,
		Clock:    func() time.Time { return late },
	}, testLogger())

	assert.Equal(t, "2026-03-15", e.Today())
}

// staticSource serves one sample and honours cancellation like a real store
type staticSource struct {
	domain wellness.Domain
	values map[string]float64
}

func (s staticSource) Domain() wellness.Domain { return s.domain }

func (s staticSource) Latest(ctx context.Context, userID string) (*wellness.DomainSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &wellness.DomainSample{
		Domain:     s.domain,
		Timestamp:  fixedNow.Add(-time.Hour),
		Values:     s.values,
		Confidence: 1,
	}, nil
}

func (s staticSource) History(ctx context.Context, userID string, windowDays int) ([]wellness.DomainSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestComputeOrGet_CancelledCallerDoesNotPinDegradedResult(t *testing.T) {
	var sources []signals.Source
	for d, v := range healthyContext().Current {
		sources = append(sources, staticSource{domain: d, values: v.Values})
	}
	aggregator := signals.NewAggregator(sources, signals.AggregatorConfig{
		WindowDays:    30,
		SourceTimeout: time.Second,
		MemoTTL:       time.Minute,
	}, testLogger())

	store := storage.NewMemoryGateway()
	e := New(aggregator, nil, store, nil, nil, Options{
		Locale:    recommend.LocaleEnglish,
		Location:  time.UTC,
		ResultTTL: 30 * time.Minute,
		Clock:     func() time.Time { return fixedNow },
	}, testLogger())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	first := e.ComputeOrGet(cancelled, "u1", false)
	assert.False(t, first.Metrics.Degraded)
	assert.Equal(t, 100, first.OverallScore)

	second := e.ComputeOrGet(context.Background(), "u1", false)
	assert.False(t, second.Metrics.Degraded)
	assert.Equal(t, 100, second.OverallScore)

	stored, err := store.Get(context.Background(), "u1", "2026-03-14")
	require.NoError(t, err)
	assert.False(t, stored.Metrics.Degraded)
}

type failingProfiles struct{}

func (failingProfiles) Profile(ctx context.Context, userID string) (recommend.Profile, error) {
	return recommend.Profile{}, errors.New("profile backend down")
}

func newProfileEngine(t *testing.T, profiles ProfileSource, prompts *[]string) *Engine {
	t.Helper()

	var mu sync.Mutex
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			mu.Lock()
			*prompts = append(*prompts, req.Prompt)
			mu.Unlock()
			return &llm.GenerateResponse{Model: req.Model, Response: aiResponse, Done: true}, nil
		},
	}
	requester := recommend.NewRequester(mock, recommend.RequesterConfig{
		Model:       "test",
		Timeout:     time.Second,
		BaseBackoff: time.Millisecond,
	}, testLogger())

	return New(&fakeSignals{ctx: lowContext()}, requester, storage.NewMemoryGateway(), nil, profiles, Options{
		Locale:   recommend.LocaleEnglish,
		Location: time.UTC,
		Clock:    func() time.Time { return fixedNow },
	}, testLogger())
}

func TestComputeOrGet_DisplayNameReachesPrompt(t *testing.T) {
	client := redis.NewMemoryClient()
	profiles := signals.NewProfileStore(client)
	require.NoError(t, profiles.Save(context.Background(), "u1", signals.ProfileMessage{FirstName: "Ada"}))

	var prompts []string
	e := newProfileEngine(t, profiles, &prompts)

	got := e.ComputeOrGet(context.Background(), "u1", false)

	assert.Equal(t, wellness.SourceAI, got.Metrics.Source)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "The user's name is Ada.")
}

func TestComputeOrGet_ProfileFailureStillPrompts(t *testing.T) {
	var prompts []string
	e := newProfileEngine(t, failingProfiles{}, &prompts)

	got := e.ComputeOrGet(context.Background(), "u1", false)

	assert.Equal(t, wellness.SourceAI, got.Metrics.Source)
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "The user's name is")
}
