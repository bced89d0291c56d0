// Package wellness holds the shared data model of the wellness engine.
package wellness

import (
	"time"
)

// Domain identifies a signal source
type Domain string

const (
	DomainMood      Domain = "mood"
	DomainSleep     Domain = "sleep"
	DomainActivity  Domain = "activity"
	DomainRecovery  Domain = "recovery"
	DomainHydration Domain = "hydration"
	DomainEmotion   Domain = "emotion"
	DomainSkin      Domain = "skin"
)

// AllDomains lists every domain the aggregator fetches, in a fixed order
var AllDomains = []Domain{
	DomainMood,
	DomainSleep,
	DomainActivity,
	DomainRecovery,
	DomainHydration,
	DomainEmotion,
	DomainSkin,
}

// Metric names used inside DomainSample.Values
const (
	MetricMoodScore        = "score"
	MetricSleepHours       = "hours"
	MetricSleepQuality     = "quality"
	MetricSteps            = "steps"
	MetricHRV              = "hrv"
	MetricGlasses          = "glasses"
	MetricValence          = "valence"
	MetricArousal          = "arousal"
	MetricSkinOverall      = "overall_score"
	MetricSkinHydration    = "hydration"
	MetricSkinTexture      = "texture"
	MetricSkinOiliness     = "oiliness"
	MetricSkinRedness      = "redness"
	MetricSkinPigmentation = "pigmentation"

	LabelDominantEmotion = "dominant_emotion"
)

// DomainSample is one reading from a domain source. Owned by the source;
// the engine only reads it.
type DomainSample struct {
	Domain     Domain             `json:"domain"`
	Timestamp  time.Time          `json:"timestamp"`
	Values     map[string]float64 `json:"values"`
	Labels     map[string]string  `json:"labels,omitempty"`
	Confidence float64            `json:"confidence"`
}

// Value returns a metric and whether it was present
func (s *DomainSample) Value(metric string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.Values[metric]
	return v, ok
}

// Direction is a trend classification
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionStable    Direction = "stable"
	DirectionDeclining Direction = "declining"
)

// TrendResult is the outcome of trend analysis for one metric
type TrendResult struct {
	Metric     string    `json:"metric"`
	Direction  Direction `json:"direction"`
	Slope      float64   `json:"slope"`
	Confidence float64   `json:"confidence"`
	Points     int       `json:"points"`
}

// SourceFailure records a domain fetch that degraded the context
type SourceFailure struct {
	Domain Domain `json:"domain"`
	Error  string `json:"error"`
}

// Context is the per-invocation aggregate of a user's signals
type Context struct {
	UserID      string                    `json:"user_id"`
	Current     map[Domain]*DomainSample  `json:"current"`
	History     map[Domain][]DomainSample `json:"history"`
	Trends      map[Domain]TrendResult    `json:"trends"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Failures    []SourceFailure           `json:"failures,omitempty"`
	Degraded    bool                      `json:"degraded"`
}

// NewContext returns an empty context with initialised maps
func NewContext(userID string, now time.Time) *Context {
	return &Context{
		UserID:      userID,
		Current:     make(map[Domain]*DomainSample),
		History:     make(map[Domain][]DomainSample),
		Trends:      make(map[Domain]TrendResult),
		GeneratedAt: now,
	}
}

// HasData reports whether any domain produced a current sample or history
func (c *Context) HasData() bool {
	for _, s := range c.Current {
		if s != nil {
			return true
		}
	}
	for _, h := range c.History {
		if len(h) > 0 {
			return true
		}
	}
	return false
}

// InsightType classifies an insight
type InsightType string

const (
	InsightCorrelation InsightType = "correlation"
	InsightPattern     InsightType = "pattern"
	InsightAnomaly     InsightType = "anomaly"
	InsightTrend       InsightType = "trend"
)

// Priority is shared by insights and recommendations
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities, higher is more urgent. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// CategoryHealth marks insights that look like medical alerts
const CategoryHealth = "health"

// Insight is a rule-derived observation. Never mutated after creation.
type Insight struct {
	ID             string      `json:"id"`
	Type           InsightType `json:"type"`
	Category       string      `json:"category"`
	Message        string      `json:"message"`
	Confidence     float64     `json:"confidence"`
	Priority       Priority    `json:"priority"`
	RelatedMetrics []string    `json:"related_metrics"`
	Suggestions    []string    `json:"suggestions"`
}

// Recommendation sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Recommendation categories
const (
	CategoryMindfulness     = "mindfulness"
	CategoryRecovery        = "recovery"
	CategoryMovement        = "movement"
	CategoryStressReduction = "stress-reduction"
	CategoryHydration       = "hydration"
	CategoryMaintenance     = "maintenance"
	CategoryNutrition       = "nutrition"
	CategorySkincare        = "skincare"
)

// ValidCategory reports whether c is a known recommendation category
func ValidCategory(c string) bool {
	switch c {
	case CategoryMindfulness, CategoryRecovery, CategoryMovement, CategoryStressReduction,
		CategoryHydration, CategoryMaintenance, CategoryNutrition, CategorySkincare:
		return true
	}
	return false
}

// MaxRecommendations bounds every recommendation list
const MaxRecommendations = 4

// Recommendation is the canonical shape for both generated and fallback advice
type Recommendation struct {
	ID               string   `json:"id"`
	Priority         Priority `json:"priority"`
	Category         string   `json:"category"`
	Action           string   `json:"action"`
	Reason           string   `json:"reason"`
	EstimatedTime    string   `json:"estimated_time,omitempty"`
	Correlations     []string `json:"correlations"`
	ExpectedBenefits []string `json:"expected_benefits"`
	Source           string   `json:"source"`
}

// Summary is the qualitative reading of the day
type Summary struct {
	Focus    string `json:"focus"`
	Energy   string `json:"energy"`
	Recovery string `json:"recovery"`
	Mood     string `json:"mood"`
}

// Inputs are the current-day values the score is computed from
type Inputs struct {
	Mood         float64 `json:"mood"`
	SleepHours   float64 `json:"sleep_hours"`
	SleepQuality float64 `json:"sleep_quality"`
	Steps        float64 `json:"steps"`
	Recovery     float64 `json:"recovery"`
	Hydration    float64 `json:"hydration"`
}

// DefaultInputs are used for any domain without a current sample.
// They sit at the thresholds so no corrective rule fires on missing data.
func DefaultInputs() Inputs {
	return Inputs{
		Mood:         3,
		SleepHours:   7,
		SleepQuality: 70,
		Steps:        5000,
		Recovery:     30,
		Hydration:    6,
	}
}

// InputsFromContext reads the current samples, filling gaps with defaults
func InputsFromContext(c *Context) Inputs {
	in := DefaultInputs()
	if c == nil {
		return in
	}
	read := func(d Domain, metric string, dst *float64) {
		if v, ok := c.Current[d].Value(metric); ok {
			*dst = v
		}
	}
	read(DomainMood, MetricMoodScore, &in.Mood)
	read(DomainSleep, MetricSleepHours, &in.SleepHours)
	read(DomainSleep, MetricSleepQuality, &in.SleepQuality)
	read(DomainActivity, MetricSteps, &in.Steps)
	read(DomainRecovery, MetricHRV, &in.Recovery)
	read(DomainHydration, MetricGlasses, &in.Hydration)
	return in
}

// Metrics is the snapshot stored alongside a daily result
type Metrics struct {
	Inputs      Inputs                 `json:"inputs"`
	Trends      map[Domain]TrendResult `json:"trends,omitempty"`
	Insights    []Insight              `json:"insights,omitempty"`
	Degraded    bool                   `json:"degraded"`
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// DailyResult is the engine output for one user on one day.
// It is always replaced as a whole.
type DailyResult struct {
	UserID          string           `json:"user_id"`
	Date            string           `json:"date"` // YYYY-MM-DD in the configured timezone
	OverallScore    int              `json:"overall_score"`
	Summary         Summary          `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Metrics         Metrics          `json:"metrics"`
}

// DateLayout formats DailyResult.Date
const DateLayout = "2006-01-02"
