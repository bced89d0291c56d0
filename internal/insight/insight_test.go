package insight

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

func categories(insights []wellness.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Category
	}
	return out
}

func TestEvaluate_NoDataReturnsWelcome(t *testing.T) {
	insights := Evaluate(Input{})

	require.Len(t, insights, 1)
	assert.Equal(t, "general", insights[0].Category)
	assert.Equal(t, wellness.PriorityLow, insights[0].Priority)
}

func TestEvaluate_OtherDomainsWithoutSnapshotsGiveNoInsights(t *testing.T) {
	c := wellness.NewContext("u1", time.Now())
	c.Current[wellness.DomainSleep] = &wellness.DomainSample{
		Domain:     wellness.DomainSleep,
		Values:     map[string]float64{wellness.MetricSleepHours: 8},
		Confidence: 1,
	}

	in := InputFromContext(c)

	assert.True(t, in.HasData)
	assert.Empty(t, Evaluate(in))
}

func TestEvaluate_TwoIndependentRulesBothFire(t *testing.T) {
	in := Input{
		Emotion: &EmotionSnapshot{Valence: -0.6, Arousal: 0.2, Dominant: "sad"},
		Skin:    &SkinSnapshot{Overall: 65, Texture: 50, Hydration: 40, Redness: 20, Oiliness: 30},
	}

	insights := Evaluate(in)

	require.Len(t, insights, 2)
	assert.Equal(t, deterministicID("rule", "surface-dryness"), insights[0].ID)
	assert.Equal(t, deterministicID("rule", "negative-mood"), insights[1].ID)
	assert.Contains(t, insights[1].Message, "sad")
}

func TestEvaluate_AllRulesInDeclarationOrder(t *testing.T) {
	in := Input{
		Emotion: &EmotionSnapshot{Valence: -0.5, Arousal: 0.9},
		Skin:    &SkinSnapshot{Overall: 30, Texture: 40, Hydration: 30, Redness: 90, Oiliness: 80},
	}

	insights := Evaluate(in)

	var ids []string
	for _, r := range rules[:6] {
		ids = append(ids, deterministicID("rule", r.id))
	}
	got := make([]string, len(insights))
	for i, ins := range insights {
		got[i] = ins.ID
	}
	assert.Equal(t, ids, got)
}

func TestRules_ConfidenceClearsFilterFloor(t *testing.T) {
	in := Input{
		Emotion: &EmotionSnapshot{Valence: -0.5, Arousal: 0.9, Dominant: "tense"},
		Skin:    &SkinSnapshot{Overall: 30, Texture: 40, Hydration: 30, Redness: 90, Oiliness: 80},
	}

	for _, r := range rules {
		assert.GreaterOrEqual(t, r.build(in).Confidence, ConfidenceFloor, r.id)
	}
}

func TestEvaluate_NothingFiresForHealthyInput(t *testing.T) {
	in := Input{
		Emotion: &EmotionSnapshot{Valence: 0.2, Arousal: 0.3},
		Skin:    &SkinSnapshot{Overall: 70, Texture: 80, Hydration: 70, Redness: 10, Oiliness: 40},
	}
	assert.Empty(t, Evaluate(in))
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := Input{
		Emotion: &EmotionSnapshot{Valence: 0.8, Arousal: 0.7},
		Skin:    &SkinSnapshot{Overall: 80, Texture: 55, Hydration: 45, Redness: 65, Oiliness: 75},
	}

	first, err := json.Marshal(Evaluate(in))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := json.Marshal(Evaluate(in))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestInputFromContext(t *testing.T) {
	c := wellness.NewContext("u1", time.Now())
	assert.Equal(t, Input{}, InputFromContext(c))

	c.Current[wellness.DomainEmotion] = &wellness.DomainSample{
		Domain:     wellness.DomainEmotion,
		Values:     map[string]float64{wellness.MetricValence: 0.4, wellness.MetricArousal: 0.5},
		Labels:     map[string]string{wellness.LabelDominantEmotion: "calm"},
		Confidence: 0.9,
	}

	in := InputFromContext(c)
	assert.True(t, in.HasData)
	require.NotNil(t, in.Emotion)
	assert.Nil(t, in.Skin)
	assert.Equal(t, "calm", in.Emotion.Dominant)
	assert.Equal(t, 0.5, in.Emotion.Arousal)
}

func TestTrendInsights(t *testing.T) {
	trends := map[wellness.Domain]wellness.TrendResult{
		wellness.DomainSleep:    {Metric: "hours", Direction: wellness.DirectionDeclining, Confidence: 0.9, Points: 7},
		wellness.DomainMood:     {Metric: "score", Direction: wellness.DirectionImproving, Confidence: 0.7, Points: 5},
		wellness.DomainActivity: {Metric: "steps", Direction: wellness.DirectionStable, Confidence: 1, Points: 5},
	}

	insights := TrendInsights(trends)

	require.Len(t, insights, 2)
	assert.Equal(t, []string{"mood", "sleep"}, categories(insights))
	assert.Equal(t, wellness.InsightTrend, insights[1].Type)
	assert.Equal(t, wellness.PriorityMedium, insights[1].Priority)
	assert.Equal(t, []string{"sleep.hours"}, insights[1].RelatedMetrics)
}

func TestFilter(t *testing.T) {
	insights := []wellness.Insight{
		{ID: "low", Priority: wellness.PriorityLow, Confidence: 0.9},
		{ID: "weak", Priority: wellness.PriorityHigh, Confidence: 0.5},
		{ID: "health-critical", Category: wellness.CategoryHealth, Priority: wellness.PriorityCritical, Confidence: 0.9},
		{ID: "medium-a", Priority: wellness.PriorityMedium, Confidence: 0.7},
		{ID: "health-medium", Category: wellness.CategoryHealth, Priority: wellness.PriorityMedium, Confidence: 0.7},
		{ID: "high", Priority: wellness.PriorityHigh, Confidence: 0.8},
		{ID: "medium-b", Priority: wellness.PriorityMedium, Confidence: 0.6},
	}

	ids := func(in []wellness.Insight) []string {
		out := make([]string, len(in))
		for i, x := range in {
			out[i] = x.ID
		}
		return out
	}

	got := Filter(insights, FilterOptions{})
	assert.Equal(t, []string{"high", "medium-a", "health-medium", "medium-b", "low"}, ids(got))

	got = Filter(insights, FilterOptions{AllowHealthAlerts: true, MaxCount: 3})
	assert.Equal(t, []string{"health-critical", "high", "medium-a"}, ids(got))

	// Input untouched
	assert.Equal(t, "low", insights[0].ID)
}
