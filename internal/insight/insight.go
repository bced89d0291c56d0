// Package insight derives observations from emotion and skin snapshots using
// a fixed, ordered list of threshold rules.
package insight

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// idNamespace scopes the deterministic insight ids
var idNamespace = uuid.MustParse("6f1c2a9e-4b7d-4e1a-9c55-2d8e7b0f3a61")

// EmotionSnapshot is the emotion reading the rules look at
type EmotionSnapshot struct {
	Dominant   string
	Valence    float64 // -1..1
	Arousal    float64 // 0..1
	Confidence float64
}

// SkinSnapshot is the skin reading the rules look at, all 0..100
type SkinSnapshot struct {
	Overall      float64
	Hydration    float64
	Texture      float64
	Oiliness     float64
	Redness      float64
	Pigmentation float64
}

// Input holds the snapshots a rule can read. Either may be nil.
// HasData records whether any domain at all reported a sample.
type Input struct {
	Emotion *EmotionSnapshot
	Skin    *SkinSnapshot
	HasData bool
}

// InputFromContext builds the rule input from the current samples
func InputFromContext(c *wellness.Context) Input {
	var in Input
	if c == nil {
		return in
	}
	in.HasData = c.HasData()

	if s := c.Current[wellness.DomainEmotion]; s != nil {
		in.Emotion = &EmotionSnapshot{
			Dominant:   s.Labels[wellness.LabelDominantEmotion],
			Valence:    s.Values[wellness.MetricValence],
			Arousal:    s.Values[wellness.MetricArousal],
			Confidence: s.Confidence,
		}
	}

	if s := c.Current[wellness.DomainSkin]; s != nil {
		in.Skin = &SkinSnapshot{
			Overall:      s.Values[wellness.MetricSkinOverall],
			Hydration:    s.Values[wellness.MetricSkinHydration],
			Texture:      s.Values[wellness.MetricSkinTexture],
			Oiliness:     s.Values[wellness.MetricSkinOiliness],
			Redness:      s.Values[wellness.MetricSkinRedness],
			Pigmentation: s.Values[wellness.MetricSkinPigmentation],
		}
	}

	return in
}

// Evaluate runs every rule in declaration order and returns all that fire.
// The welcome insight is returned only when no domain has any data.
func Evaluate(in Input) []wellness.Insight {
	if in.Emotion == nil && in.Skin == nil {
		if in.HasData {
			return nil
		}
		return []wellness.Insight{welcomeInsight()}
	}

	var insights []wellness.Insight
	for _, r := range rules {
		if r.fires(in) {
			insights = append(insights, r.build(in))
		}
	}
	return insights
}

// TrendInsights turns every non-stable trend into a trend insight,
// in domain order.
func TrendInsights(trends map[wellness.Domain]wellness.TrendResult) []wellness.Insight {
	var insights []wellness.Insight

	for _, d := range wellness.AllDomains {
		t, ok := trends[d]
		if !ok || t.Direction == wellness.DirectionStable {
			continue
		}

		priority := wellness.PriorityLow
		suggestions := []string{"Keep doing what is working"}
		if t.Direction == wellness.DirectionDeclining {
			priority = wellness.PriorityMedium
			suggestions = []string{"Look at what changed in your routine recently"}
		}

		insights = append(insights, wellness.Insight{
			ID:             deterministicID("trend", string(d), string(t.Direction)),
			Type:           wellness.InsightTrend,
			Category:       string(d),
			Message:        trendMessage(d, t.Direction, t.Points),
			Confidence:     t.Confidence,
			Priority:       priority,
			RelatedMetrics: []string{string(d) + "." + t.Metric},
			Suggestions:    suggestions,
		})
	}

	return insights
}

func welcomeInsight() wellness.Insight {
	return wellness.Insight{
		ID:             deterministicID("welcome"),
		Type:           wellness.InsightPattern,
		Category:       "general",
		Message:        "Welcome! Log your mood, sleep or a skin check to start receiving personalised insights.",
		Confidence:     1,
		Priority:       wellness.PriorityLow,
		RelatedMetrics: []string{},
		Suggestions:    []string{"Record how you feel today", "Take a quick skin analysis"},
	}
}

func deterministicID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, ":"))).String()
}

func trendMessage(d wellness.Domain, dir wellness.Direction, points int) string {
	return fmt.Sprintf("Your %s has been %s over the last %d readings.", d, dir, points)
}
