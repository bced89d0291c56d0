package insight

import (
	"fmt"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// rule is one threshold predicate and the insight it produces
type rule struct {
	id    string
	fires func(Input) bool
	build func(Input) wellness.Insight
}

// rules run in this order; every matching rule fires
var rules = []rule{
	{
		id: "surface-dryness",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Skin.Texture < 60 && in.Skin.Hydration < 50
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "surface-dryness"),
				Type:           wellness.InsightCorrelation,
				Category:       wellness.CategorySkincare,
				Message:        fmt.Sprintf("Rough texture (%.0f) together with low skin hydration (%.0f) points to surface dryness.", in.Skin.Texture, in.Skin.Hydration),
				Confidence:     0.8,
				Priority:       wellness.PriorityMedium,
				RelatedMetrics: []string{"skin.texture", "skin.hydration"},
				Suggestions:    []string{"Drink a glass of water now and keep a bottle nearby", "Use a gentle moisturiser after washing"},
			}
		},
	},
	{
		id: "stress-skin",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Emotion != nil && in.Skin.Redness > 60 && in.Emotion.Arousal > 0.6
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "stress-skin"),
				Type:           wellness.InsightCorrelation,
				Category:       "stress",
				Message:        fmt.Sprintf("Skin redness (%.0f) is elevated while emotional arousal is high (%.2f); stress may be showing on your skin.", in.Skin.Redness, in.Emotion.Arousal),
				Confidence:     0.75,
				Priority:       wellness.PriorityHigh,
				RelatedMetrics: []string{"skin.redness", "emotion.arousal"},
				Suggestions:    []string{"Try five minutes of slow breathing", "Avoid hot water and harsh products today"},
			}
		},
	},
	{
		id: "negative-mood",
		fires: func(in Input) bool {
			return in.Emotion != nil && in.Emotion.Valence < -0.3
		},
		build: func(in Input) wellness.Insight {
			msg := fmt.Sprintf("Your emotional tone is on the negative side (valence %.2f).", in.Emotion.Valence)
			if in.Emotion.Dominant != "" {
				msg = fmt.Sprintf("Your emotional tone is on the negative side (valence %.2f), mostly %s.", in.Emotion.Valence, in.Emotion.Dominant)
			}
			return wellness.Insight{
				ID:             deterministicID("rule", "negative-mood"),
				Type:           wellness.InsightPattern,
				Category:       "mood",
				Message:        msg,
				Confidence:     0.7,
				Priority:       wellness.PriorityMedium,
				RelatedMetrics: []string{"emotion.valence"},
				Suggestions:    []string{"Take a short walk outside", "Reach out to someone you trust"},
			}
		},
	},
	{
		id: "oiliness-stress",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Emotion != nil && in.Skin.Oiliness > 70 && in.Emotion.Arousal > 0.5
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "oiliness-stress"),
				Type:           wellness.InsightCorrelation,
				Category:       wellness.CategorySkincare,
				Message:        fmt.Sprintf("Higher oiliness (%.0f) tends to appear on tense days.", in.Skin.Oiliness),
				Confidence:     0.65,
				Priority:       wellness.PriorityLow,
				RelatedMetrics: []string{"skin.oiliness", "emotion.arousal"},
				Suggestions:    []string{"Use a light, non-comedogenic cleanser"},
			}
		},
	},
	{
		id: "low-skin-score",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Skin.Overall < 40
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "low-skin-score"),
				Type:           wellness.InsightAnomaly,
				Category:       wellness.CategoryHealth,
				Message:        fmt.Sprintf("Your overall skin score (%.0f) is unusually low.", in.Skin.Overall),
				Confidence:     0.65,
				Priority:       wellness.PriorityHigh,
				RelatedMetrics: []string{"skin.overall_score"},
				Suggestions:    []string{"If it persists, consider talking to a dermatologist"},
			}
		},
	},
	{
		id: "severe-redness",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Skin.Redness > 85
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "severe-redness"),
				Type:           wellness.InsightAnomaly,
				Category:       wellness.CategoryHealth,
				Message:        fmt.Sprintf("Skin redness is very high (%.0f).", in.Skin.Redness),
				Confidence:     0.7,
				Priority:       wellness.PriorityCritical,
				RelatedMetrics: []string{"skin.redness"},
				Suggestions:    []string{"If redness comes with pain or swelling, seek professional advice"},
			}
		},
	},
	{
		id: "positive-balance",
		fires: func(in Input) bool {
			return in.Skin != nil && in.Emotion != nil && in.Emotion.Valence > 0.5 && in.Skin.Overall >= 75
		},
		build: func(in Input) wellness.Insight {
			return wellness.Insight{
				ID:             deterministicID("rule", "positive-balance"),
				Type:           wellness.InsightPattern,
				Category:       "wellbeing",
				Message:        "Positive mood and healthy skin today, your routine is paying off.",
				Confidence:     0.8,
				Priority:       wellness.PriorityLow,
				RelatedMetrics: []string{"emotion.valence", "skin.overall_score"},
				Suggestions:    []string{"Keep your current routine"},
			}
		},
	},
}
