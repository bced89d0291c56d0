package recommend

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Fallback thresholds
const (
	lowMoodMax       = 2
	minSleepHours    = 7
	minSteps         = 5000
	minRecovery      = 30
	minHydration     = 6
	fallbackIDPrefix = "fallback"
)

type fallbackText struct {
	action   string
	reason   string
	benefits []string
}

// fallbackRule fires on one metric and points to a catalogue activity
type fallbackRule struct {
	key          string
	category     string
	priority     wellness.Priority
	activity     string
	correlations []string
	fires        func(wellness.Inputs) bool
	text         map[string]func(wellness.Inputs) fallbackText
}

// fallbackRules are evaluated in this order
var fallbackRules = []fallbackRule{
	{
		key:          "mindfulness",
		category:     wellness.CategoryMindfulness,
		priority:     wellness.PriorityHigh,
		activity:     ActivityBreathing,
		correlations: []string{"mood"},
		fires:        func(in wellness.Inputs) bool { return in.Mood <= lowMoodMax },
		text: map[string]func(wellness.Inputs) fallbackText{
			LocaleEnglish: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Take five minutes for slow, deep breathing",
					reason:   fmt.Sprintf("Your mood is low today (%.0f/5). A short breathing pause helps settle the mind.", in.Mood),
					benefits: []string{"Calmer mind", "Lower tension"},
				}
			},
			LocaleItalian: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Prenditi cinque minuti per respirare lentamente e in profondità",
					reason:   fmt.Sprintf("Oggi il tuo umore è basso (%.0f/5). Una breve pausa di respirazione aiuta a calmare la mente.", in.Mood),
					benefits: []string{"Mente più calma", "Meno tensione"},
				}
			},
		},
	},
	{
		key:          "recovery",
		category:     wellness.CategoryRecovery,
		priority:     wellness.PriorityHigh,
		activity:     ActivityStretching,
		correlations: []string{"sleep.hours"},
		fires:        func(in wellness.Inputs) bool { return in.SleepHours < minSleepHours },
		text: map[string]func(wellness.Inputs) fallbackText{
			LocaleEnglish: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Do some gentle stretching and aim to be in bed 30 minutes earlier tonight",
					reason:   fmt.Sprintf("You slept %.1f hours, below the 7 hours your body needs to recover.", in.SleepHours),
					benefits: []string{"Better recovery", "More energy tomorrow"},
				}
			},
			LocaleItalian: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Fai un po' di stretching leggero e cerca di andare a letto 30 minuti prima stasera",
					reason:   fmt.Sprintf("Hai dormito %.1f ore, meno delle 7 ore necessarie per recuperare.", in.SleepHours),
					benefits: []string{"Recupero migliore", "Più energia domani"},
				}
			},
		},
	},
	{
		key:          "movement",
		category:     wellness.CategoryMovement,
		priority:     wellness.PriorityMedium,
		activity:     ActivityWalk,
		correlations: []string{"activity.steps"},
		fires:        func(in wellness.Inputs) bool { return in.Steps < minSteps },
		text: map[string]func(wellness.Inputs) fallbackText{
			LocaleEnglish: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Take a 15 minute walk",
					reason:   fmt.Sprintf("You have %.0f steps so far, a short walk gets you closer to an active day.", in.Steps),
					benefits: []string{"More energy", "Better mood"},
				}
			},
			LocaleItalian: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Fai una passeggiata di 15 minuti",
					reason:   fmt.Sprintf("Finora hai fatto %.0f passi, una breve passeggiata ti avvicina a una giornata attiva.", in.Steps),
					benefits: []string{"Più energia", "Umore migliore"},
				}
			},
		},
	},
	{
		key:          "stress-reduction",
		category:     wellness.CategoryStressReduction,
		priority:     wellness.PriorityMedium,
		activity:     ActivityGreenTea,
		correlations: []string{"recovery.hrv"},
		fires:        func(in wellness.Inputs) bool { return in.Recovery < minRecovery },
		text: map[string]func(wellness.Inputs) fallbackText{
			LocaleEnglish: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Take a quiet green tea break away from screens",
					reason:   fmt.Sprintf("Your recovery score is low (%.0f ms HRV), a sign your body is under strain.", in.Recovery),
					benefits: []string{"Less stress", "Better recovery"},
				}
			},
			LocaleItalian: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Fai una pausa tranquilla con un tè verde lontano dagli schermi",
					reason:   fmt.Sprintf("Il tuo recupero è basso (HRV %.0f ms), segno che il corpo è sotto sforzo.", in.Recovery),
					benefits: []string{"Meno stress", "Recupero migliore"},
				}
			},
		},
	},
	{
		key:          "hydration",
		category:     wellness.CategoryHydration,
		priority:     wellness.PriorityLow,
		activity:     ActivityHydration,
		correlations: []string{"hydration.glasses"},
		fires:        func(in wellness.Inputs) bool { return in.Hydration < minHydration },
		text: map[string]func(wellness.Inputs) fallbackText{
			LocaleEnglish: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Drink a glass of water now and keep a bottle within reach",
					reason:   fmt.Sprintf("You have had %.0f of 8 glasses today.", in.Hydration),
					benefits: []string{"Better focus", "Healthier skin"},
				}
			},
			LocaleItalian: func(in wellness.Inputs) fallbackText {
				return fallbackText{
					action:   "Bevi subito un bicchiere d'acqua e tieni una bottiglia a portata di mano",
					reason:   fmt.Sprintf("Oggi hai bevuto %.0f bicchieri su 8.", in.Hydration),
					benefits: []string{"Più concentrazione", "Pelle più sana"},
				}
			},
		},
	},
}

var maintenanceText = map[string]fallbackText{
	LocaleEnglish: {
		action:   "Keep up your current routine",
		reason:   "Your signals look balanced today. Consistency is what keeps them there.",
		benefits: []string{"Sustained wellbeing"},
	},
	LocaleItalian: {
		action:   "Continua con la tua routine attuale",
		reason:   "Oggi i tuoi valori sono equilibrati. La costanza è ciò che li mantiene tali.",
		benefits: []string{"Benessere duraturo"},
	},
}

// Fallback builds recommendations from fixed thresholds. It always returns
// between 1 and 4 items; with no rule firing it returns one maintenance item.
func Fallback(in wellness.Inputs, locale string) []wellness.Recommendation {
	locale = NormalizeLocale(locale)

	var recs []wellness.Recommendation
	for _, r := range fallbackRules {
		if !r.fires(in) {
			continue
		}
		t := r.text[locale](in)
		recs = append(recs, fallbackRecommendation(r.key, r.category, r.priority, r.activity, r.correlations, t, locale))
		if len(recs) == wellness.MaxRecommendations {
			break
		}
	}

	if len(recs) == 0 {
		recs = append(recs, fallbackRecommendation(
			wellness.CategoryMaintenance,
			wellness.CategoryMaintenance,
			wellness.PriorityLow,
			"",
			[]string{},
			maintenanceText[locale],
			locale,
		))
	}

	return recs
}

func fallbackRecommendation(key, category string, priority wellness.Priority, activity string, correlations []string, t fallbackText, locale string) wellness.Recommendation {
	rec := wellness.Recommendation{
		ID:               uuid.NewSHA1(recommendationNamespace, []byte(fallbackIDPrefix+":"+key)).String(),
		Priority:         priority,
		Category:         category,
		Action:           t.action,
		Reason:           t.reason,
		Correlations:     append([]string{}, correlations...),
		ExpectedBenefits: append([]string{}, t.benefits...),
		Source:           wellness.SourceFallback,
	}
	if a, ok := LookupActivity(activity); ok {
		rec.EstimatedTime = a.EstimatedTime(locale)
	}
	return rec
}
