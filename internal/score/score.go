// Package score computes the composite daily wellness score and its
// qualitative summary.
package score

import (
	"math"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Component weights, summing to 100
const (
	weightMood      = 20
	weightSleep     = 30
	weightMovement  = 20
	weightRecovery  = 15
	weightHydration = 15
)

// Reference values at which a component reaches its full weight
const (
	maxMood          = 5
	targetSleepHours = 8
	maxSleepQuality  = 100
	targetSteps      = 10000
	targetRecovery   = 50
	targetHydration  = 8
)

// LowStepThreshold marks a day that needs more movement
const LowStepThreshold = 5000

// Breakdown is the contribution of each component before rounding
type Breakdown struct {
	Mood      float64 `json:"mood"`
	Sleep     float64 `json:"sleep"`
	Movement  float64 `json:"movement"`
	Recovery  float64 `json:"recovery"`
	Hydration float64 `json:"hydration"`
}

// Total sums the components
func (b Breakdown) Total() float64 {
	return b.Mood + b.Sleep + b.Movement + b.Recovery + b.Hydration
}

// Compute returns the weighted components. Each ratio is clamped to [0, 1]
// so the total stays within [0, 100].
func Compute(in wellness.Inputs) Breakdown {
	sleepRatio := ratio(in.SleepHours, targetSleepHours)*0.7 + ratio(in.SleepQuality, maxSleepQuality)*0.3

	return Breakdown{
		Mood:      ratio(in.Mood, maxMood) * weightMood,
		Sleep:     sleepRatio * weightSleep,
		Movement:  ratio(in.Steps, targetSteps) * weightMovement,
		Recovery:  ratio(in.Recovery, targetRecovery) * weightRecovery,
		Hydration: ratio(in.Hydration, targetHydration) * weightHydration,
	}
}

// Synthesize returns the composite score rounded to the nearest integer
func Synthesize(in wellness.Inputs) int {
	return int(math.Round(Compute(in).Total()))
}

// Summary labels
const (
	EnergyHigh   = "high"
	EnergyMedium = "medium"
	EnergyLow    = "low"

	RecoveryExcellent      = "excellent"
	RecoveryGood           = "good"
	RecoveryNeedsAttention = "needs_attention"

	MoodPositive = "positive"
	MoodNeutral  = "neutral"
	MoodLow      = "low"

	FocusEnergy      = "energy"
	FocusRecovery    = "recovery"
	FocusMovement    = "movement"
	FocusMaintenance = "maintenance"
)

// Summarize derives the qualitative labels from the raw inputs, not from the score
func Summarize(in wellness.Inputs) wellness.Summary {
	s := wellness.Summary{
		Energy:   energyLabel(in),
		Recovery: recoveryLabel(in),
		Mood:     moodLabel(in),
	}

	switch {
	case s.Energy == EnergyLow:
		s.Focus = FocusEnergy
	case s.Recovery == RecoveryNeedsAttention:
		s.Focus = FocusRecovery
	case in.Steps < LowStepThreshold:
		s.Focus = FocusMovement
	default:
		s.Focus = FocusMaintenance
	}

	return s
}

func energyLabel(in wellness.Inputs) string {
	switch {
	case in.Mood >= 4 && in.Recovery >= 35:
		return EnergyHigh
	case in.Mood >= 3 && in.Recovery >= 25:
		return EnergyMedium
	default:
		return EnergyLow
	}
}

func recoveryLabel(in wellness.Inputs) string {
	switch {
	case in.SleepHours >= 7 && in.SleepQuality >= 80:
		return RecoveryExcellent
	case in.SleepHours >= 6 && in.SleepQuality >= 60:
		return RecoveryGood
	default:
		return RecoveryNeedsAttention
	}
}

func moodLabel(in wellness.Inputs) string {
	switch {
	case in.Mood >= 4:
		return MoodPositive
	case in.Mood >= 3:
		return MoodNeutral
	default:
		return MoodLow
	}
}

func ratio(value, target float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(value/target, 1))
}
