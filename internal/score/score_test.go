package score

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

func TestSynthesize_ScenarioA(t *testing.T) {
	in := wellness.Inputs{Mood: 1, SleepHours: 5, SleepQuality: 50, Steps: 2000, Recovery: 20, Hydration: 2}

	got := Synthesize(in)

	// 4 + 17.625 + 4 + 6 + 3.75 = 35.375
	assert.Equal(t, 35, got)
	assert.GreaterOrEqual(t, got, 20)
	assert.LessOrEqual(t, got, 35)

	s := Summarize(in)
	assert.Equal(t, EnergyLow, s.Energy)
	assert.Equal(t, RecoveryNeedsAttention, s.Recovery)
	assert.Equal(t, MoodLow, s.Mood)
	assert.Equal(t, FocusEnergy, s.Focus)
}

func TestSynthesize_ScenarioB(t *testing.T) {
	in := wellness.Inputs{Mood: 5, SleepHours: 8, SleepQuality: 95, Steps: 12000, Recovery: 55, Hydration: 8}

	got := Synthesize(in)

	// 20 + 29.55 + 20 + 15 + 15 = 99.55
	assert.Equal(t, 100, got)

	s := Summarize(in)
	assert.Equal(t, EnergyHigh, s.Energy)
	assert.Equal(t, RecoveryExcellent, s.Recovery)
	assert.Equal(t, MoodPositive, s.Mood)
	assert.Equal(t, FocusMaintenance, s.Focus)
}

func TestSynthesize_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		in := wellness.Inputs{
			Mood:         rng.Float64()*10 - 2,
			SleepHours:   rng.Float64()*20 - 2,
			SleepQuality: rng.Float64()*200 - 50,
			Steps:        rng.Float64() * 40000,
			Recovery:     rng.Float64()*200 - 10,
			Hydration:    rng.Float64()*16 - 2,
		}
		got := Synthesize(in)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}

	assert.Equal(t, 0, Synthesize(wellness.Inputs{Mood: math.NaN()}))
}

func TestSynthesize_Deterministic(t *testing.T) {
	in := wellness.Inputs{Mood: 3.5, SleepHours: 6.75, SleepQuality: 71, Steps: 6420, Recovery: 33, Hydration: 5}

	first := Synthesize(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Synthesize(in))
	}
	assert.Equal(t, Summarize(in), Summarize(in))
}

func TestSummarize_FocusPriority(t *testing.T) {
	base := wellness.Inputs{Mood: 4, SleepHours: 7.5, SleepQuality: 85, Steps: 8000, Recovery: 40, Hydration: 6}

	tests := []struct {
		name   string
		modify func(*wellness.Inputs)
		want   string
	}{
		{"everything fine", func(*wellness.Inputs) {}, FocusMaintenance},
		{"low steps", func(in *wellness.Inputs) { in.Steps = 3000 }, FocusMovement},
		{"poor sleep beats low steps", func(in *wellness.Inputs) { in.Steps = 3000; in.SleepHours = 5 }, FocusRecovery},
		{"low energy beats everything", func(in *wellness.Inputs) { in.Steps = 3000; in.SleepHours = 5; in.Mood = 2 }, FocusEnergy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.modify(&in)
			assert.Equal(t, tt.want, Summarize(in).Focus)
		})
	}
}

func TestSummarize_Labels(t *testing.T) {
	assert.Equal(t, EnergyMedium, Summarize(wellness.Inputs{Mood: 3, Recovery: 25}).Energy)
	assert.Equal(t, EnergyLow, Summarize(wellness.Inputs{Mood: 4, Recovery: 20}).Energy)
	assert.Equal(t, RecoveryGood, Summarize(wellness.Inputs{SleepHours: 6, SleepQuality: 60}).Recovery)
	assert.Equal(t, MoodNeutral, Summarize(wellness.Inputs{Mood: 3}).Mood)
}
