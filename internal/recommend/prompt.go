package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Profile personalises the prompt
type Profile struct {
	DisplayName string
}

// PromptInput is everything the prompt embeds
type PromptInput struct {
	Profile  Profile
	Date     string
	Locale   string
	Inputs   wellness.Inputs
	Score    int
	Summary  wellness.Summary
	Insights []wellness.Insight
	Trends   map[wellness.Domain]wellness.TrendResult
	Daylight Daylight
}

var localeNames = map[string]string{
	LocaleEnglish: "English",
	LocaleItalian: "Italian",
}

// outputSchema is the structure the model must answer with
const outputSchema = `{
  "recommendations": [
    {
      "id": "short-kebab-case-id",
      "priority": "low | medium | high | critical",
      "category": "mindfulness | recovery | movement | stress-reduction | hydration | nutrition | skincare | maintenance",
      "action": "one concrete thing to do today",
      "reason": "why, referring to the user's data",
      "estimatedTime": "e.g. 10 min",
      "correlations": ["metric names this relates to"],
      "expectedBenefits": ["short benefit"]
    }
  ]
}`

// BuildPrompt constructs the recommendation prompt
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	locale := NormalizeLocale(in.Locale)

	b.WriteString("You are a supportive wellness coach. You give practical, everyday wellness guidance. ")
	b.WriteString("You never diagnose medical conditions and never suggest medication.\n\n")

	if in.Profile.DisplayName != "" {
		fmt.Fprintf(&b, "The user's name is %s. Address them by name in at least one reason.\n\n", in.Profile.DisplayName)
	}

	fmt.Fprintf(&b, "TODAY (%s):\n", in.Date)
	fmt.Fprintf(&b, "- Mood: %.1f / 5\n", in.Inputs.Mood)
	fmt.Fprintf(&b, "- Sleep: %.1f hours, quality %.0f / 100\n", in.Inputs.SleepHours, in.Inputs.SleepQuality)
	fmt.Fprintf(&b, "- Steps: %.0f\n", in.Inputs.Steps)
	fmt.Fprintf(&b, "- Recovery (HRV): %.0f ms\n", in.Inputs.Recovery)
	fmt.Fprintf(&b, "- Hydration: %.0f / 8 glasses\n", in.Inputs.Hydration)
	fmt.Fprintf(&b, "- Overall score: %d / 100\n", in.Score)
	fmt.Fprintf(&b, "- Energy: %s, recovery: %s, mood: %s, focus: %s\n\n",
		in.Summary.Energy, in.Summary.Recovery, in.Summary.Mood, in.Summary.Focus)

	if trends := describeTrends(in.Trends); trends != "" {
		b.WriteString("TRENDS:\n")
		b.WriteString(trends)
		b.WriteString("\n")
	}

	if len(in.Insights) > 0 {
		b.WriteString("OBSERVATIONS:\n")
		for _, ins := range in.Insights {
			fmt.Fprintf(&b, "- [%s] %s\n", ins.Priority, ins.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("DAYLIGHT:\n")
	if in.Daylight.OutdoorFriendly() {
		fmt.Fprintf(&b, "- About %s of daylight left, outdoor activities are possible.\n\n", formatRemaining(in.Daylight.Remaining))
	} else {
		b.WriteString("- Little or no daylight left, prefer indoor activities.\n\n")
	}

	b.WriteString("ACTIVITY IDEAS (use when relevant):\n")
	for _, a := range Catalogue {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Name(locale), a.EstimatedTime(locale))
	}
	b.WriteString("\n")

	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "- Give between 1 and %d recommendations, most important first.\n", wellness.MaxRecommendations)
	b.WriteString("- Be concise and specific. Each action must be doable today.\n")
	b.WriteString("- Base every reason on the data above.\n")
	fmt.Fprintf(&b, "- Write all text in %s. Keep JSON keys in English.\n\n", localeNames[locale])

	b.WriteString("Respond ONLY with JSON in exactly this format:\n")
	b.WriteString(outputSchema)
	b.WriteString("\n")

	return b.String()
}

func describeTrends(trends map[wellness.Domain]wellness.TrendResult) string {
	var b strings.Builder
	for _, d := range wellness.AllDomains {
		t, ok := trends[d]
		if !ok || t.Points < 2 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (%d readings, confidence %.2f)\n", d, t.Direction, t.Points, t.Confidence)
	}
	return b.String()
}

func formatRemaining(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
