// Package recommend produces the day's recommendations, from the generative
// text service when it answers usefully and from fixed rules otherwise.
package recommend

import "strings"

// Supported locales
const (
	LocaleEnglish = "en"
	LocaleItalian = "it"
)

// NormalizeLocale maps a locale tag to a supported locale, defaulting to English
func NormalizeLocale(locale string) string {
	tag := strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(tag, LocaleItalian) {
		return LocaleItalian
	}
	return LocaleEnglish
}

// Activity is an entry of the wellness activity catalogue
type Activity struct {
	Key      string
	Category string
	Names    map[string]string
	Duration map[string]string
}

// Name returns the localised activity name
func (a Activity) Name(locale string) string {
	return a.Names[NormalizeLocale(locale)]
}

// EstimatedTime returns the localised duration
func (a Activity) EstimatedTime(locale string) string {
	return a.Duration[NormalizeLocale(locale)]
}

// Catalogue keys
const (
	ActivityBreathing  = "breathing"
	ActivityWalk       = "walk"
	ActivityStretching = "stretching"
	ActivityHydration  = "hydration"
	ActivityGreenTea   = "green_tea"
)

// Catalogue lists the activities recommendations can point to
var Catalogue = []Activity{
	{
		Key:      ActivityBreathing,
		Category: "mindfulness",
		Names:    map[string]string{LocaleEnglish: "Breathing Exercises", LocaleItalian: "Esercizi di respirazione"},
		Duration: map[string]string{LocaleEnglish: "5 min", LocaleItalian: "5 min"},
	},
	{
		Key:      ActivityWalk,
		Category: "movement",
		Names:    map[string]string{LocaleEnglish: "Take a Walk", LocaleItalian: "Fai una passeggiata"},
		Duration: map[string]string{LocaleEnglish: "15 min", LocaleItalian: "15 min"},
	},
	{
		Key:      ActivityStretching,
		Category: "recovery",
		Names:    map[string]string{LocaleEnglish: "Gentle Stretching", LocaleItalian: "Stretching leggero"},
		Duration: map[string]string{LocaleEnglish: "10 min", LocaleItalian: "10 min"},
	},
	{
		Key:      ActivityHydration,
		Category: "hydration",
		Names:    map[string]string{LocaleEnglish: "Hydration", LocaleItalian: "Idratazione"},
		Duration: map[string]string{LocaleEnglish: "throughout the day", LocaleItalian: "durante la giornata"},
	},
	{
		Key:      ActivityGreenTea,
		Category: "stress-reduction",
		Names:    map[string]string{LocaleEnglish: "Green Tea Break", LocaleItalian: "Pausa tè verde"},
		Duration: map[string]string{LocaleEnglish: "5 min", LocaleItalian: "5 min"},
	},
}

// LookupActivity finds a catalogue entry by key
func LookupActivity(key string) (Activity, bool) {
	for _, a := range Catalogue {
		if a.Key == key {
			return a, true
		}
	}
	return Activity{}, false
}
