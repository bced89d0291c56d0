package recommend

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// recommendationNamespace scopes ids derived from action text
var recommendationNamespace = uuid.MustParse("b3d6f0a4-2c1e-4f8b-a7d9-5e4c3b2a1f90")

// Defaults applied to fields the model left out
const (
	defaultPriority = wellness.PriorityMedium
	defaultCategory = wellness.CategoryMaintenance
)

var defaultReason = map[string]string{
	LocaleEnglish: "Based on today's wellness data.",
	LocaleItalian: "In base ai tuoi dati di benessere di oggi.",
}

// flexString accepts a JSON string, number or boolean
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

// flexStrings accepts a list of strings or a single string
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, string(it))
		}
		*f = out
		return nil
	}
	var single flexString
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = flexStrings{string(single)}
	return nil
}

// partialRecommendation is the model's answer as it may arrive: every field optional
type partialRecommendation struct {
	ID               flexString  `json:"id"`
	Priority         flexString  `json:"priority"`
	Category         flexString  `json:"category"`
	Action           flexString  `json:"action"`
	Reason           flexString  `json:"reason"`
	EstimatedTime    flexString  `json:"estimatedTime"`
	Correlations     flexStrings `json:"correlations"`
	ExpectedBenefits flexStrings `json:"expectedBenefits"`
}

// partialResponse is the top-level answer shape
type partialResponse struct {
	Recommendations []partialRecommendation `json:"recommendations"`
}

// usable reports whether at least one recommendation carries an action
func (r partialResponse) usable() bool {
	for _, rec := range r.Recommendations {
		if strings.TrimSpace(string(rec.Action)) != "" {
			return true
		}
	}
	return false
}

// normalize converts partial records to the canonical shape. Records without
// an action are dropped, duplicates by id are removed, the list is ordered by
// priority and capped.
func normalize(recs []partialRecommendation, locale string) []wellness.Recommendation {
	locale = NormalizeLocale(locale)
	seen := make(map[string]bool, len(recs))
	out := make([]wellness.Recommendation, 0, len(recs))

	for _, r := range recs {
		action := cleanText(string(r.Action))
		if action == "" {
			continue
		}

		rec := wellness.Recommendation{
			ID:               cleanText(string(r.ID)),
			Priority:         wellness.Priority(strings.ToLower(cleanText(string(r.Priority)))),
			Category:         strings.ToLower(cleanText(string(r.Category))),
			Action:           action,
			Reason:           cleanText(string(r.Reason)),
			EstimatedTime:    cleanText(string(r.EstimatedTime)),
			Correlations:     cleanList(r.Correlations),
			ExpectedBenefits: cleanList(r.ExpectedBenefits),
			Source:           wellness.SourceAI,
		}

		if rec.ID == "" {
			rec.ID = uuid.NewSHA1(recommendationNamespace, []byte(strings.ToLower(action))).String()
		}
		if !rec.Priority.Valid() {
			rec.Priority = defaultPriority
		}
		if !wellness.ValidCategory(rec.Category) {
			rec.Category = defaultCategory
		}
		if rec.Reason == "" {
			rec.Reason = defaultReason[locale]
		}

		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})

	if len(out) > wellness.MaxRecommendations {
		out = out[:wellness.MaxRecommendations]
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if c := cleanText(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// unquoteFragment decodes a JSON string body captured without its quotes
func unquoteFragment(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
