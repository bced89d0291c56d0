package recommend

import (
	"regexp"
	"strings"

	"github.com/saaga0h/wellness-engine/pkg/lenient"
)

var (
	actionPattern = regexp.MustCompile(`"action"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	fieldPatterns = map[string]*regexp.Regexp{
		"id":            fieldPattern("id"),
		"priority":      fieldPattern("priority"),
		"category":      fieldPattern("category"),
		"reason":        fieldPattern("reason"),
		"estimatedTime": fieldPattern("estimatedTime"),
	}
)

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + name + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

// salvageStage recovers recommendation fragments one by one from text that no
// JSON parser accepts. A fragment is a brace-delimited object holding a
// complete "action" string; objects that never close are dropped. The other
// fields are looked up inside the same object.
func salvageStage() lenient.Stage[partialResponse] {
	return lenient.Stage[partialResponse]{
		Name: "salvage",
		Attempt: func(raw string) (partialResponse, bool) {
			recs := salvageFragments(raw)
			return partialResponse{Recommendations: recs}, len(recs) > 0
		},
	}
}

// arrayStage accepts a bare top-level array of recommendations
func arrayStage() lenient.Stage[partialResponse] {
	type wrapped struct {
		R []partialRecommendation `json:"r"`
	}
	d := lenient.Standard(func(w wrapped) bool { return len(w.R) > 0 })

	return lenient.Stage[partialResponse]{
		Name: "array",
		Attempt: func(raw string) (partialResponse, bool) {
			text := lenient.StripCodeFences(raw)
			start := strings.IndexByte(text, '[')
			if start < 0 {
				return partialResponse{}, false
			}
			w, _, err := d.Decode(`{"r":` + text[start:] + `}`)
			if err != nil {
				return partialResponse{}, false
			}
			return partialResponse{Recommendations: w.R}, true
		},
	}
}

func salvageFragments(raw string) []partialRecommendation {
	matches := actionPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	recs := make([]partialRecommendation, 0, len(matches))
	cursor := 0
	for _, m := range matches {
		if m[0] < cursor {
			// second action inside an accepted fragment
			continue
		}

		open := strings.LastIndexByte(raw[cursor:m[0]], '{')
		if open < 0 {
			continue
		}
		open += cursor

		end := closingBrace(raw, open)
		if end < 0 {
			continue
		}
		segment := raw[open : end+1]
		cursor = end + 1

		rec := partialRecommendation{
			Action: flexString(unquoteFragment(raw[m[2]:m[3]])),
		}
		rec.ID = flexString(findField(segment, "id"))
		rec.Priority = flexString(findField(segment, "priority"))
		rec.Category = flexString(findField(segment, "category"))
		rec.Reason = flexString(findField(segment, "reason"))
		rec.EstimatedTime = flexString(findField(segment, "estimatedTime"))
		recs = append(recs, rec)
	}
	return recs
}

// closingBrace returns the index of the brace closing the object opened at
// open, or -1 when the text ends first. Braces inside strings are ignored.
func closingBrace(raw string, open int) int {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func findField(segment, name string) string {
	m := fieldPatterns[name].FindStringSubmatch(segment)
	if m == nil {
		return ""
	}
	return unquoteFragment(m[1])
}
