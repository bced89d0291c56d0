// Package lenient decodes JSON produced by generative models, which may be
// wrapped in prose, fenced in markdown, or truncated mid-object.
//
// A Decoder runs an ordered list of stages. Each stage either produces a value
// or reports that it could not, and the first accepted value wins.
package lenient

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUndecodable is returned when no stage produced an accepted value
var ErrUndecodable = errors.New("no decode stage produced a usable value")

// Stage is one decode attempt
type Stage[T any] struct {
	Name    string
	Attempt func(raw string) (T, bool)
}

// Decoder tries its stages in order
type Decoder[T any] struct {
	Stages []Stage[T]

	// Accept rejects values that parsed but carry nothing usable, so later
	// stages still get a chance. Nil accepts every parsed value.
	Accept func(T) bool
}

// Decode returns the first accepted value and the name of the stage that produced it
func (d *Decoder[T]) Decode(raw string) (T, string, error) {
	var zero T
	for _, stage := range d.Stages {
		v, ok := stage.Attempt(raw)
		if !ok {
			continue
		}
		if d.Accept != nil && !d.Accept(v) {
			continue
		}
		return v, stage.Name, nil
	}
	return zero, "", ErrUndecodable
}

// Standard returns a decoder with the direct, extract and repair stages
// followed by any extra stages supplied by the caller.
func Standard[T any](accept func(T) bool, extra ...Stage[T]) *Decoder[T] {
	stages := []Stage[T]{DirectStage[T](), ExtractStage[T](), RepairStage[T]()}
	return &Decoder[T]{
		Stages: append(stages, extra...),
		Accept: accept,
	}
}

// DirectStage parses the whole text, after removing markdown code fences
func DirectStage[T any]() Stage[T] {
	return Stage[T]{
		Name: "direct",
		Attempt: func(raw string) (T, bool) {
			return unmarshal[T](StripCodeFences(raw))
		},
	}
}

// ExtractStage parses the largest brace-delimited substring
func ExtractStage[T any]() Stage[T] {
	return Stage[T]{
		Name: "extract",
		Attempt: func(raw string) (T, bool) {
			candidate, ok := ExtractBraced(raw)
			if !ok {
				var zero T
				return zero, false
			}
			return unmarshal[T](candidate)
		},
	}
}

// RepairStage closes unterminated structures and parses the result
func RepairStage[T any]() Stage[T] {
	return Stage[T]{
		Name: "repair",
		Attempt: func(raw string) (T, bool) {
			start := strings.IndexByte(raw, '{')
			if start < 0 {
				var zero T
				return zero, false
			}
			return unmarshal[T](RepairBraces(raw[start:]))
		},
	}
}

func unmarshal[T any](text string) (T, bool) {
	var v T
	text = strings.TrimSpace(text)
	if text == "" {
		return v, false
	}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return v, false
	}
	return v, true
}

var (
	bracedPattern = regexp.MustCompile(`(?s)\{.*\}`)
	fencePattern  = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n?(.*?)\\s*```\\s*$")
)

// StripCodeFences removes a surrounding ```json ... ``` block if present
func StripCodeFences(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// ExtractBraced returns the span from the first '{' to the last '}'
func ExtractBraced(s string) (string, bool) {
	match := bracedPattern.FindString(s)
	return match, match != ""
}

// RepairBraces closes whatever the text left open. Brackets inside string
// literals are ignored, an unterminated string is closed, and a dangling
// comma before the appended closers is dropped.
func RepairBraces(s string) string {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}

	repaired := strings.TrimRight(b.String(), " \t\r\n")
	repaired = strings.TrimSuffix(repaired, ",")

	b.Reset()
	b.WriteString(repaired)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
