package lenient

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

func nonEmpty(p payload) bool { return len(p.Items) > 0 }

func TestDecode_Direct(t *testing.T) {
	d := Standard(nonEmpty)

	p, stage, err := d.Decode(`{"items":[{"name":"walk"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "direct", stage)
	assert.Equal(t, "walk", p.Items[0].Name)
}

func TestDecode_CodeFence(t *testing.T) {
	d := Standard(nonEmpty)

	p, stage, err := d.Decode("```json\n{\"items\":[{\"name\":\"tea\"}]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "direct", stage)
	assert.Equal(t, "tea", p.Items[0].Name)
}

func TestDecode_ExtractFromProse(t *testing.T) {
	d := Standard(nonEmpty)

	p, stage, err := d.Decode(`Sure! Here you go: {"items":[{"name":"stretch"}]} Hope it helps.`)
	require.NoError(t, err)
	assert.Equal(t, "extract", stage)
	assert.Equal(t, "stretch", p.Items[0].Name)
}

func TestDecode_RepairTruncated(t *testing.T) {
	d := Standard(nonEmpty)

	p, stage, err := d.Decode(`Result: {"items":[{"name":"breathe"},{"name":"walk"}`)
	require.NoError(t, err)
	assert.Equal(t, "repair", stage)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "walk", p.Items[1].Name)
}

func TestDecode_AcceptRejectsEmpty(t *testing.T) {
	d := Standard(nonEmpty)

	_, _, err := d.Decode(`{"items":[]}`)
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestDecode_ExtraStage(t *testing.T) {
	salvage := Stage[payload]{
		Name: "salvage",
		Attempt: func(raw string) (payload, bool) {
			var p payload
			if strings.Contains(raw, "walk") {
				p.Items = append(p.Items, struct {
					Name string `json:"name"`
				}{Name: "walk"})
			}
			return p, len(p.Items) > 0
		},
	}
	d := Standard(nonEmpty, salvage)

	p, stage, err := d.Decode(`name: walk ]]] garbage`)
	require.NoError(t, err)
	assert.Equal(t, "salvage", stage)
	assert.Equal(t, "walk", p.Items[0].Name)
}

func TestDecode_NothingRecoverable(t *testing.T) {
	d := Standard(nonEmpty)

	_, _, err := d.Decode(`I'm sorry, I can't help with that.`)
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestRepairBraces_AppendsExactlyMissingClosers(t *testing.T) {
	complete := `{"a":{"b":{"c":{"d":1}}}}`

	for n := 1; n <= 4; n++ {
		truncated := complete[:len(complete)-n]
		repaired := RepairBraces(truncated)

		assert.Equal(t, truncated+strings.Repeat("}", n), repaired, "n=%d", n)

		var v map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(repaired), &v), "n=%d", n)
	}
}

func TestRepairBraces_IgnoresBracesInStrings(t *testing.T) {
	repaired := RepairBraces(`{"note":"use {curly} and [square]","items":[1,2`)
	assert.Equal(t, `{"note":"use {curly} and [square]","items":[1,2]}`, repaired)
	assert.True(t, json.Valid([]byte(repaired)))
}

func TestRepairBraces_ClosesStringAndDropsTrailingComma(t *testing.T) {
	assert.Equal(t, `{"items":["a","b"]}`, RepairBraces(`{"items":["a","b",`))
	assert.Equal(t, `{"reason":"too short"}`, RepairBraces(`{"reason":"too short`))
}

func TestRepairBraces_BalancedUnchanged(t *testing.T) {
	in := `{"a":[1,2,3]}`
	assert.Equal(t, in, RepairBraces(in))
}

func TestExtractBraced(t *testing.T) {
	got, ok := ExtractBraced("prefix {\"a\":1} middle {\"b\":2} suffix")
	require.True(t, ok)
	assert.Equal(t, `{"a":1} middle {"b":2}`, got)

	_, ok = ExtractBraced("no braces here")
	assert.False(t, ok)
}
