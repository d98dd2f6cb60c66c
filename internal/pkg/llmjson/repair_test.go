package llmjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairTruncated_NoOpOnValidJSON(t *testing.T) {
	inputs := []string{
		`{"a": 1}`,
		`{"a": {"b": [1, 2, 3]}, "c": "text with \"escapes\" and {braces}"}`,
		`{"arr": ["a", "b"]}`,
		`{"nested": [{"x": 1}, {"y": 2}]}`,
	}

	for _, s := range inputs {
		repaired := RepairTruncated(s)

		var want, got interface{}
		require.NoError(t, json.Unmarshal([]byte(s), &want))
		require.NoError(t, json.Unmarshal([]byte(repaired), &got), "repaired: %s", repaired)
		assert.Equal(t, want, got)
	}
}

func TestRepairTruncated_ClosesBrackets(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed object", `{"a": 1`},
		{"unclosed nested", `{"a": {"b": [1, 2`},
		{"unclosed string value", `{"a": "truncated val`},
		{"brace inside string not counted", `{"a": "has { and [ inside", "b": {"c": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repaired := RepairTruncated(tt.input)
			var obj map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(repaired), &obj), "repaired: %s", repaired)
		})
	}
}

func TestRepairTruncated_DropsDanglingKey(t *testing.T) {
	t.Run("bare partial key", func(t *testing.T) {
		repaired := RepairTruncated(`{"a": 1, "partial-ke`)
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
		assert.Equal(t, map[string]interface{}{"a": float64(1)}, obj)
	})

	t.Run("key with colon but no value", func(t *testing.T) {
		repaired := RepairTruncated(`{"a": 1, "b":`)
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
		assert.Equal(t, map[string]interface{}{"a": float64(1)}, obj)
	})
}

func TestParseObject_ErrorContainsOffset(t *testing.T) {
	_, err := ParseObject(`{"a": 1 "b": 2}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset")
	assert.Contains(t, err.Error(), "context")
}

func TestParseObject_RoundTrip(t *testing.T) {
	// parse(repair(s)) == parse(s) для уже валидного s
	s := `{"radar": [80, 75, 90, 60, 70, 85, 65], "year": 2024}`
	direct, err := ParseObject(s)
	require.NoError(t, err)
	viaRepair, err := ParseObject(RepairTruncated(s))
	require.NoError(t, err)
	assert.Equal(t, direct, viaRepair)
}
