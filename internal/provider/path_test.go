package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestExtractPath(t *testing.T) {
	doc := parseDoc(t, `{
		"choices": [
			{"message": {"content": "first"}},
			{"message": {"content": "second"}}
		],
		"content": [{"type": "text", "text": "hello"}],
		"usage": {"total_tokens": 42},
		"flat": "value"
	}`)

	tests := []struct {
		path string
		want any
	}{
		{"flat", "value"},
		{"choices[0].message.content", "first"},
		{"choices[1].message.content", "second"},
		{"content[0].text", "hello"},
		{"usage.total_tokens", float64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ExtractPath(doc, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPathLeadingIndex(t *testing.T) {
	doc := parseDoc(t, `[{"text": "top"}]`)

	got, err := ExtractPath(doc, "[0].text")
	require.NoError(t, err)
	assert.Equal(t, "top", got)
}

func TestExtractPathNestedIndexes(t *testing.T) {
	doc := parseDoc(t, `{"grid": [["a", "b"], ["c", "d"]]}`)

	got, err := ExtractPath(doc, "grid[1][0]")
	require.NoError(t, err)
	assert.Equal(t, "c", got)
}

func TestExtractPathNotFound(t *testing.T) {
	doc := parseDoc(t, `{"choices": [{"message": {"content": "x"}}], "null_field": null}`)

	paths := []string{
		"missing",
		"choices[5].message.content",
		"choices[0].missing",
		"choices[0].message.content.deeper",
		"null_field",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			_, err := ExtractPath(doc, path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "could not find response at path")
		})
	}
}

func TestExtractPathInvalidSyntax(t *testing.T) {
	doc := parseDoc(t, `{}`)

	paths := []string{
		"",
		"  ",
		"a..b",
		"a[",
		"a[x]",
		"a[-1]",
		"a[0",
	}
	for _, path := range paths {
		t.Run("invalid_"+path, func(t *testing.T) {
			_, err := ExtractPath(doc, path)
			assert.Error(t, err)
		})
	}
}
