package provider

import (
	"regexp"

	"github.com/strand-ai/strand/pkg/types"
)

// placeholderRe matches exactly {{identifier}}: double curly braces, no
// whitespace tolerance.
var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Render walks a request template and replaces every {{key}} token found
// in string values with the matching substitution. Container types are
// preserved, non-string leaves pass through unchanged, and the original
// template is never mutated.
func Render(node any, vars map[string]string) any {
	switch v := node.(type) {
	case string:
		return substitute(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Render(val, vars)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Render(val, vars)
		}
		return out
	default:
		return v
	}
}

// substitute replaces {{key}} tokens in a single string. Tokens without a
// substitution value are left intact.
func substitute(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		key := m[2 : len(m)-2]
		if val, ok := vars[key]; ok {
			return val
		}
		return m
	})
}

// DetectShape classifies a request template once, at configuration-save
// time: an object whose keys are drawn from {body, query} (with body
// present) is structured; anything else is sent verbatim as the body.
func DetectShape(tmpl any) types.RequestShape {
	m, ok := tmpl.(map[string]any)
	if !ok {
		return types.ShapeBareBody
	}
	if _, hasBody := m["body"]; !hasBody {
		return types.ShapeBareBody
	}
	for k := range m {
		if k != "body" && k != "query" {
			return types.ShapeBareBody
		}
	}
	return types.ShapeStructured
}
