package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// pathSegment is one step of a parsed response path: a field name, an
// array index, or both (name followed by indexes).
type pathSegment struct {
	field   string
	indexes []int
}

// parsePath splits a dotted/bracketed path like "choices[0].message.content"
// into segments.
func parsePath(path string) ([]pathSegment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty response path")
	}

	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid response path: %s", path)
		}

		seg := pathSegment{}
		rest := part
		if i := strings.IndexByte(rest, '['); i >= 0 {
			seg.field = rest[:i]
			rest = rest[i:]
		} else {
			seg.field = rest
			rest = ""
		}

		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("invalid response path: %s", path)
			}
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return nil, fmt.Errorf("invalid response path: %s", path)
			}
			idx, err := strconv.Atoi(rest[1:close])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid response path: %s", path)
			}
			seg.indexes = append(seg.indexes, idx)
			rest = rest[close+1:]
		}

		segments = append(segments, seg)
	}
	return segments, nil
}

// ExtractPath walks a parsed JSON document along a dotted/bracketed path
// and returns the value it resolves to. An unresolved path is an error,
// never a silent nil.
func ExtractPath(doc any, path string) (any, error) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	current := doc
	for _, seg := range segments {
		if seg.field != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, pathNotFound(path)
			}
			current, ok = obj[seg.field]
			if !ok {
				return nil, pathNotFound(path)
			}
		}
		for _, idx := range seg.indexes {
			arr, ok := current.([]any)
			if !ok || idx >= len(arr) {
				return nil, pathNotFound(path)
			}
			current = arr[idx]
		}
	}
	if current == nil {
		return nil, pathNotFound(path)
	}
	return current, nil
}

func pathNotFound(path string) error {
	return fmt.Errorf("could not find response at path: %s", path)
}
