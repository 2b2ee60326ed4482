// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"fmt"
)

// mergeDocuments combines overlay onto base. Nested objects merge
// recursively; primitives and arrays from overlay replace the base value
// wholly (no element-wise array merge). Keys only present in overlay are
// carried over unchanged, so unknown fields survive round-trips. The result
// shares no memory with either input.
func mergeDocuments(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for key, baseVal := range base {
		overlayVal, ok := overlay[key]
		if !ok {
			out[key] = deepCopyValue(baseVal)
			continue
		}
		baseMap, baseIsMap := baseVal.(map[string]any)
		overlayMap, overlayIsMap := overlayVal.(map[string]any)
		if baseIsMap && overlayIsMap {
			out[key] = mergeDocuments(baseMap, overlayMap)
			continue
		}
		out[key] = deepCopyValue(overlayVal)
	}
	for key, overlayVal := range overlay {
		if _, ok := base[key]; !ok {
			out[key] = deepCopyValue(overlayVal)
		}
	}
	return out
}

func deepCopyDocument(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for key, val := range doc {
		out[key] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return deepCopyDocument(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		// JSON scalars (string, float64, bool, nil) are immutable.
		return v
	}
}

// normalizeDocument round-trips doc through JSON so that values use the same
// representation as documents parsed from disk (e.g. all numbers as float64).
// Without this, a caller-supplied int would never compare equal to its parsed
// counterpart.
func normalizeDocument(doc map[string]any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
