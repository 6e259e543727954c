// Package fieldval defines the "not specified" sentinel used across
// extraction and synthesis. Extracted fields that have no textual support
// carry the sentinel instead of being omitted, so downstream merging can
// tell "explicitly unknown" apart from "absent".
package fieldval

import "strings"

// NotSpecified is the sentinel value for fields the extraction engine could
// not support from the document text. It is stored verbatim and must survive
// persistence round-trips.
const NotSpecified = "Non spécifié"

// IsUnset reports whether v carries no real information: nil, the sentinel,
// an empty string, or an empty container.
func IsUnset(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, NotSpecified)
	case map[string]any:
		for _, nested := range t {
			if !IsUnset(nested) {
				return false
			}
		}
		return true
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// IsSet is the positive form of IsUnset.
func IsSet(v any) bool { return !IsUnset(v) }
