// Package dataset loads, normalizes and partitions training examples.
//
// Raw examples arrive in heterogeneous shapes (JSON arrays, JSON lines, CSV
// rows) with inconsistent field names. Prepare reshapes them into the
// canonical schema of a target agent kind:
//
//	conversational: {user, assistant, context}
//	classifier:     {text, label}
package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a single example. Loaded records carry whatever fields the source
// had; prepared records carry only the canonical fields of their kind.
type Record map[string]any

// Field returns the named field as a string. Missing fields and falsy
// scalars (nil, false, 0) yield "", other scalars are formatted, and
// non-empty composite values are JSON encoded.
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []any:
		if len(v) == 0 {
			return ""
		}
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// First returns the first non-empty field among names.
func (r Record) First(names ...string) string {
	for _, n := range names {
		if s := r.Field(n); s != "" {
			return s
		}
	}
	return ""
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
