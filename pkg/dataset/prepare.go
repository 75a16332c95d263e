package dataset

// Canonical schemas accepted by Prepare.
const (
	Conversational = "conversational"
	Classifier     = "classifier"
)

// alias maps a canonical field to the raw field names tried in order.
type alias struct {
	field   string
	sources []string
}

var schemas = map[string][]alias{
	Conversational: {
		{"user", []string{"user", "input", "question"}},
		{"assistant", []string{"assistant", "output", "answer"}},
		{"context", []string{"context"}},
	},
	Classifier: {
		{"text", []string{"text", "input", "user"}},
		{"label", []string{"label", "category", "class"}},
	},
}

// Prepare normalizes raw records into the canonical schema of kind.
//
// Each canonical field takes the first non-empty alias. Records whose
// canonical fields are all empty are dropped. For a kind without a schema
// the records pass through unchanged, minus the empty ones.
func Prepare(records []Record, kind string) []Record {
	schema, ok := schemas[kind]
	out := make([]Record, 0, len(records))
	for _, raw := range records {
		rec := raw
		if ok {
			rec = make(Record, len(schema))
			for _, a := range schema {
				rec[a.field] = raw.First(a.sources...)
			}
		}
		if rec.empty() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Fields returns the canonical field names of kind, or nil.
func Fields(kind string) []string {
	schema, ok := schemas[kind]
	if !ok {
		return nil
	}
	names := make([]string, len(schema))
	for i, a := range schema {
		names[i] = a.field
	}
	return names
}

func (r Record) empty() bool {
	for k := range r {
		if r.Field(k) != "" {
			return false
		}
	}
	return true
}
