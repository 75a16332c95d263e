package agentcfg

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// sections are the top-level keys decoded into the typed fields of Config.
// Every other top-level key is kept in Config.Extra.
var sections = []string{"agent", "model", "prompts", "memory", "training"}

// fields is Config without its codec methods.
type fields Config

// UnmarshalJSON implements json.Unmarshaler. Unknown top-level sections are
// kept in Extra.
func (c *Config) UnmarshalJSON(data []byte) error {
	var typed fields
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*c = Config(typed)
	c.Extra = extraOf(all)
	return nil
}

// MarshalJSON implements json.Marshaler. Extra sections follow the typed
// ones in key order.
func (c Config) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(fields(c))
	if err != nil {
		return nil, err
	}
	keys := c.extraKeys()
	if len(keys) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	sep := len(data) > 2
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Extra[k])
		if err != nil {
			return nil, err
		}
		if sep {
			buf.WriteByte(',')
		}
		sep = true
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler. Unknown top-level
// sections are kept in Extra.
func (c *Config) UnmarshalYAML(b []byte) error {
	var typed fields
	if err := yaml.Unmarshal(b, &typed); err != nil {
		return err
	}
	var all map[string]any
	if err := yaml.Unmarshal(b, &all); err != nil {
		return err
	}
	*c = Config(typed)
	c.Extra = extraOf(all)
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler. Empty typed sections are
// omitted.
func (c Config) MarshalYAML() (any, error) {
	typed := []any{c.Agent, c.Model, c.Prompts, c.Memory, c.Training}
	var out yaml.MapSlice
	for i, v := range typed {
		if !reflect.ValueOf(v).IsZero() {
			out = append(out, yaml.MapItem{Key: sections[i], Value: v})
		}
	}
	for _, k := range c.extraKeys() {
		out = append(out, yaml.MapItem{Key: k, Value: c.Extra[k]})
	}
	return out, nil
}

func (c Config) extraKeys() []string {
	var keys []string
	for k := range c.Extra {
		if !slices.Contains(sections, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func extraOf(all map[string]any) map[string]any {
	for _, k := range sections {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// Section returns the extra top-level section name when it is a mapping.
func (c *Config) Section(name string) (map[string]any, bool) {
	if c == nil {
		return nil, false
	}
	m, ok := c.Extra[name].(map[string]any)
	return m, ok
}

// Lookup returns the value at a dotted path inside the extra sections, such
// as "custom.greeting".
func (c *Config) Lookup(path string) (any, bool) {
	if c == nil || path == "" {
		return nil, false
	}
	var cur any = c.Extra
	for key := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// cloneValue deep copies decoded document values.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

func cloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}
