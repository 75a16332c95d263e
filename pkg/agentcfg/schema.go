package agentcfg

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Schema returns the JSON Schema describing a configuration document.
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[Config](&jsonschema.ForOptions{})
	if err != nil {
		return nil, err
	}
	s.Title = "agentkit agent configuration"
	// Sections beyond the typed ones are allowed and kept.
	s.AdditionalProperties = nil
	return s, nil
}
