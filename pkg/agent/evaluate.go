package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haivivi/agentkit/pkg/dataset"
)

// Metrics summarize an evaluation run.
type Metrics struct {
	Accuracy           float64 `json:"accuracy" msgpack:"accuracy"`
	TotalSamples       int     `json:"total_samples" msgpack:"total_samples"`
	CorrectPredictions int     `json:"correct_predictions" msgpack:"correct_predictions"`
}

// Evaluate runs every record through a and counts a reply as correct when
// it contains the expected answer, ignoring case. The input is the text or
// user field, the expectation the label or assistant field.
func Evaluate(ctx context.Context, a Agent, records []dataset.Record) Metrics {
	m := Metrics{TotalSamples: len(records)}
	for _, r := range records {
		input := r.First("text", "user")
		expected := r.First("label", "assistant")
		reply := a.Process(ctx, input)
		if expected != "" && strings.Contains(strings.ToLower(reply), strings.ToLower(expected)) {
			m.CorrectPredictions++
		}
	}
	if m.TotalSamples > 0 {
		m.Accuracy = float64(m.CorrectPredictions) / float64(m.TotalSamples)
	}
	return m
}

// Marshal encodes the metrics as indented JSON.
func (m Metrics) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// SaveMetrics writes m as JSON to path, creating parent directories.
func SaveMetrics(m Metrics, path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("agent: create dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
