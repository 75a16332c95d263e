package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes records to path as an indented JSON array, creating parent
// directories as needed.
func Save(records []Record, path string) error {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// ChatMessage is one turn of a fine-tuning conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FineTuningExample is one line of a chat fine-tuning file.
type FineTuningExample struct {
	Messages []ChatMessage `json:"messages"`
}

// ExportFineTuning writes conversational records as chat fine-tuning JSONL,
// one user/assistant exchange per line. It returns the number of lines
// written.
func ExportFineTuning(records []Record, path string) (int, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	n := 0
	for _, r := range records {
		ex := FineTuningExample{Messages: []ChatMessage{
			{Role: "user", Content: r.Field("user")},
			{Role: "assistant", Content: r.Field("assistant")},
		}}
		if err := enc.Encode(ex); err != nil {
			return 0, fmt.Errorf("dataset: encode: %w", err)
		}
		n++
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return 0, err
	}
	return n, nil
}

// Example file names written by WriteExamples.
const (
	ConversationalExampleFile = "example_conversational.json"
	ClassifierExampleFile     = "example_classifier.json"
)

// WriteExamples writes a small starter corpus for each schema into dir and
// returns the paths written.
func WriteExamples(dir string) ([]string, error) {
	conversational := []Record{
		{"user": "What are your opening hours?", "assistant": "We are open Monday to Saturday, 9:00 AM to 6:00 PM.", "context": "general_info"},
		{"user": "How can I book an appointment?", "assistant": "You can book through our WhatsApp line, the web form, or by calling us directly.", "context": "booking"},
		{"user": "How much is a manicure?", "assistant": "A manicure starts at $50. The final price depends on the design and technique.", "context": "pricing"},
		{"user": "Where are you located?", "assistant": "We are in Bogotá, Colombia. The exact address is on our contact page.", "context": "location"},
		{"user": "What services do you offer?", "assistant": "We offer manicure, pedicure, nail art, sculpted acrylics and skin care.", "context": "services"},
	}
	classifier := []Record{
		{"text": "What are your hours?", "label": "hours_inquiry"},
		{"text": "I want to book an appointment", "label": "booking_request"},
		{"text": "How much does it cost?", "label": "price_inquiry"},
		{"text": "Where are you?", "label": "location_inquiry"},
		{"text": "What services do you have?", "label": "services_inquiry"},
		{"text": "I need to change my appointment", "label": "booking_change"},
		{"text": "Do you accept cards?", "label": "payment_inquiry"},
		{"text": "Do you have parking?", "label": "facilities_inquiry"},
	}

	files := []struct {
		name    string
		records []Record
	}{
		{ConversationalExampleFile, conversational},
		{ClassifierExampleFile, classifier},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := Save(f.records, p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}
