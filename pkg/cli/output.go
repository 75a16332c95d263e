package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Stdout and Stderr receive Output without a destination and the status
// lines. Commands point them at their own streams; tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// OutputFormat selects how Output renders a value.
type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"

	// FormatRaw writes strings and byte slices unchanged and falls back to
	// YAML for anything else.
	FormatRaw OutputFormat = "raw"
)

type encoder func(w io.Writer, v any, opts OutputOptions) error

var encoders = map[OutputFormat]encoder{
	FormatYAML: encodeYAML,
	FormatJSON: encodeJSON,
	FormatRaw:  encodeRaw,
}

// ParseFormat checks a --format value. The empty string selects YAML.
func ParseFormat(s string) (OutputFormat, error) {
	if s == "" {
		return FormatYAML, nil
	}
	f := OutputFormat(s)
	if _, ok := encoders[f]; !ok {
		return "", fmt.Errorf("unsupported output format %q (want yaml, json or raw)", s)
	}
	return f, nil
}

// OutputOptions says where and how Output writes.
type OutputOptions struct {
	Format OutputFormat

	// Writer wins over File. With neither set, Output writes to Stdout.
	Writer io.Writer

	// File is created or truncated, along with its parent directories.
	File string

	// Indent is the JSON indentation unit, two spaces when empty.
	Indent string
}

// Output renders v in opts.Format. An unsupported format fails before any
// file is touched.
func Output(v any, opts OutputOptions) error {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return err
	}
	enc := encoders[format]

	switch {
	case opts.Writer != nil:
		return enc(opts.Writer, v, opts)
	case opts.File == "":
		return enc(Stdout, v, opts)
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(opts.File)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := enc(f, v, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeJSON(w io.Writer, v any, opts OutputOptions) error {
	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	e := json.NewEncoder(w)
	e.SetIndent("", indent)
	e.SetEscapeHTML(false)
	return e.Encode(v)
}

func encodeYAML(w io.Writer, v any, _ OutputOptions) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func encodeRaw(w io.Writer, v any, opts OutputOptions) error {
	var err error
	switch v := v.(type) {
	case string:
		_, err = io.WriteString(w, v)
	case []byte:
		_, err = w.Write(v)
	default:
		err = encodeYAML(w, v, opts)
	}
	return err
}

// Status lines. Errors go to Stderr, everything else to Stdout.

func PrintSuccess(format string, args ...any) { statusLine(Stdout, "✓", format, args) }
func PrintInfo(format string, args ...any)    { statusLine(Stdout, "ℹ", format, args) }
func PrintWarning(format string, args ...any) { statusLine(Stdout, "⚠", format, args) }
func PrintError(format string, args ...any)   { statusLine(Stderr, "Error:", format, args) }

func statusLine(w io.Writer, mark, format string, args []any) {
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
