package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/kaptinlin/jsonrepair"
)

// LoadOptions tunes Load.
type LoadOptions struct {
	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger

	// Repair attempts to fix malformed JSON before giving up on a document.
	Repair bool

	// Query is an optional jq expression applied to every JSON document (and
	// every JSON line) to pick the records out of it, e.g. ".data[]".
	Query string

	query *gojq.Query
}

func (o *LoadOptions) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *LoadOptions) compile() error {
	if o == nil || o.Query == "" || o.query != nil {
		return nil
	}
	q, err := gojq.Parse(o.Query)
	if err != nil {
		return fmt.Errorf("dataset: invalid jq expression %q: %w", o.Query, err)
	}
	o.query = q
	return nil
}

// Supported reports whether the file extension of path has a loader.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".csv":
		return true
	}
	return false
}

// Load reads training records from a file or a directory.
//
// A file is dispatched on its extension (.json, .jsonl, .csv); unsupported
// extensions yield no records. A directory loads every regular file in it,
// in name order, skipping unsupported files; a file that fails to load is
// logged and skipped so one bad file does not abort the corpus. A path that
// is neither yields no records.
func Load(path string, opts *LoadOptions) ([]Record, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}
	if err := opts.compile(); err != nil {
		return nil, err
	}
	log := opts.logger()

	info, err := os.Stat(path)
	if err != nil {
		log.Error("dataset: invalid path", "path", path, "error", err)
		return nil, nil
	}

	var records []Record
	switch {
	case info.Mode().IsRegular():
		log.Info("dataset: loading file", "path", path)
		if !Supported(path) {
			log.Warn("dataset: unsupported format", "path", path)
			return nil, nil
		}
		records, err = loadFile(path, opts)
		if err != nil {
			return nil, err
		}
	case info.IsDir():
		log.Info("dataset: loading directory", "path", path)
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("dataset: read dir %s: %w", path, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || !Supported(e.Name()) {
				continue
			}
			file := filepath.Join(path, e.Name())
			recs, err := loadFile(file, opts)
			if err != nil {
				log.Error("dataset: skipping file", "path", file, "error", err)
				continue
			}
			records = append(records, recs...)
		}
	default:
		log.Error("dataset: invalid path", "path", path)
		return nil, nil
	}

	log.Info("dataset: records loaded", "count", len(records))
	return records, nil
}

func loadFile(path string, opts *LoadOptions) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path, opts)
	case ".jsonl":
		return loadJSONL(path, opts)
	case ".csv":
		return LoadCSV(path)
	}
	return nil, fmt.Errorf("dataset: unsupported format: %s", path)
}

// LoadJSON reads a JSON file holding either an array of objects or a single
// object.
func LoadJSON(path string) ([]Record, error) {
	return loadJSON(path, nil)
}

// LoadJSONL reads a newline-delimited JSON file, one object per line.
// Blank lines are ignored.
func LoadJSONL(path string) ([]Record, error) {
	return loadJSONL(path, nil)
}

func loadJSON(path string, opts *LoadOptions) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := decodeJSON(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	values, err := extract(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return toRecords(values, path, opts.logger()), nil
}

func loadJSONL(path string, opts *LoadOptions) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		doc, err := decodeJSON(line, opts)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		values, err := extract(doc, opts)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		out = append(out, toRecords(values, path, opts.logger())...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCSV reads a CSV file whose first row is the header. Every value is a
// string; short rows leave the trailing columns unset.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var out []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeJSON unmarshals data, repairing it first when enabled and the
// document has a syntax error.
func decodeJSON(data []byte, opts *LoadOptions) (any, error) {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return v, nil
	}
	var syntaxErr *json.SyntaxError
	if opts == nil || !opts.Repair || !errors.As(err, &syntaxErr) {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, fmt.Errorf("%w (repair failed: %v)", err, rerr)
	}
	opts.logger().Warn("dataset: repaired malformed json", "error", err)
	if err := json.Unmarshal([]byte(fixed), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// extract runs the jq query over doc, or returns doc unchanged.
func extract(doc any, opts *LoadOptions) ([]any, error) {
	if opts == nil || opts.query == nil {
		return []any{doc}, nil
	}
	var out []any
	it := opts.query.Run(doc)
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq %q: %w", opts.Query, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// toRecords flattens decoded values into records. Arrays contribute their
// object elements; anything that is not an object is dropped with a warning.
func toRecords(values []any, path string, log *slog.Logger) []Record {
	var out []Record
	for _, v := range values {
		switch v := v.(type) {
		case map[string]any:
			out = append(out, Record(v))
		case []any:
			for i, e := range v {
				m, ok := e.(map[string]any)
				if !ok {
					log.Warn("dataset: ignoring non-object element", "path", path, "index", i)
					continue
				}
				out = append(out, Record(m))
			}
		default:
			log.Warn("dataset: unexpected json value", "path", path, "type", fmt.Sprintf("%T", v))
		}
	}
	return out
}
