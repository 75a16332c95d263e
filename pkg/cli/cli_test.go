package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	data := []map[string]any{{"input": "<hi>", "output": "ok"}}
	if err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}

	var result []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result[0]["input"] != "<hi>" {
		t.Errorf("input = %v", result[0]["input"])
	}
	if !strings.Contains(buf.String(), "<hi>") {
		t.Errorf("HTML should not be escaped: %s", buf.String())
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]any{"name": "test"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: test") {
		t.Errorf("Output should contain 'name: test', got: %s", buf.String())
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("plain text", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if buf.String() != "plain text" {
		t.Errorf("raw = %q", buf.String())
	}
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	if err := Output([]int{1, 2}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "1") {
		t.Errorf("file = %s", data)
	}
}

func TestOutput_Unsupported(t *testing.T) {
	if err := Output(1, OutputOptions{Format: "table", Writer: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unsupported format")
	}
	path := filepath.Join(t.TempDir(), "never.txt")
	if err := Output(1, OutputOptions{Format: "table", File: path}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unsupported format created %s", path)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
	if f, err := ParseFormat(""); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
}

func TestPrintHelpers(t *testing.T) {
	var out, errOut bytes.Buffer
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })

	PrintSuccess("saved %s", "agent.json")
	PrintInfo("loaded %d", 3)
	PrintWarning("careful")
	PrintError("boom")

	want := "✓ saved agent.json\nℹ loaded 3\n⚠ careful\n"
	if out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
	if errOut.String() != "Error: boom\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	if got := FormatPercent(0.8571); got != "85.71%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := MaskAPIKey("sk-1234567890abcd"); got != "sk-1*********abcd" {
		t.Errorf("MaskAPIKey = %q", got)
	}
	if got := MaskAPIKey("short"); got != "*****" {
		t.Errorf("MaskAPIKey(short) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 200)
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{long, 50, strings.Repeat("a", 47) + "..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
		{"abcdef", -1, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.s, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
	if got := Truncate(long, 50); len(got) > 50 || !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate(long, 50) = %q", got)
	}
}

func TestBanner(t *testing.T) {
	s := NewStyles(DefaultTheme)
	b := s.Banner("Helper v1.0.0", "Type 'exit' to quit", "x")
	lines := strings.Split(b, "\n")
	if len(lines) != 6 {
		t.Fatalf("banner has %d lines:\n%s", len(lines), b)
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Errorf("line %d width %d, want %d: %q", i, lipgloss.Width(l), w, l)
		}
	}
	if !strings.Contains(b, "Helper v1.0.0") || !strings.Contains(b, "exit") {
		t.Errorf("banner missing text:\n%s", b)
	}
	if got := lipgloss.Width(s.Banner("only")); got == 0 {
		t.Error("empty banner")
	}
}
