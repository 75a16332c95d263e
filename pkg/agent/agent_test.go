package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/dataset"
	"github.com/haivivi/agentkit/pkg/generators"
)

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// fakeBackend records every call and replies with reply or err.
type fakeBackend struct {
	reply  string
	err    error
	calls  int
	msgs   []generators.Message
	params generators.Params
}

func (f *fakeBackend) Generate(_ context.Context, msgs []generators.Message, p generators.Params) (string, error) {
	f.calls++
	f.msgs = slices.Clone(msgs)
	f.params = p
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testOptions(t *testing.T, backend generators.Generator) *Options {
	t.Helper()
	reg := generators.NewRegistry()
	if backend != nil {
		err := reg.Register("fake", func(generators.Options) (generators.Generator, error) { return backend, nil })
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return &Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: reg,
		Now:      func() time.Time { return fixedNow },
	}
}

func ptr[T any](v T) *T { return &v }

func fakeConfig() *agentcfg.Config {
	return &agentcfg.Config{
		Agent: agentcfg.AgentSection{Name: "Helper", Version: "2.0.0"},
		Model: agentcfg.ModelSection{Provider: "fake", ModelName: "m"},
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"conversational", "Classifier", " custom "} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	_, err := ParseKind("robot")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("ParseKind(robot) error = %v", err)
	}
	for _, k := range Kinds {
		if !strings.Contains(err.Error(), string(k)) {
			t.Errorf("error %q does not list %s", err, k)
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind("robot"), filepath.Join(t.TempDir(), "none.yaml"), testOptions(t, nil))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("New error = %v, want ErrUnknownKind", err)
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	doc := "agent:\n  name: FileBot\n  version: 0.3.0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := New(KindCustom, path, testOptions(t, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Name() != "FileBot" || a.Version() != "0.3.0" || a.Kind() != KindCustom {
		t.Errorf("agent = %s %s %s", a.Name(), a.Version(), a.Kind())
	}

	a, err = New(KindClassifier, filepath.Join(t.TempDir(), "missing.yaml"), testOptions(t, nil))
	if err != nil {
		t.Fatalf("New with missing config: %v", err)
	}
	if a.Name() != agentcfg.DefaultName || a.Version() != agentcfg.DefaultVersion {
		t.Errorf("defaults = %s %s", a.Name(), a.Version())
	}
}

func TestHistory(t *testing.T) {
	a := NewCustom(&agentcfg.Config{}, testOptions(t, nil))
	for i := range 4 {
		a.AddToHistory("u"+strconv.Itoa(i), "a"+strconv.Itoa(i))
	}

	got := a.History(2)
	if len(got) != 2 || got[0].User != "u2" || got[1].User != "u3" {
		t.Fatalf("History(2) = %+v", got)
	}
	got[0].User = "mutated"
	if a.History(0)[2].User != "u2" {
		t.Error("History returned internal storage")
	}
	if n := len(a.History(10)); n != 4 {
		t.Errorf("History(10) returned %d entries", n)
	}
	if n := len(a.History(0)); n != 4 {
		t.Errorf("History(0) returned %d entries", n)
	}
	if !a.History(1)[0].Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", a.History(1)[0].Timestamp)
	}

	a.ClearHistory()
	if n := len(a.History(0)); n != 0 {
		t.Errorf("after ClearHistory, %d entries", n)
	}
}

func TestConversationalMessages(t *testing.T) {
	cfg := fakeConfig()
	cfg.Prompts = agentcfg.PromptsSection{
		SystemPrompt: "Be brief.",
		FewShotExamples: []agentcfg.FewShotExample{
			{User: "ex-u1", Assistant: "ex-a1"},
			{User: "ex-u2", Assistant: "ex-a2"},
		},
	}
	cfg.Memory.MaxMessages = ptr(2)
	a := NewConversational(cfg, testOptions(t, &fakeBackend{}))
	for i := range 4 {
		a.AddToHistory("h-u"+strconv.Itoa(i), "h-a"+strconv.Itoa(i))
	}

	got := a.Messages("now?", "store closes at 6")
	want := []generators.Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "ex-u1"},
		{Role: "assistant", Content: "ex-a1"},
		{Role: "user", Content: "ex-u2"},
		{Role: "assistant", Content: "ex-a2"},
		{Role: "user", Content: "h-u2"},
		{Role: "assistant", Content: "h-a2"},
		{Role: "user", Content: "h-u3"},
		{Role: "assistant", Content: "h-a3"},
		{Role: "system", Content: "Context: store closes at 6"},
		{Role: "user", Content: "now?"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Messages() =\n%v\nwant\n%v", got, want)
	}

	// No system prompt, no context, memory disabled.
	cfg = fakeConfig()
	cfg.Memory.MaxMessages = ptr(0)
	a = NewConversational(cfg, testOptions(t, &fakeBackend{}))
	a.AddToHistory("old", "reply")
	got = a.Messages("hi", "")
	if want := []generators.Message{{Role: "user", Content: "hi"}}; !slices.Equal(got, want) {
		t.Errorf("Messages() = %v, want %v", got, want)
	}
}

func TestConversationalMemoryWindow(t *testing.T) {
	for _, k := range []int{1, 3, 5} {
		cfg := fakeConfig()
		cfg.Memory.MaxMessages = ptr(k)
		a := NewConversational(cfg, testOptions(t, &fakeBackend{}))
		for i := range k + 4 {
			a.AddToHistory("u"+strconv.Itoa(i), "a"+strconv.Itoa(i))
		}
		msgs := a.Messages("q", "")
		pairs := (len(msgs) - 1) / 2
		if pairs != k {
			t.Fatalf("k=%d: %d history pairs", k, pairs)
		}
		for p := range pairs {
			want := "u" + strconv.Itoa(4+p)
			if msgs[2*p].Content != want {
				t.Errorf("k=%d: pair %d user = %s, want %s", k, p, msgs[2*p].Content, want)
			}
		}
	}
}

func TestConversationalParams(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	cfg := fakeConfig()
	cfg.Agent.Parameters.Temperature = ptr(0.2)
	a := NewConversational(cfg, testOptions(t, backend))
	ctx := context.Background()

	a.Process(ctx, "x")
	if want := (generators.Params{Temperature: 0.2, MaxTokens: 500, TopP: 0.9}); backend.params != want {
		t.Errorf("params = %+v, want %+v", backend.params, want)
	}

	a.Process(ctx, "x", WithTemperature(1.1), WithMaxTokens(10), WithTopP(0.5))
	if want := (generators.Params{Temperature: 1.1, MaxTokens: 10, TopP: 0.5}); backend.params != want {
		t.Errorf("params = %+v, want %+v", backend.params, want)
	}
}

func TestConversationalProcess(t *testing.T) {
	backend := &fakeBackend{reply: "We open at nine."}
	a := NewConversational(fakeConfig(), testOptions(t, backend))
	ctx := context.Background()

	if !a.Ready() {
		t.Fatal("agent should be ready")
	}
	out := a.Process(ctx, "When do you open?", WithContext("hours"))
	if out != "We open at nine." {
		t.Fatalf("Process() = %q", out)
	}
	h := a.History(0)
	if len(h) != 1 || h[0].User != "When do you open?" || h[0].Agent != out {
		t.Fatalf("history = %+v", h)
	}

	backend.err = errors.New("rate limited")
	out = a.Process(ctx, "again")
	if !strings.HasPrefix(out, "Sorry, an error occurred:") || !strings.Contains(out, "rate limited") {
		t.Errorf("Process() on failure = %q", out)
	}
	if n := len(a.History(0)); n != 1 {
		t.Errorf("failed call changed history: %d entries", n)
	}
}

func TestConversationalDegraded(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	unsupported := fakeConfig()
	unsupported.Model.Provider = "nowhere"
	a := NewConversational(unsupported, testOptions(t, nil))
	if a.Ready() {
		t.Error("unsupported provider should disable the backend")
	}

	noKey := fakeConfig()
	noKey.Model.Provider = "openai"
	opts := testOptions(t, nil)
	opts.Registry = nil
	b := NewConversational(noKey, opts)

	for _, ag := range []*Conversational{a, b} {
		for range 2 {
			if out := ag.Process(context.Background(), "hi"); out != NotConfiguredMessage {
				t.Errorf("Process() = %q, want not-configured reply", out)
			}
		}
		if n := len(ag.History(0)); n != 0 {
			t.Errorf("degraded agent recorded %d interactions", n)
		}
	}
}

func TestConversationalTrainExport(t *testing.T) {
	backend := &fakeBackend{}
	a := NewConversational(fakeConfig(), testOptions(t, backend))
	examples := []dataset.Record{{"user": "hi", "assistant": "hello", "context": ""}}

	summary, err := a.Train(context.Background(), examples)
	if err != nil || summary != "" {
		t.Fatalf("Train without export = %q, %v", summary, err)
	}

	path := filepath.Join(t.TempDir(), "ft", "out.jsonl")
	summary, err = a.Train(context.Background(), examples, WithFineTuningExport(path))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !strings.Contains(summary, "1") {
		t.Errorf("summary = %q", summary)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if !strings.Contains(string(data), `"role":"assistant","content":"hello"`) {
		t.Errorf("export = %s", data)
	}

	cfg := fakeConfig()
	cfg.Training.FineTuning = true
	cfg.Training.FineTuningOutput = filepath.Join(t.TempDir(), "cfg.jsonl")
	c := NewConversational(cfg, testOptions(t, backend))
	if _, err := c.Train(context.Background(), examples); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if _, err := os.Stat(cfg.Training.FineTuningOutput); err != nil {
		t.Errorf("configured export missing: %v", err)
	}
	if backend.calls != 0 {
		t.Errorf("Train called the backend %d times", backend.calls)
	}
}

var categoryRE = regexp.MustCompile(`^Category: (\S+) \(confidence: (\d+\.\d{2})%\)$`)

func TestClassifier(t *testing.T) {
	a := NewClassifier(&agentcfg.Config{}, testOptions(t, nil))
	ctx := context.Background()

	if out := a.Process(ctx, "anything"); out != NotTrainedMessage {
		t.Fatalf("untrained Process() = %q", out)
	}
	if a.Classes() != nil {
		t.Error("untrained classifier has classes")
	}

	if _, err := a.Train(ctx, []dataset.Record{{"text": "alone", "label": "x"}}); err == nil {
		t.Error("training on one example should fail")
	}
	if out := a.Process(ctx, "anything"); out != NotTrainedMessage {
		t.Errorf("failed training changed state: %q", out)
	}

	examples := []dataset.Record{
		{"text": "what time do you open", "label": "hours"},
		{"text": "what are your opening hours", "label": "hours"},
		{"text": "how much is a manicure", "label": "price"},
		{"text": "price of a pedicure", "label": "price"},
		{"text": "where is the salon located", "label": "location"},
	}
	report, err := a.Train(ctx, examples)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !strings.Contains(report, "precision") {
		t.Errorf("report = %q", report)
	}
	classes := a.Classes()
	if !slices.Equal(classes, []string{"hours", "location", "price"}) {
		t.Errorf("Classes() = %v", classes)
	}

	out := a.Process(ctx, "how much is a manicure")
	m := categoryRE.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("Process() = %q, unexpected format", out)
	}
	if !slices.Contains(classes, m[1]) {
		t.Errorf("predicted %q, not a training label", m[1])
	}
	pct, err := strconv.ParseFloat(m[2], 64)
	if err != nil || pct < 0 || pct > 100 {
		t.Errorf("confidence %q out of range", m[2])
	}
	if h := a.History(0); len(h) != 1 || h[0].Agent != out {
		t.Errorf("history = %+v", h)
	}
}

func TestCustom(t *testing.T) {
	a := NewCustom(&agentcfg.Config{}, testOptions(t, nil))
	out := a.Process(context.Background(), "hello")
	if out != "[10:30:00] Echo: hello" {
		t.Errorf("Process() = %q", out)
	}
	if summary, err := a.Train(context.Background(), nil); err != nil || summary != "" {
		t.Errorf("Train() = %q, %v", summary, err)
	}
	if n := len(a.History(0)); n != 1 {
		t.Errorf("history has %d entries", n)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := fakeConfig()
	cfg.Prompts.SystemPrompt = "Be kind."
	cfg.Memory.MaxMessages = ptr(3)
	cfg.Agent.Parameters.TopP = ptr(0.5)

	opts := testOptions(t, &fakeBackend{reply: "ok"})
	a := NewConversational(cfg, opts)
	a.Process(context.Background(), "hi")

	first := filepath.Join(dir, "a", "b", "agent.json")
	if err := a.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The live config differs from the snapshot; the snapshot wins.
	live := filepath.Join(dir, "live.yaml")
	if err := os.WriteFile(live, []byte("agent:\n  name: Live\nmodel:\n  provider: fake\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(KindConversational, first, live, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Name() != "Helper" || b.Version() != "2.0.0" {
		t.Errorf("identity = %s %s", b.Name(), b.Version())
	}
	if b.Config().Prompts.SystemPrompt != "Be kind." {
		t.Errorf("config not restored: %+v", b.Config())
	}
	if n := len(b.History(0)); n != 0 {
		t.Errorf("loaded agent has %d history entries", n)
	}

	second := filepath.Join(dir, "again.json")
	if err := b.Save(second); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d1, _ := os.ReadFile(first)
	d2, _ := os.ReadFile(second)
	if string(d1) != string(d2) {
		t.Errorf("round trip changed snapshot:\n%s\n%s", d1, d2)
	}

	s, err := ReadSnapshot(second)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !s.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", s.Timestamp)
	}
}

func TestLoadEmptySnapshotConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.json")
	doc := `{"name":"Old","version":"0.1.0","config":{},"timestamp":"2026-01-01T00:00:00Z"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	live := filepath.Join(dir, "live.yaml")
	if err := os.WriteFile(live, []byte("prompts:\n  system_prompt: live prompt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Load(KindCustom, path, live, testOptions(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Name() != "Old" || a.Version() != "0.1.0" {
		t.Errorf("identity = %s %s", a.Name(), a.Version())
	}
	if a.Config().Prompts.SystemPrompt != "live prompt" {
		t.Error("empty snapshot config should keep the live config")
	}

	if _, err := Load(KindCustom, filepath.Join(dir, "missing.json"), live, testOptions(t, nil)); err == nil {
		t.Error("Load of a missing snapshot should fail")
	}
}

func TestSnapshotKeepsExtraSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.json")
	doc := `{"name":"A","version":"1.0.0","config":{"agent":{"name":"A"},"custom":{"greeting":"hola"},"data":{"path":"x"}},"timestamp":"2026-01-01T00:00:00Z"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Load(KindCustom, path, filepath.Join(dir, "none.yaml"), testOptions(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := a.(*Custom)
	if v, ok := c.Setting("custom.greeting"); !ok || v != "hola" {
		t.Errorf("Setting(custom.greeting) = %v, %v", v, ok)
	}

	resaved := filepath.Join(dir, "again.json")
	if err := a.Save(resaved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := ReadSnapshot(resaved)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	got, err := json.Marshal(s.Config)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"agent":{"name":"A"},"custom":{"greeting":"hola"},"data":{"path":"x"}}`; string(got) != want {
		t.Errorf("re-saved config = %s, want %s", got, want)
	}

	// A second save of the restored agent is byte-identical.
	b, err := Load(KindCustom, resaved, filepath.Join(dir, "none.yaml"), testOptions(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	third := filepath.Join(dir, "third.json")
	if err := b.Save(third); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d2, _ := os.ReadFile(resaved)
	d3, _ := os.ReadFile(third)
	if string(d2) != string(d3) {
		t.Errorf("snapshots differ:\n%s\n%s", d2, d3)
	}
}

func TestEvaluate(t *testing.T) {
	a := NewCustom(&agentcfg.Config{}, testOptions(t, nil))
	records := []dataset.Record{
		{"text": "Hello", "label": "hello"},
		{"user": "question", "assistant": "ECHO"},
		{"text": "abc", "label": "zzz"},
		{"text": "no expectation"},
	}
	m := Evaluate(context.Background(), a, records)
	if m.TotalSamples != 4 || m.CorrectPredictions != 2 || m.Accuracy != 0.5 {
		t.Errorf("Evaluate() = %+v", m)
	}

	path := filepath.Join(t.TempDir(), "out", "metrics.json")
	if err := SaveMetrics(m, path); err != nil {
		t.Fatalf("SaveMetrics: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"accuracy": 0.5`, `"total_samples": 4`, `"correct_predictions": 2`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("metrics file missing %s:\n%s", key, data)
		}
	}

	if got := Evaluate(context.Background(), a, nil); got != (Metrics{}) {
		t.Errorf("Evaluate(nil) = %+v", got)
	}
}
