// Package agent defines the agent contract and its variants.
//
// Every agent is named, versioned and configured from an agentcfg document,
// records its interactions, and can be persisted to a snapshot and restored.
// The variants differ in what Process and Train do:
//
//   - Conversational delegates each turn to a text-generation backend.
//   - Classifier trains and queries a local statistical text classifier.
//   - Custom is a minimal echo agent to copy from.
//
// Agents are not safe for concurrent use; create one per caller.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/dataset"
)

// Sentinel replies returned by Process instead of errors.
const (
	NotConfiguredMessage = "Sorry, the agent is not configured correctly. Check your API key."
	NotTrainedMessage    = "The model is not trained. Run Train first."
)

// ErrUnknownKind is returned for an agent kind outside the known set.
var ErrUnknownKind = errors.New("agent: unknown kind")

// Kind identifies an agent variant.
type Kind string

const (
	KindConversational Kind = "conversational"
	KindClassifier     Kind = "classifier"
	KindCustom         Kind = "custom"
)

// Kinds lists every known kind.
var Kinds = []Kind{KindConversational, KindClassifier, KindCustom}

// ParseKind returns the kind named s, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", unknownKind(s)
}

func unknownKind(s string) error {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return fmt.Errorf("%w %q, available: %s", ErrUnknownKind, s, strings.Join(names, ", "))
}

// Agent is the capability set shared by every variant.
type Agent interface {
	Name() string
	Version() string
	Kind() Kind

	// Config returns a copy of the agent's configuration.
	Config() *agentcfg.Config

	// Process answers input. It never fails: degraded states and backend
	// errors come back as descriptive replies. Successful replies are
	// recorded in the history.
	Process(ctx context.Context, input string, opts ...ProcessOption) string

	// Train fits the agent to examples and returns a human-readable
	// summary, which may be empty.
	Train(ctx context.Context, examples []dataset.Record, opts ...TrainOption) (string, error)

	// Snapshot captures identity and configuration, stamped now.
	Snapshot() Snapshot

	// Save writes the snapshot to path, creating parent directories.
	Save(path string) error

	AddToHistory(user, output string)

	// History returns the last limit interactions, or all of them when
	// limit <= 0. The result is a copy.
	History(limit int) []Interaction

	ClearHistory()

	base() *Base
}

// Interaction is one recorded exchange.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Agent     string    `json:"agent"`
}

// ProcessOption overrides per-call behavior of Process.
type ProcessOption func(*processOptions)

type processOptions struct {
	context     string
	temperature *float64
	maxTokens   *int
	topP        *float64
}

func newProcessOptions(opts []ProcessOption) *processOptions {
	o := &processOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithContext adds late-bound context to a conversational turn.
func WithContext(text string) ProcessOption {
	return func(o *processOptions) { o.context = text }
}

// WithTemperature overrides the sampling temperature of one call.
func WithTemperature(v float64) ProcessOption {
	return func(o *processOptions) { o.temperature = &v }
}

// WithMaxTokens overrides the output token limit of one call.
func WithMaxTokens(v int) ProcessOption {
	return func(o *processOptions) { o.maxTokens = &v }
}

// WithTopP overrides nucleus sampling of one call.
func WithTopP(v float64) ProcessOption {
	return func(o *processOptions) { o.topP = &v }
}

// TrainOption tunes Train.
type TrainOption func(*trainOptions)

type trainOptions struct {
	export     bool
	exportPath string
}

func newTrainOptions(opts []TrainOption) *trainOptions {
	o := &trainOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFineTuningExport makes a conversational agent write its training
// examples as chat fine-tuning JSONL. An empty path uses the configured
// training.fine_tuning_output.
func WithFineTuningExport(path string) TrainOption {
	return func(o *trainOptions) {
		o.export = true
		o.exportPath = path
	}
}
