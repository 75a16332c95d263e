package agent

import (
	"log/slog"
	"time"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/classifier"
	"github.com/haivivi/agentkit/pkg/generators"
)

// Options configures agent construction. The zero value is usable.
type Options struct {
	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger

	// Registry resolves text-generation providers. If nil, uses
	// generators.DefaultRegistry.
	Registry *generators.Registry

	// Now stamps interactions and snapshots. If nil, uses time.Now.
	Now func() time.Time

	// Classifier tunes classifier training. If nil, uses the defaults of
	// classifier.Train.
	Classifier *classifier.TrainOptions
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) registry() *generators.Registry {
	if o != nil && o.Registry != nil {
		return o.Registry
	}
	return generators.DefaultRegistry
}

func (o *Options) clock() func() time.Time {
	if o != nil && o.Now != nil {
		return o.Now
	}
	return time.Now
}

func (o *Options) classifierOptions() *classifier.TrainOptions {
	if o == nil {
		return nil
	}
	return o.Classifier
}

// New loads the configuration at configPath and builds an agent of kind.
// A missing configuration file yields an agent with default settings.
func New(kind Kind, configPath string, opts *Options) (Agent, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	cfg, err := agentcfg.Load(configPath, opts.logger())
	if err != nil {
		return nil, err
	}
	return NewFromConfig(kind, cfg, opts)
}

// NewFromConfig builds an agent of kind from an already loaded
// configuration. The agent keeps its own copy of cfg.
func NewFromConfig(kind Kind, cfg *agentcfg.Config, opts *Options) (Agent, error) {
	if cfg == nil {
		cfg = &agentcfg.Config{}
	}
	switch kind {
	case KindConversational:
		return NewConversational(cfg, opts), nil
	case KindClassifier:
		return NewClassifier(cfg, opts), nil
	case KindCustom:
		return NewCustom(cfg, opts), nil
	}
	return nil, unknownKind(string(kind))
}

func checkKind(kind Kind) error {
	for _, k := range Kinds {
		if k == kind {
			return nil
		}
	}
	return unknownKind(string(kind))
}
