package agent

import (
	"log/slog"
	"slices"
	"time"

	"github.com/haivivi/agentkit/pkg/agentcfg"
)

// Base carries the state every variant shares: identity, configuration and
// interaction history. Variants embed it.
type Base struct {
	name    string
	version string
	cfg     *agentcfg.Config
	history []Interaction

	logger *slog.Logger
	now    func() time.Time
}

func newBase(cfg *agentcfg.Config, opts *Options) Base {
	cfg = cfg.Clone()
	b := Base{
		name:    cfg.Name(),
		version: cfg.Version(),
		cfg:     cfg,
		logger:  opts.logger(),
		now:     opts.clock(),
	}
	b.logger.Info("agent: initializing", "name", b.name, "version", b.version)
	return b
}

func (b *Base) base() *Base { return b }

func (b *Base) Name() string    { return b.name }
func (b *Base) Version() string { return b.version }

func (b *Base) Config() *agentcfg.Config {
	return b.cfg.Clone()
}

func (b *Base) AddToHistory(user, output string) {
	b.history = append(b.history, Interaction{
		Timestamp: b.now(),
		User:      user,
		Agent:     output,
	})
}

func (b *Base) History(limit int) []Interaction {
	h := b.history
	if limit > 0 && limit < len(h) {
		h = h[len(h)-limit:]
	}
	return slices.Clone(h)
}

func (b *Base) ClearHistory() {
	b.history = nil
}

// recent returns the last n interactions without copying; n <= 0 yields
// none.
func (b *Base) recent(n int) []Interaction {
	if n <= 0 {
		return nil
	}
	if n >= len(b.history) {
		return b.history
	}
	return b.history[len(b.history)-n:]
}
