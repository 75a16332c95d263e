package agent

import (
	"context"
	"fmt"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/dataset"
)

var _ Agent = (*Custom)(nil)

// Custom is a template for user-defined agents. It echoes its input with a
// time of day.
type Custom struct {
	Base
}

// NewCustom builds a custom agent.
func NewCustom(cfg *agentcfg.Config, opts *Options) *Custom {
	a := &Custom{Base: newBase(cfg, opts)}
	a.logger.Info("agent: custom agent ready")
	return a
}

func (a *Custom) Kind() Kind { return KindCustom }

// Setting returns a value from the configuration sections outside the
// built-in ones, addressed by a dotted path such as "custom.greeting".
func (a *Custom) Setting(path string) (any, bool) {
	return a.cfg.Lookup(path)
}

func (a *Custom) Process(_ context.Context, input string, _ ...ProcessOption) string {
	out := fmt.Sprintf("[%s] Echo: %s", a.now().Format("15:04:05"), input)
	a.AddToHistory(input, out)
	return out
}

func (a *Custom) Train(_ context.Context, examples []dataset.Record, _ ...TrainOption) (string, error) {
	a.logger.Info("agent: custom training not implemented", "examples", len(examples))
	return "", nil
}
