package agent

import (
	"context"
	"fmt"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/dataset"
	"github.com/haivivi/agentkit/pkg/generators"
)

var _ Agent = (*Conversational)(nil)

// Conversational answers through a text-generation backend, framing each
// turn with the configured system prompt, few-shot examples and recent
// history.
type Conversational struct {
	Base

	provider string
	model    string

	// gen is nil when the backend could not be set up.
	gen generators.Generator
}

// NewConversational builds a conversational agent. A backend that cannot be
// built (unsupported provider, missing credentials) leaves the agent in a
// degraded state where Process reports NotConfiguredMessage.
func NewConversational(cfg *agentcfg.Config, opts *Options) *Conversational {
	a := &Conversational{
		Base:     newBase(cfg, opts),
		provider: cfg.Provider(),
		model:    cfg.ModelName(),
	}
	gen, err := opts.registry().New(generators.Options{
		Provider: a.provider,
		Model:    a.model,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.Model.BaseURL,
		Logger:   a.logger,
	})
	if err != nil {
		a.logger.Warn("agent: text generation disabled", "provider", a.provider, "error", err)
		return a
	}
	a.gen = gen
	a.logger.Info("agent: backend ready", "provider", a.provider, "model", a.model)
	return a
}

func (a *Conversational) Kind() Kind { return KindConversational }

// Ready reports whether a backend is available.
func (a *Conversational) Ready() bool { return a.gen != nil }

func (a *Conversational) Process(ctx context.Context, input string, opts ...ProcessOption) string {
	if a.gen == nil {
		return NotConfiguredMessage
	}
	o := newProcessOptions(opts)
	messages := a.Messages(input, o.context)
	params := a.params(o)

	answer, err := a.gen.Generate(ctx, messages, params)
	if err != nil {
		a.logger.Error("agent: generate failed", "provider", a.provider, "error", err)
		return fmt.Sprintf("Sorry, an error occurred: %v", err)
	}
	a.AddToHistory(input, answer)
	return answer
}

// Messages assembles the conversation sent for input: system prompt,
// few-shot pairs, the last memory.max_messages interactions oldest first,
// the optional extra context, and finally input itself.
func (a *Conversational) Messages(input, extra string) []generators.Message {
	var msgs []generators.Message
	if p := a.cfg.Prompts.SystemPrompt; p != "" {
		msgs = append(msgs, generators.Message{Role: generators.RoleSystem, Content: p})
	}
	for _, ex := range a.cfg.Prompts.FewShotExamples {
		msgs = append(msgs,
			generators.Message{Role: generators.RoleUser, Content: ex.User},
			generators.Message{Role: generators.RoleAssistant, Content: ex.Assistant},
		)
	}
	for _, it := range a.recent(a.cfg.MaxMessages()) {
		msgs = append(msgs,
			generators.Message{Role: generators.RoleUser, Content: it.User},
			generators.Message{Role: generators.RoleAssistant, Content: it.Agent},
		)
	}
	if extra != "" {
		msgs = append(msgs, generators.Message{Role: generators.RoleSystem, Content: "Context: " + extra})
	}
	return append(msgs, generators.Message{Role: generators.RoleUser, Content: input})
}

// params resolves generation parameters: call option, then configuration,
// then defaults.
func (a *Conversational) params(o *processOptions) generators.Params {
	p := a.cfg.GenerationParams()
	out := generators.Params{Temperature: p.Temperature, MaxTokens: p.MaxTokens, TopP: p.TopP}
	if o.temperature != nil {
		out.Temperature = *o.temperature
	}
	if o.maxTokens != nil {
		out.MaxTokens = *o.maxTokens
	}
	if o.topP != nil {
		out.TopP = *o.topP
	}
	return out
}

// Train has nothing to fit: pre-trained models are used as is. When asked,
// or when training.fine_tuning is set, the examples are exported as chat
// fine-tuning data instead.
func (a *Conversational) Train(ctx context.Context, examples []dataset.Record, opts ...TrainOption) (string, error) {
	a.logger.Info("agent: pre-trained language models need no training")
	o := newTrainOptions(opts)
	if !o.export && !a.cfg.Training.FineTuning {
		return "", nil
	}
	path := o.exportPath
	if path == "" {
		path = a.cfg.FineTuningOutput()
	}
	n, err := dataset.ExportFineTuning(examples, path)
	if err != nil {
		return "", fmt.Errorf("agent: export fine-tuning data: %w", err)
	}
	a.logger.Info("agent: fine-tuning data written", "path", path, "examples", n)
	return fmt.Sprintf("exported %d fine-tuning examples to %s", n, path), nil
}
