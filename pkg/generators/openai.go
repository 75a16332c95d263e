package generators

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

var _ Generator = (*OpenAI)(nil)

// AnthropicBaseURL is Anthropic's OpenAI-compatible endpoint.
const AnthropicBaseURL = "https://api.anthropic.com/v1/"

// OpenAI implements Generator over the chat completions API. Any service
// speaking that API works through BaseURL.
type OpenAI struct {
	Client *openai.Client

	Model string

	// UseMaxTokens sends the legacy max_tokens field instead of
	// max_completion_tokens, for compatible endpoints that only accept it.
	UseMaxTokens bool
}

// NewOpenAI builds an OpenAI generator.
func NewOpenAI(opts Options) (Generator, error) {
	return newOpenAI(opts, false)
}

// NewAnthropic builds a generator for Anthropic models through their
// OpenAI-compatible endpoint.
func NewAnthropic(opts Options) (Generator, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = AnthropicBaseURL
	}
	return newOpenAI(opts, true)
}

func newOpenAI(opts Options, useMaxTokens bool) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, opts.Provider)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if hc := opts.httpClient(); hc != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(hc))
	}
	client := openai.NewClient(reqOpts...)
	return &OpenAI{
		Client:       &client,
		Model:        opts.Model,
		UseMaxTokens: useMaxTokens,
	}, nil
}

func (g *OpenAI) Generate(ctx context.Context, messages []Message, p Params) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}
	params := openai.ChatCompletionNewParams{
		Messages:    g.convMessages(messages),
		Model:       g.Model,
		Temperature: param.NewOpt(p.Temperature),
	}
	if p.TopP > 0 {
		params.TopP = param.NewOpt(p.TopP)
	}
	if p.MaxTokens > 0 {
		if g.UseMaxTokens {
			params.MaxTokens = param.NewOpt(int64(p.MaxTokens))
		} else {
			params.MaxCompletionTokens = param.NewOpt(int64(p.MaxTokens))
		}
	}

	resp, err := g.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("blocked: %s", choice.Message.Refusal)
	}
	return choice.Message.Content, nil
}

func (g *OpenAI) convMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
