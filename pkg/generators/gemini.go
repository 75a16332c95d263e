package generators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Generator = (*Gemini)(nil)

// Gemini implements Generator using the Google Gemini API.
type Gemini struct {
	Client *genai.Client

	// Model should not start with "models/"
	Model string
}

// NewGemini builds a Gemini generator.
func NewGemini(opts Options) (Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, opts.Provider)
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.httpClient(),
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{
		Client: client,
		Model:  strings.TrimPrefix(opts.Model, "models/"),
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, messages []Message, p Params) (string, error) {
	cfg, contents := g.convMessages(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("no contents")
	}
	temp := float32(p.Temperature)
	cfg.Temperature = &temp
	if p.TopP > 0 {
		topP := float32(p.TopP)
		cfg.TopP = &topP
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}

	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			err = apiErr.Unwrap()
		}
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates")
	}
	c := resp.Candidates[0]
	if c.FinishReason != "" && c.FinishReason != genai.FinishReasonStop && c.FinishReason != genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("unexpected finish reason: %s", c.FinishReason)
	}
	if c.Content == nil {
		return "", fmt.Errorf("no content")
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// convMessages moves the leading system messages into the system
// instruction. System messages after the first turn have no place in a
// Gemini conversation and are sent as user turns.
func (g *Gemini) convMessages(messages []Message) (*genai.GenerateContentConfig, []*genai.Content) {
	cfg := &genai.GenerateContentConfig{}
	var (
		system   []*genai.Part
		contents []*genai.Content
	)
	for _, m := range messages {
		switch {
		case m.Role == RoleSystem && len(contents) == 0:
			system = append(system, genai.NewPartFromText(m.Content))
		case m.Role == RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return cfg, contents
}
