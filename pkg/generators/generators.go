// Package generators provides chat text-generation backends behind a single
// Generator interface, and a registry that builds them by provider name.
package generators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrUnsupportedProvider is returned when no constructor is registered
	// for the requested provider.
	ErrUnsupportedProvider = errors.New("generators: unsupported provider")

	// ErrMissingAPIKey is returned by constructors when no API key resolved.
	ErrMissingAPIKey = errors.New("generators: missing api key")
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the sampling parameters of a single generation.
type Params struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

// DefaultParams are used when neither the caller nor the configuration sets
// a value.
var DefaultParams = Params{Temperature: 0.7, MaxTokens: 500, TopP: 0.9}

// Generator produces the next assistant message for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message, params Params) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, messages []Message, params Params) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, messages []Message, params Params) (string, error) {
	return f(ctx, messages, params)
}

// Options describe the backend to build.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	// HTTPClient is optional. If nil, the SDK default client is used.
	HTTPClient *http.Client

	// Logger is optional. Request bodies are logged at debug level when the
	// logger has debug enabled.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
