package generators

import (
	"math"
	"strings"
)

// Usage counts the tokens of one or more generations.
type Usage struct {
	PromptTokenCount    int64 `json:"prompt_tokens" yaml:"prompt_tokens"`
	GeneratedTokenCount int64 `json:"generated_tokens" yaml:"generated_tokens"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokenCount:    u.PromptTokenCount + o.PromptTokenCount,
		GeneratedTokenCount: u.GeneratedTokenCount + o.GeneratedTokenCount,
	}
}

// Total is prompt plus generated tokens.
func (u Usage) Total() int64 {
	return u.PromptTokenCount + u.GeneratedTokenCount
}

// tokensPerWord approximates subword tokenizers on English-like text.
const tokensPerWord = 1.3

// EstimateTokens approximates the token count of text from its word count.
// It is a budget heuristic, not a tokenizer.
func EstimateTokens(text string) int64 {
	words := len(strings.Fields(text))
	return int64(math.Floor(float64(words) * tokensPerWord))
}

// EstimateUsage approximates the usage of a generation that sent messages
// and produced reply.
func EstimateUsage(messages []Message, reply string) Usage {
	var u Usage
	for _, m := range messages {
		u.PromptTokenCount += EstimateTokens(m.Content)
	}
	u.GeneratedTokenCount = EstimateTokens(reply)
	return u
}

// Price is the list price of a model in USD per 1000 tokens.
type Price struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
}

// Prices holds the known list prices, keyed by model name.
var Prices = map[string]Price{
	"gpt-4":           {Input: 0.03, Output: 0.06},
	"gpt-4-turbo":     {Input: 0.01, Output: 0.03},
	"gpt-3.5-turbo":   {Input: 0.0015, Output: 0.002},
	"claude-3-opus":   {Input: 0.015, Output: 0.075},
	"claude-3-sonnet": {Input: 0.003, Output: 0.015},
}

// EstimateCost returns the USD cost of u on model. ok is false when the
// model has no known price, in which case the cost is 0.
func EstimateCost(model string, u Usage) (cost float64, ok bool) {
	p, ok := Prices[strings.ToLower(strings.TrimPrefix(model, "models/"))]
	if !ok {
		return 0, false
	}
	return float64(u.PromptTokenCount)/1000*p.Input + float64(u.GeneratedTokenCount)/1000*p.Output, true
}
