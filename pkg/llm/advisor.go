// Package llm wraps the language-model provider used by the expert-help
// tool behind a narrow Advisor interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Advisor answers a free-form question about a NiFi flow.
type Advisor interface {
	Advise(ctx context.Context, question, flowContext string) (string, error)
}

// Config selects and authenticates the model provider.
type Config struct {
	Provider string // currently "openai"
	Model    string
	APIKey   string
}

// systemPrompt frames the model as a NiFi expert and keeps answers concrete.
const systemPrompt = `You are an Apache NiFi expert. Answer the question using the
flow context provided. Be specific: name processors, properties and
relationships. If the context is insufficient, say what is missing.`

// openaiAdvisor implements Advisor on the OpenAI chat API.
type openaiAdvisor struct {
	model *openai.LLM
}

// New builds an Advisor from config. An empty API key is an error; the
// expert-help tool must be disabled rather than fail at call time.
func New(cfg Config) (Advisor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	switch cfg.Provider {
	case "", "openai":
		model, err := openai.New(
			openai.WithModel(defaultModel(cfg.Model)),
			openai.WithToken(cfg.APIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("llm: initializing openai client: %w", err)
		}
		return &openaiAdvisor{model: model}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func defaultModel(model string) string {
	if model == "" {
		return "gpt-4o"
	}
	return model
}

func (a *openaiAdvisor) Advise(ctx context.Context, question, flowContext string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString(systemPrompt)
	prompt.WriteString("\n\n")
	if flowContext != "" {
		prompt.WriteString("Flow context:\n")
		prompt.WriteString(flowContext)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(question)

	answer, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt.String())
	if err != nil {
		return "", fmt.Errorf("llm: generating answer: %w", err)
	}
	return answer, nil
}
