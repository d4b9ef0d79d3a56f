// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/cryptodesk/internal/config"
	"github.com/newthinker/cryptodesk/internal/llm"
	"github.com/newthinker/cryptodesk/internal/llm/claude"
	"github.com/newthinker/cryptodesk/internal/llm/ollama"
	"github.com/newthinker/cryptodesk/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider name
// returns a nil provider: answers are then built from the fallback template.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.NewWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
