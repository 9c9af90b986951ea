package factory

import (
	"fmt"

	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/llm/ollama"
	"oss-clearance-be/pkg/llm/openai"
)

// NewLLMProvider builds the configured chat backend. apiKey is only used by
// OpenAI compatible endpoints.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
