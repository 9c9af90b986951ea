// Package embedding turns reference texts and search queries into unit
// vectors for the pgvector index.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider is implemented by every embedding backend.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions is the length of the vectors returned by Embed.
	Dimensions() int
}

// NewProvider builds the configured backend.
func NewProvider(providerType, model, baseURL, apiKey string) (Provider, error) {
	switch providerType {
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai embeddings require an API key")
		}
		return NewOpenAIProvider(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}

// normalizeVector scales vec to unit length. Cosine distance in pgvector
// expects normalized input.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
