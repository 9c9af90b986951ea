package embedding

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the embeddings API of OpenAI or a compatible server.
type OpenAIProvider struct {
	client *goopenai.Client
	model  goopenai.EmbeddingModel
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	m := goopenai.SmallEmbedding3
	if model != "" {
		m = goopenai.EmbeddingModel(model)
	}
	return &OpenAIProvider{client: goopenai.NewClientWithConfig(cfg), model: m}
}

func (p *OpenAIProvider) Dimensions() int {
	if p.model == goopenai.LargeEmbedding3 {
		return 3072
	}
	return 1536
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: empty data")
	}
	return normalizeVector(resp.Data[0].Embedding), nil
}
