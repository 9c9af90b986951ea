// Package retrieval looks up reference notes about licenses and components
// to ground the risk and dependency checks of the analysis pipeline.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/embedding"
)

// Retriever returns reference passages relevant to a query, best first.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Index is the nearest-neighbour side of a vector store.
type Index interface {
	Nearest(ctx context.Context, vector []float32, limit int) ([]string, error)
}

// Nop finds nothing. It is used when no vector store is configured.
type Nop struct{}

func (Nop) Search(context.Context, string, int) ([]string, error) {
	return nil, nil
}

// Vector embeds the query and asks the index for its neighbours.
type Vector struct {
	embedder embedding.Provider
	index    Index
}

func NewVector(embedder embedding.Provider, index Index) *Vector {
	return &Vector{embedder: embedder, index: index}
}

func (v *Vector) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return v.index.Nearest(ctx, vec, limit)
}

// Context joins passages into one prompt block.
func Context(passages []string) string {
	if len(passages) == 0 {
		return "No reference material found."
	}
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(strings.TrimSpace(p))
	}
	return b.String()
}
