package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{"unit", []float32{3, 4}, []float32{0.6, 0.8}},
		{"zero stays zero", []float32{0, 0}, []float32{0, 0}},
		{"empty", []float32{}, []float32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeVector(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "GPL-2.0 obligations", req.Prompt)
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{0, 2, 0}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "")
	got, err := p.Embed(context.Background(), "GPL-2.0 obligations")

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, got)
	assert.Equal(t, 768, p.Dimensions())
}

func TestOllamaEmbedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Embed(context.Background(), "x")

	assert.ErrorContains(t, err, "model not found")
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("ollama", "", "", "")
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, p)

	_, err = NewProvider("openai", "", "", "")
	assert.Error(t, err)

	_, err = NewProvider("gemini", "", "", "")
	assert.Error(t, err)

	p, err = NewProvider("openai", "", "", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, 1536, p.Dimensions())
}
