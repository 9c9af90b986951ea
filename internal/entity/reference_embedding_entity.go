package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReferenceEmbedding struct {
	Id             uuid.UUID
	Source         string
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
