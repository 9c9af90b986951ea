package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReferenceEmbedding is one embedded reference passage. The column has no
// fixed dimension so either embedding backend can fill it.
type ReferenceEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Source         string          `gorm:"type:varchar(255);index"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (ReferenceEmbedding) TableName() string {
	return "reference_embeddings"
}
