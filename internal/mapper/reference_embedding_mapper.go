package mapper

import (
	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ReferenceEmbeddingMapper struct{}

func NewReferenceEmbeddingMapper() *ReferenceEmbeddingMapper {
	return &ReferenceEmbeddingMapper{}
}

func (m *ReferenceEmbeddingMapper) ToEntity(e *model.ReferenceEmbedding) *entity.ReferenceEmbedding {
	if e == nil {
		return nil
	}
	return &entity.ReferenceEmbedding{
		Id:             e.Id,
		Source:         e.Source,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ReferenceEmbeddingMapper) ToModel(e *entity.ReferenceEmbedding) *model.ReferenceEmbedding {
	if e == nil {
		return nil
	}
	return &model.ReferenceEmbedding{
		Id:             e.Id,
		Source:         e.Source,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}
