package contract

import (
	"context"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/repository/specification"
	"oss-clearance-be/pkg/retrieval"
)

type ReferenceEmbeddingRepository interface {
	retrieval.Index
	CreateBulk(ctx context.Context, embeddings []*entity.ReferenceEmbedding) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
