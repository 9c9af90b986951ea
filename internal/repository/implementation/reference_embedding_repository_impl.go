package implementation

import (
	"context"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/mapper"
	"oss-clearance-be/internal/model"
	"oss-clearance-be/internal/repository/contract"
	"oss-clearance-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ReferenceEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReferenceEmbeddingMapper
}

func NewReferenceEmbeddingRepository(db *gorm.DB) contract.ReferenceEmbeddingRepository {
	return &ReferenceEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewReferenceEmbeddingMapper(),
	}
}

func (r *ReferenceEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReferenceEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ReferenceEmbedding) error {
	models := make([]*model.ReferenceEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ReferenceEmbeddingRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.ReferenceEmbedding{}).Error
}

func (r *ReferenceEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ReferenceEmbedding{}).Count(&count).Error
	return count, err
}

// Nearest returns the documents closest to vector by cosine distance.
func (r *ReferenceEmbeddingRepositoryImpl) Nearest(ctx context.Context, vector []float32, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	var docs []string
	err := r.db.WithContext(ctx).
		Model(&model.ReferenceEmbedding{}).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(vector))).
		Limit(limit).
		Pluck("document", &docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
