package unitofwork

import (
	"context"

	"oss-clearance-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeRepository() contract.KnowledgeRepository
	ReferenceEmbeddingRepository() contract.ReferenceEmbeddingRepository
}
