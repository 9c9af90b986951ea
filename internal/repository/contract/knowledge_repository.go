package contract

import (
	"context"

	"oss-clearance-be/internal/repository/specification"
	"oss-clearance-be/pkg/knowledge"
)

// KnowledgeRepository is the Postgres knowledge base.
type KnowledgeRepository interface {
	knowledge.Base
	// Import replaces the whole knowledge base with ds.
	Import(ctx context.Context, ds knowledge.Dataset) error
	CountComponents(ctx context.Context, specs ...specification.Specification) (int64, error)
	CountNotes(ctx context.Context) (int64, error)
}
