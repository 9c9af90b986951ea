package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/repository/unitofwork"
	"oss-clearance-be/pkg/embedding"
	"oss-clearance-be/pkg/knowledge"

	"github.com/google/uuid"
)

// ImportStats summarizes one knowledge base import.
type ImportStats struct {
	Components int
	Notes      int
	References int
}

type IKnowledgeService interface {
	Import(ctx context.Context, ds knowledge.Dataset) (*ImportStats, error)
	// Stats counts what is currently stored.
	Stats(ctx context.Context) (*ImportStats, error)
}

type knowledgeService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Provider
	log        logger.ILogger
}

// NewKnowledgeService loads datasets into Postgres. Without an embedder the
// reference index is left empty.
func NewKnowledgeService(uowFactory unitofwork.RepositoryFactory, embedder embedding.Provider, log logger.ILogger) IKnowledgeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &knowledgeService{uowFactory: uowFactory, embedder: embedder, log: log}
}

// ReferenceDocuments turns the notes and component assessments of a dataset
// into the passages the risk and dependency checks retrieve.
func ReferenceDocuments(ds knowledge.Dataset) []*entity.ReferenceEmbedding {
	var out []*entity.ReferenceEmbedding
	for i, n := range ds.Notes {
		if strings.TrimSpace(n.Description) == "" {
			continue
		}
		out = append(out, &entity.ReferenceEmbedding{
			Source:   fmt.Sprintf("note:%s:%d", n.Kind, i),
			Document: fmt.Sprintf("License: %s\nKind: %s\n\n%s", n.License, n.Kind, n.Description),
		})
	}
	for _, c := range ds.Components {
		if strings.TrimSpace(c.GeneralAssessment) == "" && strings.TrimSpace(c.AdditionalNotes) == "" {
			continue
		}
		names := make([]string, 0, len(c.Licenses))
		for _, l := range c.Licenses {
			names = append(names, l.Name)
		}
		out = append(out, &entity.ReferenceEmbedding{
			Source: "component:" + c.Name,
			Document: fmt.Sprintf("Component: %s\nLicenses: %s\n\n%s\n%s",
				c.Name, strings.Join(names, ", "), c.GeneralAssessment, c.AdditionalNotes),
		})
	}
	return out
}

func (s *knowledgeService) Import(ctx context.Context, ds knowledge.Dataset) (*ImportStats, error) {
	refs := ReferenceDocuments(ds)
	if s.embedder == nil {
		refs = nil
	}
	// embed outside the transaction, it is the slow part
	for i, ref := range refs {
		vec, err := s.embedder.Embed(ctx, ref.Document)
		if err != nil {
			return nil, fmt.Errorf("embed reference %d (%s): %w", i, ref.Source, err)
		}
		ref.Id = uuid.New()
		ref.EmbeddingValue = vec
		ref.CreatedAt = time.Now()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.KnowledgeRepository().Import(ctx, ds); err != nil {
		return nil, fmt.Errorf("import knowledge base: %w", err)
	}
	if s.embedder != nil {
		if err := uow.ReferenceEmbeddingRepository().DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("clear references: %w", err)
		}
		if len(refs) > 0 {
			if err := uow.ReferenceEmbeddingRepository().CreateBulk(ctx, refs); err != nil {
				return nil, fmt.Errorf("store references: %w", err)
			}
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	stats := &ImportStats{Components: len(ds.Components), Notes: len(ds.Notes), References: len(refs)}
	s.log.Info("KNOWLEDGE", "Knowledge base imported", map[string]interface{}{
		"components": stats.Components,
		"notes":      stats.Notes,
		"references": stats.References,
	})
	return stats, nil
}

func (s *knowledgeService) Stats(ctx context.Context) (*ImportStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	components, err := uow.KnowledgeRepository().CountComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("count components: %w", err)
	}
	notes, err := uow.KnowledgeRepository().CountNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}
	refs, err := uow.ReferenceEmbeddingRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count references: %w", err)
	}
	return &ImportStats{Components: int(components), Notes: int(notes), References: int(refs)}, nil
}
