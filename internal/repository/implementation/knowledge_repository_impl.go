package implementation

import (
	"context"
	"fmt"

	"oss-clearance-be/internal/mapper"
	"oss-clearance-be/internal/model"
	"oss-clearance-be/internal/repository/contract"
	"oss-clearance-be/internal/repository/scope"
	"oss-clearance-be/internal/repository/specification"
	"oss-clearance-be/pkg/knowledge"

	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

var _ knowledge.Base = (*KnowledgeRepositoryImpl)(nil)

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeRepositoryImpl) findComponents(ctx context.Context, specs ...specification.Specification) ([]*model.KnowledgeComponent, error) {
	var models []*model.KnowledgeComponent
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeComponent{}), specs...)
	if err := query.Preload("Licenses").Order("knowledge_components.name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

// FindComponents narrows candidates in SQL and applies the exact fuzzy rule
// on the result.
func (r *KnowledgeRepositoryImpl) FindComponents(ctx context.Context, name string) ([]knowledge.Component, error) {
	models, err := r.findComponents(ctx, specification.ComponentNameLike{Name: name})
	if err != nil {
		return nil, fmt.Errorf("find components %q: %w", name, err)
	}
	var out []knowledge.Component
	for _, m := range models {
		if knowledge.MatchName(name, m.Name) {
			out = append(out, r.mapper.ToComponent(m))
		}
	}
	return out, nil
}

func (r *KnowledgeRepositoryImpl) Notes(ctx context.Context, kind knowledge.NoteKind, license string) ([]string, error) {
	var notes []*model.LicenseNote
	query := r.applySpecifications(r.db.WithContext(ctx), specification.NoteOf{Kind: kind, License: license})
	if err := query.Scopes(scope.OrderByPosition).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("find %s notes for %q: %w", kind, license, err)
	}
	var out []string
	seen := make(map[string]struct{})
	for _, n := range notes {
		if _, ok := seen[n.Description]; ok {
			continue
		}
		seen[n.Description] = struct{}{}
		out = append(out, n.Description)
	}
	return out, nil
}

func (r *KnowledgeRepositoryImpl) ComponentsByLicense(ctx context.Context, license string) ([]string, error) {
	var names []string
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeComponent{}), specification.HasLicense{License: license})
	if err := query.Distinct("name").Scopes(scope.OrderByName).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("find components by license %q: %w", license, err)
	}
	return names, nil
}

func (r *KnowledgeRepositoryImpl) CountComponents(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeComponent{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *KnowledgeRepositoryImpl) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LicenseNote{}).Count(&count).Error
	return count, err
}

// Import runs in one transaction; a failed import keeps the old data.
func (r *KnowledgeRepositoryImpl) Import(ctx context.Context, ds knowledge.Dataset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&model.KnowledgeLicense{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&model.KnowledgeComponent{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&model.LicenseNote{}).Error; err != nil {
			return err
		}

		if len(ds.Components) > 0 {
			components := make([]*model.KnowledgeComponent, len(ds.Components))
			for i, c := range ds.Components {
				components[i] = r.mapper.ToComponentModel(c)
			}
			// licenses are created through the association
			if err := tx.CreateInBatches(components, 100).Error; err != nil {
				return fmt.Errorf("import components: %w", err)
			}
		}
		if len(ds.Notes) > 0 {
			notes := make([]*model.LicenseNote, len(ds.Notes))
			for i, n := range ds.Notes {
				notes[i] = r.mapper.ToNoteModel(n, i)
			}
			if err := tx.CreateInBatches(notes, 200).Error; err != nil {
				return fmt.Errorf("import notes: %w", err)
			}
		}
		return nil
	})
}
