package mapper

import (
	"sort"

	"oss-clearance-be/internal/model"
	"oss-clearance-be/pkg/knowledge"

	"github.com/google/uuid"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ToComponent(c *model.KnowledgeComponent) knowledge.Component {
	licenses := append([]model.KnowledgeLicense(nil), c.Licenses...)
	sort.SliceStable(licenses, func(i, j int) bool { return licenses[i].Position < licenses[j].Position })

	out := knowledge.Component{
		Name:              c.Name,
		Version:           c.Version,
		COTS:              c.COTS,
		GeneralAssessment: c.GeneralAssessment,
		AdditionalNotes:   c.AdditionalNotes,
	}
	for _, l := range licenses {
		out.Licenses = append(out.Licenses, knowledge.License{Name: l.Name, Type: l.Type, Content: l.Content})
	}
	for _, o := range c.Obligations {
		out.Obligations = append(out.Obligations, knowledge.Obligation{Topic: o.Topic, Licenses: o.Licenses})
	}
	return out
}

// ToComponentModel assigns a fresh id so the license rows can reference it.
func (m *KnowledgeMapper) ToComponentModel(c knowledge.Component) *model.KnowledgeComponent {
	id := uuid.New()
	out := &model.KnowledgeComponent{
		Id:                id,
		Name:              c.Name,
		Version:           c.Version,
		COTS:              c.COTS,
		GeneralAssessment: c.GeneralAssessment,
		AdditionalNotes:   c.AdditionalNotes,
	}
	for i, l := range c.Licenses {
		out.Licenses = append(out.Licenses, model.KnowledgeLicense{
			Id:          uuid.New(),
			ComponentId: id,
			Position:    i,
			Name:        l.Name,
			Type:        l.Type,
			Content:     l.Content,
		})
	}
	for _, o := range c.Obligations {
		out.Obligations = append(out.Obligations, model.ComponentObligation{Topic: o.Topic, Licenses: o.Licenses})
	}
	return out
}

func (m *KnowledgeMapper) ToNoteModel(n knowledge.Note, position int) *model.LicenseNote {
	return &model.LicenseNote{
		Id:          uuid.New(),
		Kind:        string(n.Kind),
		License:     n.License,
		Position:    position,
		Description: n.Description,
	}
}
