package mapper

import (
	"testing"

	"oss-clearance-be/internal/model"
	"oss-clearance-be/pkg/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentModelKeepsLicenseOrder(t *testing.T) {
	m := NewKnowledgeMapper()
	in := knowledge.Component{
		Name: "libpng",
		Licenses: []knowledge.License{
			{Name: "Libpng", Type: "global"},
			{Name: "Apache-2.0", Type: "other"},
		},
		Obligations: []knowledge.Obligation{{Topic: "Notice", Licenses: []string{"Libpng"}}},
	}

	mdl := m.ToComponentModel(in)
	require.Len(t, mdl.Licenses, 2)
	for _, l := range mdl.Licenses {
		assert.Equal(t, mdl.Id, l.ComponentId)
	}

	// rows come back from the database in any order
	mdl.Licenses[0], mdl.Licenses[1] = mdl.Licenses[1], mdl.Licenses[0]
	assert.Equal(t, in, m.ToComponent(mdl))
}

func TestReferenceEmbeddingRoundTrip(t *testing.T) {
	m := NewReferenceEmbeddingMapper()
	got := m.ToEntity(m.ToModel(m.ToEntity(&model.ReferenceEmbedding{Source: "note:1", Document: "GPL text"})))
	assert.Equal(t, "note:1", got.Source)
	assert.Nil(t, m.ToEntity(nil))
}
