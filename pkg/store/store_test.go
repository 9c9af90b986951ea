package store

import (
	"testing"

	"oss-clearance-be/pkg/report"

	"github.com/stretchr/testify/assert"
)

func TestStoreCloneIsDeep(t *testing.T) {
	s := New()
	s.SetList("checkedRisk", []Item{{"title": "MIT", "status": "", "tags": []string{"a"}}})
	s.SetCursor("current_license_idx", 0)
	s.SetArtifact(ArtifactObligations, "x")
	s.Document = &report.Document{Components: []report.Component{{Name: "A", Licenses: []string{"MIT"}}}}

	c := s.Clone()
	c.List("checkedRisk")[0].SetStatus(StatusConfirmed)
	c.List("checkedRisk")[0]["tags"].([]string)[0] = "b"
	c.SetCursor("current_license_idx", 3)
	c.SetArtifact(ArtifactObligations, "y")
	c.Document.Components[0].Licenses[0] = "GPL"

	assert.Equal(t, StatusPending, s.List("checkedRisk")[0].Status())
	assert.Equal(t, "a", s.List("checkedRisk")[0]["tags"].([]string)[0])
	assert.Equal(t, 0, s.Cursor("current_license_idx"))
	assert.Equal(t, "x", s.Artifact(ArtifactObligations))
	assert.Equal(t, "MIT", s.Document.Components[0].Licenses[0])
}

func TestItemString(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"string", Item{"f": "MIT"}, "MIT"},
		{"slice", Item{"f": []string{"MIT", "BSD"}}, "MIT, BSD"},
		{"any slice", Item{"f": []any{"MIT", 2}}, "MIT, 2"},
		{"missing", Item{}, ""},
		{"bool", Item{"f": true}, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.String("f"))
		})
	}
}

func TestRiskFor(t *testing.T) {
	s := New()
	s.RiskAnalysis = []report.RiskAssessment{{LicenseTitle: "GPL-2.0 ⇧", Level: report.RiskHigh}}

	r, ok := s.RiskFor("gpl-2.0")
	assert.True(t, ok)
	assert.Equal(t, report.RiskHigh, r.Level)

	_, ok = s.RiskFor("MIT")
	assert.False(t, ok)
}
