package handler

import (
	"context"
	"strings"
	"testing"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/report"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCoversEveryPhase(t *testing.T) {
	deps := testDeps(t)
	f := NewFactory(deps, nil)
	for _, p := range workflow.Phases {
		t.Run(string(p), func(t *testing.T) {
			h, ok := f.Handler(p, nil)
			require.True(t, ok)
			assert.NotNil(t, h)
		})
	}

	_, ok := f.Handler(workflow.Phase("unknown"), nil)
	assert.False(t, ok)
}

func TestFactoryMemoizesAndRebinds(t *testing.T) {
	f := NewFactory(testDeps(t), nil)
	first, second := &fakeBot{talking: "first"}, &fakeBot{talking: "second"}

	h1, _ := f.Handler(workflow.PhaseOEM, first)
	h2, _ := f.Handler(workflow.PhaseOEM, second)
	assert.Same(t, h1, h2)

	got, err := h2.Instructions(context.Background(), &workflow.Turn{Store: store.New()})
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestFactoryCloneIsolatesHandlers(t *testing.T) {
	f := NewFactory(testDeps(t), nil)
	h, _ := f.Handler(workflow.PhaseCommonRules, nil)
	content := h.(*Content)
	_, err := content.GenerateContent(context.Background(), &workflow.Turn{Store: store.New()})
	require.NoError(t, err)

	clone := f.Clone()
	ch, ok := clone.Handler(workflow.PhaseCommonRules, nil)
	require.True(t, ok)
	assert.NotSame(t, h, ch)
	assert.True(t, ch.(*Content).Generated())

	_, err = ch.Handle(context.Background(), &workflow.Turn{Store: store.New(), Status: "next"})
	require.NoError(t, err)
	assert.False(t, ch.(*Content).Generated())
	assert.True(t, content.Generated())
}

func TestRegistrySharesSections(t *testing.T) {
	deps := testDeps(t)
	reg := NewRegistry(deps)

	a, err := reg.Section(SectionLicenses)
	require.NoError(t, err)
	b, err := reg.Section(SectionLicenses)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = reg.Section("nope")
	assert.ErrorIs(t, err, ErrUnknownSection)
	assert.Len(t, reg.Names(), len(ObligationSections)+len(SpecialConsiderationSections))
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		phase workflow.Phase
		kind  items.Kind
		ok    bool
	}{
		{workflow.PhaseDependency, items.KindComponent, true},
		{workflow.PhaseMainLicense, items.KindMainLicense, true},
		{workflow.PhaseCredential, items.KindCredential, true},
		{workflow.PhaseSpecialCheck, items.KindSpecialCheck, true},
		{workflow.PhaseCompliance, items.KindLicense, true},
		{workflow.PhaseObligations, "", false},
		{workflow.PhaseOEM, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			kind, ok := KindFor(tt.phase)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestListKindFor(t *testing.T) {
	tests := []struct {
		phase workflow.Phase
		kind  items.Kind
		ok    bool
	}{
		{workflow.PhaseDependency, items.KindComponent, true},
		{workflow.PhaseObligations, items.KindProductComponent, true},
		{workflow.PhaseSpecialConsideration, "", false},
		{workflow.PhaseContract, "", false},
		{workflow.PhaseCompleted, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			kind, ok := ListKindFor(tt.phase)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestComponentTable(t *testing.T) {
	doc := &report.Document{
		ReleaseOverview: []report.ReleaseRef{
			{Name: "libpng", Version: "1.6.43"},
			{Name: "qtbase"},
		},
		Releases: []report.Release{
			{Name: "1: libpng 1.6.43⇧", LicenseNames: []string{"1: Libpng⇧", "2: Apache-2.0⇧", "3: Libpng⇧"}},
		},
	}

	got, err := ComponentTable(context.Background(), testKnowledge(), doc)

	require.NoError(t, err)
	assert.Equal(t,
		"| Component Name | Component Version | Type | Licenses |\n"+
			"|---------------|------------------|------|----------|\n"+
			"| libpng | 1.6.43 | OSS | **Libpng**, Apache-2.0 |\n"+
			"| qtbase | N/A | COTS | N/A |\n",
		got)
}

func TestClearanceReport(t *testing.T) {
	st := store.New()
	st.Document = &report.Document{Meta: report.Meta{ProjectTitle: "Gateway 3000"}}
	st.SetArtifact(store.ArtifactProductOverview, "overview")
	st.SetArtifact(store.ArtifactComponentOverview, "table")
	st.SetArtifact(store.ArtifactCommonRules, "rules")
	st.SetArtifact(store.ArtifactObligations, "## libpng")
	st.SetArtifact(store.ArtifactSpecialConsiderations, "# Special Considerations\n\nNone\n")

	b := ClearanceReport(st)

	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 3, b.FindSectionIndexByTitle(ObligationsTitle))
	out := b.Build()
	assert.Contains(t, out, "# Product Overview\n\noverview\n\n")
	assert.Contains(t, out, "# "+ObligationsTitle+"\n\nGateway 3000 contains the 3rd party components listed below.")
	assert.Contains(t, out, "because no component has been modified.\n\n## libpng\n\n")
	assert.True(t, strings.HasSuffix(out, "# Special Considerations\n\nNone\n\n"))
}
