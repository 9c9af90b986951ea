package handler

import (
	"strings"

	"oss-clearance-be/pkg/markdown"
	"oss-clearance-be/pkg/store"
)

const (
	ReportFileName = "Product_Clearance_Report.md"

	ProductOverviewTitle   = "Product Overview"
	ComponentOverviewTitle = "Component Overview"
	CommonRulesTitle       = "Common Rules"
)

// ClearanceReport assembles the product clearance report from the artifacts
// of the session. Missing artifacts leave their section empty.
func ClearanceReport(st *store.Store) *markdown.Builder {
	b := markdown.NewBuilder("")
	b.Append(st.Artifact(store.ArtifactProductOverview), ProductOverviewTitle)
	b.Append(st.Artifact(store.ArtifactComponentOverview), ComponentOverviewTitle)
	b.Append(st.Artifact(store.ArtifactCommonRules), CommonRulesTitle)

	obligations := ObligationsDescription(st.Document.ProjectTitle())
	if body := st.Artifact(store.ArtifactObligations); body != "" {
		obligations += "\n\n" + body
	}
	b.Append(obligations, ObligationsTitle)

	// the chapter carries its own heading
	b.Append(strings.TrimSpace(st.Artifact(store.ArtifactSpecialConsiderations)), "")
	return b
}
