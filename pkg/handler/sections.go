package handler

import (
	"context"
	"strings"

	"oss-clearance-be/pkg/workflow"
)

// Section names, as registered in the Registry.
const (
	SectionLicenses       = "obligations/licenses"
	SectionSubObligations = "obligations/obligations"
	SectionSubRisks       = "obligations/risks"
	SectionCommonRules    = "obligations/common_rules"
	SectionAdditional     = "obligations/additional"
	SectionImplementation = "obligations/implementation"
	SectionCombining      = "obligations/combining"

	SectionInteraction      = "special/interaction"
	SectionCopyleft         = "special/copyleft"
	SectionSpecialLicenses  = "special/additional"
	SectionOtherObligations = "special/other"
	SectionReadmeOSS        = "special/readme_oss"
	SectionSourceCode       = "special/source_code"
	SectionRemaining        = "special/remaining"
	SectionSpecialCombining = "special/combining"
)

// Staging artifact keys written by the sections.
const (
	KeyLicensesIdentified      = "Licenses_identified"
	KeySubObligations          = "SubObligations"
	KeySubRisk                 = "SubRisk"
	KeyCommonRulesOnlyLicenses = "CommonRulesOnlyLicenses"
	KeyAdditionalObligations   = "AdditionalObligations"
	KeyImplementationDetails   = "ImplementationDetails"

	KeyInteraction      = "Obligations_resulting_from_interaction"
	KeyCopyleft         = "Copyleft_effect"
	KeySpecialLicenses  = "Additional_obligations_resulting_from_special_licenses"
	KeyOtherObligations = "Other_obligations"
	KeyReadmeOSS        = "ReadmeOSS"
	KeySourceCodes      = "Source_Codes"
	KeyRemaining        = "Remaining_special"
)

var ObligationSections = []string{
	SectionLicenses,
	SectionSubObligations,
	SectionSubRisks,
	SectionCommonRules,
	SectionAdditional,
	SectionImplementation,
	SectionCombining,
}

var SpecialConsiderationSections = []string{
	SectionInteraction,
	SectionCopyleft,
	SectionSpecialLicenses,
	SectionOtherObligations,
	SectionReadmeOSS,
	SectionSourceCode,
	SectionRemaining,
	SectionSpecialCombining,
}

type sectionGenerate func(ctx context.Context, d *Deps, t *workflow.Turn, item ChapterItem) (string, error)

// section is the common Section implementation: generated text goes to one
// artifact key unless apply says otherwise.
type section struct {
	name         string
	instructions string
	key          string
	combines     bool
	deps         *Deps
	generate     sectionGenerate
	apply        func(t *workflow.Turn, item ChapterItem, content string)
}

func (s *section) Name() string         { return s.name }
func (s *section) Instructions() string { return s.instructions }
func (s *section) Combines() bool       { return s.combines }

func (s *section) Generate(ctx context.Context, t *workflow.Turn, item ChapterItem) (string, error) {
	return s.generate(ctx, s.deps, t, item)
}

func (s *section) Apply(t *workflow.Turn, item ChapterItem, content string) {
	if s.apply != nil {
		s.apply(t, item, content)
		return
	}
	t.Store.SetArtifact(s.key, content)
}

func constant(text string) sectionGenerate {
	return func(context.Context, *Deps, *workflow.Turn, ChapterItem) (string, error) {
		return text, nil
	}
}

// bullets renders a markdown list, "None" when empty.
func bullets(lines []string) string {
	if len(lines) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}

// cleanName strips the decoration the report puts on component labels.
func cleanName(name string) string {
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(strings.ReplaceAll(name, "⇧", ""))
}

var sectionBuilders = map[string]func(*Deps) Section{
	SectionLicenses:       newLicensesSection,
	SectionSubObligations: newSubObligationsSection,
	SectionSubRisks:       newSubRisksSection,
	SectionCommonRules:    newCommonRulesOnlySection,
	SectionAdditional:     newAdditionalSection,
	SectionImplementation: newImplementationSection,
	SectionCombining:      newCombiningSection,

	SectionInteraction:      newInteractionSection,
	SectionCopyleft:         newCopyleftSection,
	SectionSpecialLicenses:  newSpecialLicensesSection,
	SectionOtherObligations: newOtherObligationsSection,
	SectionReadmeOSS:        newReadmeOSSSection,
	SectionSourceCode:       newSourceCodeSection,
	SectionRemaining:        newRemainingSection,
	SectionSpecialCombining: newSpecialCombiningSection,
}
