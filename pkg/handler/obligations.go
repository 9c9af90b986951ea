package handler

import (
	"context"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/knowledge"
	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"
)

const (
	ObligationsTitle       = "Obligations resulting from the use of 3rd party components"
	obligationsDescription = "%s contains the 3rd party components listed below.\n\n" +
		"Only components with obligations other than common obligations are shown. " +
		"Apache-2.0 license is handled as if it has only common obligations, because no component has been modified."

	// ChapterField holds a component's combined chapter on its item.
	ChapterField = "obligations_chapter"
)

// ObligationsDescription is the chapter preamble for a project.
func ObligationsDescription(project string) string {
	if project == "" {
		project = "The product"
	}
	return fmt.Sprintf(obligationsDescription, project)
}

func componentLicenses(ctx context.Context, d *Deps, item ChapterItem) ([]string, error) {
	lics, err := knowledge.UniqueLicenses(ctx, d.Knowledge, cleanName(item.Name))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lics))
	for _, l := range lics {
		names = append(names, l.Name)
	}
	return names, nil
}

func newLicensesSection(d *Deps) Section {
	return &section{
		name:         SectionLicenses,
		instructions: "Now we have imported the licenses identified from the cli xml.",
		key:          KeyLicensesIdentified,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, _ *workflow.Turn, item ChapterItem) (string, error) {
			name := cleanName(item.Name)
			global, err := knowledge.LicenseNames(ctx, d.Knowledge, name, true)
			if err != nil {
				return "", err
			}
			other, err := knowledge.LicenseNames(ctx, d.Knowledge, name, false)
			if err != nil {
				return "", err
			}
			return "*Global Licenses:* " + strings.Join(global, ", ") + "\n\n" +
				"*Other Licenses:* " + strings.Join(other, ", "), nil
		},
	}
}

func noteSection(name, instructions, key string, kind knowledge.NoteKind) func(*Deps) Section {
	return func(d *Deps) Section {
		return &section{
			name:         name,
			instructions: instructions,
			key:          key,
			deps:         d,
			generate: func(ctx context.Context, d *Deps, _ *workflow.Turn, item ChapterItem) (string, error) {
				lics, err := componentLicenses(ctx, d, item)
				if err != nil {
					return "", err
				}
				notes, err := knowledge.Descriptions(ctx, d.Knowledge, kind, lics)
				if err != nil {
					return "", err
				}
				return bullets(notes), nil
			},
		}
	}
}

var (
	newSubObligationsSection = noteSection(SectionSubObligations,
		"Now we start importing the obligations for this component", KeySubObligations, knowledge.NoteObligation)
	newSubRisksSection = noteSection(SectionSubRisks,
		"Now we start importing the risks for this component", KeySubRisk, knowledge.NoteRisk)
)

func newCommonRulesOnlySection(d *Deps) Section {
	return &section{
		name:         SectionCommonRules,
		instructions: "Now we are going to show you the licenses with common rules only",
		key:          KeyCommonRulesOnlyLicenses,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, _ *workflow.Turn, item ChapterItem) (string, error) {
			lics, err := componentLicenses(ctx, d, item)
			if err != nil {
				return "", err
			}
			var kept []string
			for _, l := range lics {
				if l != "Apache-2.0" {
					kept = append(kept, l)
				}
			}
			return bullets(kept), nil
		},
	}
}

func newAdditionalSection(d *Deps) Section {
	return &section{
		name:         SectionAdditional,
		instructions: "Now we are going to check whether this release contains dual licenses...",
		key:          KeyAdditionalObligations,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, _ *workflow.Turn, item ChapterItem) (string, error) {
			lics, err := componentLicenses(ctx, d, item)
			if err != nil {
				return "", err
			}
			for _, l := range lics {
				if strings.Contains(strings.ToLower(l), "dual") {
					return "- Dual/triple license: document license selection.", nil
				}
			}
			return "None", nil
		},
	}
}

// discardedLicenses returns the bare names of the licenses discarded during
// compliance.
func discardedLicenses(st *store.Store) []string {
	spec := items.MustLookup(items.KindLicense)
	var out []string
	for _, it := range spec.Items(st) {
		if it.Status() == store.StatusDiscarded {
			out = append(out, readme.NormalizeName(spec.Name(it)))
		}
	}
	return out
}

func newImplementationSection(d *Deps) Section {
	return &section{
		name:         SectionImplementation,
		instructions: "Now we are going to generate details of the implementation",
		key:          KeyImplementationDetails,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, t *workflow.Turn, item ChapterItem) (string, error) {
			lics, err := componentLicenses(ctx, d, item)
			if err != nil {
				return "", err
			}
			discarded := discardedLicenses(t.Store)
			var notApplying []string
			for _, l := range lics {
				for _, dl := range discarded {
					if knowledge.MatchLicense(l, dl) {
						notApplying = append(notApplying, l)
						break
					}
				}
			}
			if len(notApplying) == 0 {
				notApplying = []string{"None"}
			}

			var b strings.Builder
			b.WriteString("- Licenses and copyrights have been added to Readme_OSS.\n")
			b.WriteString("- No Apache NOTICE file available.\n")
			b.WriteString("- License selection has been documented in Readme_OSS.\n")
			b.WriteString("- Source code is ready to be shipped to the customer.\n")
			b.WriteString("- Licenses that do not apply:\n")
			for _, l := range notApplying {
				b.WriteString("    - " + l + "\n")
			}
			b.WriteString("- Acknowledgements have been added to Readme_OSS.\n")
			b.WriteString("- Check for required sub-components has been done.\n")
			b.WriteString("- Risk: Component binary has not been built from cleared source code.")
			return b.String(), nil
		},
	}
}

func newCombiningSection(d *Deps) Section {
	return &section{
		name:         SectionCombining,
		instructions: "Now we have generated the combined version for this chapter",
		key:          store.ArtifactObligations,
		combines:     true,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, t *workflow.Turn, item ChapterItem) (string, error) {
			name := cleanName(item.Name)
			p, err := knowledge.ComponentProfile(ctx, d.Knowledge, name)
			if err != nil {
				return "", err
			}
			a := t.Store.Artifact
			var b strings.Builder
			fmt.Fprintf(&b, "## %s\n\n", name)
			fmt.Fprintf(&b, "General Assessment: %s\n", p.GeneralAssessment)
			fmt.Fprintf(&b, "Additional Notes: %s\n\n", p.AdditionalNotes)
			fmt.Fprintf(&b, "### Licenses Identified\n\n%s\n\n", a(KeyLicensesIdentified))
			fmt.Fprintf(&b, "### Obligations\n\n%s\n\n", a(KeySubObligations))
			fmt.Fprintf(&b, "### Risks\n\n%s\n\n", a(KeySubRisk))
			fmt.Fprintf(&b, "### Licenses with Common Rules Only\n\n%s\n\n", a(KeyCommonRulesOnlyLicenses))
			fmt.Fprintf(&b, "### Additional Obligations\n\n%s\n\n", a(KeyAdditionalObligations))
			fmt.Fprintf(&b, "### Implementation of Obligations / Remarks\n\n%s", a(KeyImplementationDetails))
			return b.String(), nil
		},
		apply: applyComponentChapter,
	}
}

// applyComponentChapter keeps each component's chapter on its item and
// rebuilds the obligations artifact from all of them in list order, so a
// regenerated chapter replaces the previous one.
func applyComponentChapter(t *workflow.Turn, item ChapterItem, content string) {
	spec := items.MustLookup(items.KindProductComponent)
	if it, _, ok := spec.Find(t.Store, item.Name); ok {
		it[ChapterField] = content
	}
	var parts []string
	for _, it := range spec.Items(t.Store) {
		if c := it.String(ChapterField); c != "" {
			parts = append(parts, c)
		}
	}
	t.Store.SetArtifact(store.ArtifactObligations, strings.Join(parts, "\n\n"))
}
