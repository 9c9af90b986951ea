package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"
)

const SpecialConsiderationsTitle = "Special Considerations"

var specialLicenseMarkers = []string{"GPL-2.0", "GPL-3.0", "LGPL-2.1", "LGPL-3.0"}

const ossDeclaration = `OSS Software Declaration

Embedded in this product are free software files that you may copy, distribute and/or modify under the terms of their respective licenses, such as the GNU General Public License, the GNU Lesser General Public License. In the event of conflicts between the manufacturer's license conditions and the Open Source Software license conditions, the Open Source Software conditions shall prevail with respect to the Open Source Software portions of the software.

On written request within three years from the date of product purchase and against payment of our expenses we will supply source code in line with the terms of the applicable license. For this, please contact the manufacturer at the address given in the product documentation.
Keyword: Open Source Request

Generally, these embedded free software files are distributed in the hope that they will be useful, but WITHOUT ANY WARRANTY, without even implied warranty such as for MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE, and without liability for the manufacturer other than as explicitly documented in your purchase contract.

All open source software components used within the product (including their copyright holders and the license conditions) are contained on the web server, path ➞ [Standard Asset Portal](%s).`

const remainingSpecial = `## EULA

N/A – Embedded SW in device.

## Files not to be used

Is ensured that files marked as 'do not use' or 'irrelevant' are really not getting used by the product?

## Export Control

Export control is not part of software clearing. If export control information is found it is listed in the clearing report.

All further evaluation, especially the product specific evaluation of all OSS components that contain encryption functionality needs to be done by the R&D team.

## Intellectual Property Rights

IPR research is not part of software clearing. If IPR related information is found it is listed in the clearing report.

All further evaluation needs to be done by the R&D team.

## Security Vulnerabilities

Security vulnerability research is not part of software clearing.

Security vulnerabilities are tracked in the vulnerability management portal. All further evaluation is to be done by the R&D team in cooperation with the product security team.`

func fixedSection(name, instructions, key, text string) func(*Deps) Section {
	return func(d *Deps) Section {
		return &section{name: name, instructions: instructions, key: key, deps: d, generate: constant(text)}
	}
}

var (
	newInteractionSection = fixedSection(SectionInteraction,
		"Now we have generated the content for obligations resulting from interactions between components.",
		KeyInteraction, "None")
	newCopyleftSection = fixedSection(SectionCopyleft,
		"Now we have generated the content for copyleft.",
		KeyCopyleft, "None")
	newOtherObligationsSection = fixedSection(SectionOtherObligations,
		"Now we have generated the content for other obligations, which should be none if you have fulfilled all the requirements.",
		KeyOtherObligations, "None")
	newRemainingSection = fixedSection(SectionRemaining,
		"Now we are generating the rest part for the sixth chapter",
		KeyRemaining, remainingSpecial)
)

func newSpecialLicensesSection(d *Deps) Section {
	return &section{
		name:         SectionSpecialLicenses,
		instructions: "Now we have generated the content for describing the additional obligations.",
		key:          KeySpecialLicenses,
		deps:         d,
		generate: func(_ context.Context, d *Deps, t *workflow.Turn, _ ChapterItem) (string, error) {
			if !hasSpecialLicense(t.Store) {
				return "None", nil
			}
			url := t.Store.DownloadURL
			if d.AssetPortalURL != "" {
				url = d.AssetPortalURL
			}
			if url == "" {
				url = "Not found"
			}
			return fmt.Sprintf(ossDeclaration, url), nil
		},
	}
}

// hasSpecialLicense matches GPL/LGPL titles including "or later" and
// "with exception" variants.
func hasSpecialLicense(st *store.Store) bool {
	if st.Document == nil {
		return false
	}
	for _, lt := range st.Document.LicenseTexts {
		for _, m := range specialLicenseMarkers {
			if strings.Contains(lt.Title, m) {
				return true
			}
		}
	}
	return false
}

func newReadmeOSSSection(d *Deps) Section {
	return &section{
		name:         SectionReadmeOSS,
		instructions: "Now we have generated the content for description of oss readme.",
		key:          KeyReadmeOSS,
		deps:         d,
		generate: func(_ context.Context, _ *Deps, t *workflow.Turn, _ ChapterItem) (string, error) {
			project := "Unknown project"
			if t.Store.Document != nil && t.Store.Document.Meta.ProjectTitle != "" {
				project = t.Store.Document.Meta.ProjectTitle
			}
			return fmt.Sprintf("Check of Readme_OSS for %s has been done.", project), nil
		},
	}
}

func newSourceCodeSection(d *Deps) Section {
	return &section{
		name:         SectionSourceCode,
		instructions: "Now we are generating content for components needing source codes.",
		key:          KeySourceCodes,
		deps:         d,
		generate: func(ctx context.Context, d *Deps, t *workflow.Turn, _ ChapterItem) (string, error) {
			byLicense := make(map[string][]string)
			var order []string
			for _, ra := range t.Store.RiskAnalysis {
				if !ra.SourceCodeRequired {
					continue
				}
				lic := readme.NormalizeName(ra.LicenseTitle)
				comps, err := d.Knowledge.ComponentsByLicense(ctx, lic)
				if err != nil {
					return "", err
				}
				if _, seen := byLicense[lic]; !seen {
					order = append(order, lic)
				}
				byLicense[lic] = append(byLicense[lic], comps...)
			}
			return "Source code for the following components must be delivered on written request:\n\n" +
				licenseComponentTable(order, byLicense) + "\n\n" +
				"Recommendation is that all sources that might need to get shipped to the customer are stored in one single location.", nil
		},
	}
}

func licenseComponentTable(order []string, byLicense map[string][]string) string {
	if len(order) == 0 {
		return "None"
	}
	var b strings.Builder
	b.WriteString("| License | Components |\n")
	b.WriteString("|---------|------------|\n")
	for _, lic := range order {
		comps := dedupe(byLicense[lic])
		sort.Strings(comps)
		cell := strings.Join(comps, ", ")
		if cell == "" {
			cell = "N/A"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", lic, cell)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func newSpecialCombiningSection(d *Deps) Section {
	return &section{
		name:         SectionSpecialCombining,
		instructions: "Now we are generating the combined content for the sixth chapter",
		key:          store.ArtifactSpecialConsiderations,
		combines:     true,
		deps:         d,
		generate: func(_ context.Context, _ *Deps, t *workflow.Turn, _ ChapterItem) (string, error) {
			a := t.Store.Artifact
			var b strings.Builder
			fmt.Fprintf(&b, "# %s\n\n", SpecialConsiderationsTitle)
			fmt.Fprintf(&b, "## Obligations resulting from interactions between components\n\n%s\n\n", a(KeyInteraction))
			fmt.Fprintf(&b, "## Copyleft effect\n\n%s\n\n", a(KeyCopyleft))
			fmt.Fprintf(&b, "## Additional obligations resulting from GPL-2.0, GPL-3.0, LGPL-2.1, LGPL-3.0\n\n%s\n\n", a(KeySpecialLicenses))
			fmt.Fprintf(&b, "## Other Obligations\n\n%s\n\n", a(KeyOtherObligations))
			fmt.Fprintf(&b, "## Readme_OSS\n\n%s\n\n", a(KeyReadmeOSS))
			fmt.Fprintf(&b, "## Source Code to be delivered\n\n%s\n\n", a(KeySourceCodes))
			b.WriteString(a(KeyRemaining))
			return b.String(), nil
		},
	}
}
