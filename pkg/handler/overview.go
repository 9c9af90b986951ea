package handler

import (
	"context"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/knowledge"
	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/report"
)

// ComponentTable renders the component overview: one row per released
// component, global licenses in bold.
func ComponentTable(ctx context.Context, kb knowledge.Base, doc *report.Document) (string, error) {
	if doc == nil || len(doc.ReleaseOverview) == 0 {
		return "No component data available.", nil
	}

	var b strings.Builder
	b.WriteString("| Component Name | Component Version | Type | Licenses |\n")
	b.WriteString("|---------------|------------------|------|----------|\n")

	for _, ref := range doc.ReleaseOverview {
		name := ref.Name
		if name == "" {
			name = "Unknown"
		}
		version := ref.Version
		if version == "" {
			version = "N/A"
		}

		profile, err := knowledge.ComponentProfile(ctx, kb, name)
		if err != nil {
			return "", err
		}
		kind := "OSS"
		if profile.COTS {
			kind = "COTS"
		}

		global, err := knowledge.LicenseNames(ctx, kb, name, true)
		if err != nil {
			return "", err
		}

		var formatted []string
		for _, lic := range releaseLicenses(doc, name) {
			if containsLicense(global, lic) {
				formatted = append(formatted, "**"+lic+"**")
			} else {
				formatted = append(formatted, lic)
			}
		}
		if len(formatted) == 0 {
			formatted = []string{"N/A"}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, version, kind, strings.Join(formatted, ", "))
	}
	return b.String(), nil
}

// releaseLicenses returns the bare, deduplicated license names of the first
// release matching the component.
func releaseLicenses(doc *report.Document, name string) []string {
	for _, rel := range doc.Releases {
		if readme.NormalizeName(rel.Name) != name {
			continue
		}
		var out []string
		seen := make(map[string]struct{})
		for _, ln := range rel.LicenseNames {
			n := readme.NormalizeName(ln)
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
		return out
	}
	return nil
}

func containsLicense(list []string, lic string) bool {
	for _, l := range list {
		if knowledge.MatchLicense(l, lic) {
			return true
		}
	}
	return false
}
