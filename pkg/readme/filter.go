// Package readme produces the filtered OSS README from a parsed disclosure
// report: only reviewer-confirmed components and licenses survive.
package readme

import (
	"strings"
	"unicode"

	"oss-clearance-be/pkg/report"
)

// NormalizeName reduces a component or license label to its bare name:
// "2: CC-BY-4.0⇧" becomes "CC-BY-4.0", "@ngrx/store 17.2.0" becomes "@ngrx/store".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimRight(name, "⇧"))
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = strings.TrimSpace(name[i+1:])
	}

	parts := strings.Split(name, " ")
	if len(parts) > 1 && strings.IndexFunc(parts[len(parts)-1], unicode.IsDigit) >= 0 {
		return strings.TrimSpace(strings.Join(parts[:len(parts)-1], " "))
	}
	return name
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[NormalizeName(n)] = struct{}{}
	}
	return set
}

// Filter returns a copy of doc whose release overview, releases and license
// texts only mention the kept components and licenses. Meta, intro and
// trailing HTML are carried over unchanged.
func Filter(doc *report.Document, components, licenses []string) *report.Document {
	if doc == nil {
		return nil
	}
	keepComp := nameSet(components)
	keepLic := nameSet(licenses)

	out := &report.Document{
		Meta:       doc.Meta,
		IntroHTML:  doc.IntroHTML,
		ExtraHTML:  doc.ExtraHTML,
		Components: doc.Clone().Components,
	}

	for _, ref := range doc.ReleaseOverview {
		if _, ok := keepComp[NormalizeName(ref.Name)]; ok {
			out.ReleaseOverview = append(out.ReleaseOverview, ref)
		}
	}

	for _, rel := range doc.Releases {
		name := NormalizeName(rel.Name)
		matched := false
		for comp := range keepComp {
			if comp != "" && strings.HasPrefix(name, comp) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		kept := rel
		kept.LicenseNames = nil
		kept.LicenseTexts = nil
		for i, ln := range rel.LicenseNames {
			if _, ok := keepLic[NormalizeName(ln)]; !ok {
				continue
			}
			kept.LicenseNames = append(kept.LicenseNames, ln)
			if i < len(rel.LicenseTexts) {
				kept.LicenseTexts = append(kept.LicenseTexts, rel.LicenseTexts[i])
			}
		}
		out.Releases = append(out.Releases, kept)
	}

	for _, lt := range doc.LicenseTexts {
		if _, ok := keepLic[NormalizeName(lt.Title)]; ok {
			out.LicenseTexts = append(out.LicenseTexts, lt)
		}
	}
	return out
}
