// Package report holds the structured form of a LicenseInfo disclosure
// report and the per-license review produced from it.
package report

type Meta struct {
	Doctype      string `json:"doctype"`
	Head         string `json:"head"`
	Title        string `json:"title"`
	ProjectTitle string `json:"project_title"`
}

// ReleaseRef is one entry of the release overview list at the top of the report.
type ReleaseRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	HrefID  string `json:"href_id"`
	Text    string `json:"text"`
}

type LicenseText struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Release struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	BlockHTML       string        `json:"block_html"`
	LicenseNames    []string      `json:"license_names"`
	LicenseTexts    []LicenseText `json:"license_texts"`
	Copyright       string        `json:"copyright"`
	Acknowledgement string        `json:"acknowledgement"`
}

type Component struct {
	Name     string   `json:"compName"`
	Licenses []string `json:"licenses"`
}

type Document struct {
	Meta            Meta          `json:"meta"`
	IntroHTML       string        `json:"intro_html"`
	ReleaseOverview []ReleaseRef  `json:"release_overview"`
	Releases        []Release     `json:"releases"`
	LicenseTexts    []LicenseText `json:"license_texts"`
	ExtraHTML       string        `json:"extra_html"`
	Components      []Component   `json:"components"`
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.ReleaseOverview = append([]ReleaseRef(nil), d.ReleaseOverview...)
	out.LicenseTexts = append([]LicenseText(nil), d.LicenseTexts...)
	out.Releases = make([]Release, len(d.Releases))
	for i, r := range d.Releases {
		r.LicenseNames = append([]string(nil), r.LicenseNames...)
		r.LicenseTexts = append([]LicenseText(nil), r.LicenseTexts...)
		out.Releases[i] = r
	}
	out.Components = make([]Component, len(d.Components))
	for i, c := range d.Components {
		c.Licenses = append([]string(nil), c.Licenses...)
		out.Components[i] = c
	}
	return &out
}

// ProjectTitle falls back to the document title when the report has no heading.
func (d *Document) ProjectTitle() string {
	if d == nil {
		return ""
	}
	if d.Meta.ProjectTitle != "" {
		return d.Meta.ProjectTitle
	}
	return d.Meta.Title
}
