// Package analysis turns an uploaded LicenseInfo report into the store of a
// new clearance session.
package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"oss-clearance-be/pkg/report"
)

var ErrNotLicenseInfo = errors.New("document is not a LicenseInfo report")

var (
	overviewHrefPattern = regexp.MustCompile(`h3(.+)_([\d.]+)`)
	trailingVersion     = regexp.MustCompile(`\s+((?:V|v)?\d[\d.\s]*(?:\s*rel\d+)?)$`)
	bodyOpenTag         = regexp.MustCompile(`^<body[^>]*>`)
)

// Parse reads the report structure: project heading, release overview,
// per-release blocks, the license text appendix and whatever surrounds them.
func Parse(html []byte) (*report.Document, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	h1 := dom.Find("h1").First()
	if h1.Length() == 0 {
		return nil, fmt.Errorf("%w: no project heading", ErrNotLicenseInfo)
	}

	head, _ := goquery.OuterHtml(dom.Find("head").First())
	doc := &report.Document{
		Meta: report.Meta{
			Doctype:      "html",
			Head:         head,
			Title:        strings.TrimSpace(dom.Find("title").First().Text()),
			ProjectTitle: strings.TrimSpace(h1.Text()),
		},
	}

	body := dom.Find("body").First()
	bodyHTML, err := goquery.OuterHtml(body)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	overview := dom.Find("ul#releaseOverview").First()
	doc.IntroHTML = introHTML(bodyHTML, overview)
	doc.ReleaseOverview = releaseOverview(overview)
	doc.Releases = releases(dom)
	doc.LicenseTexts = licenseTexts(dom)
	doc.ExtraHTML = extraHTML(bodyHTML, dom.Find("ul#licenseTexts").Length() > 0)

	for _, r := range doc.Releases {
		doc.Components = append(doc.Components, report.Component{
			Name:     r.Name,
			Licenses: append([]string(nil), r.LicenseNames...),
		})
	}
	return doc, nil
}

func introHTML(bodyHTML string, overview *goquery.Selection) string {
	if overview.Length() == 0 {
		return bodyHTML
	}
	marker, err := goquery.OuterHtml(overview)
	if err != nil {
		return bodyHTML
	}
	before, _, _ := strings.Cut(bodyHTML, marker)
	return strings.TrimSpace(bodyOpenTag.ReplaceAllString(before, ""))
}

func extraHTML(bodyHTML string, hasLicenseTexts bool) string {
	if !hasLicenseTexts {
		return ""
	}
	i := strings.LastIndex(bodyHTML, "</ul>")
	if i < 0 {
		return ""
	}
	tail := bodyHTML[i+len("</ul>"):]
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tail), "</body>"))
}

// splitVersion separates a trailing version ("1.2.3", "V2 rel4") from a label.
func splitVersion(label string) (name, version string) {
	if loc := trailingVersion.FindStringSubmatchIndex(label); loc != nil {
		return strings.TrimSpace(label[:loc[0]]), strings.TrimSpace(label[loc[2]:loc[3]])
	}
	return label, ""
}

func releaseOverview(overview *goquery.Selection) []report.ReleaseRef {
	var out []report.ReleaseRef
	overview.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		href, _ := li.Find("a").First().Attr("href")
		ref := report.ReleaseRef{Text: text, HrefID: strings.Trim(href, "#")}

		// the visible label matches the release heading; the anchor mangles
		// separators and is only used when the label has no version
		ref.Name, ref.Version = splitVersion(text)
		if m := overviewHrefPattern.FindStringSubmatch(href); ref.Version == "" && m != nil {
			ref.Name = strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
			ref.Version = m[2]
		}
		out = append(out, ref)
	})
	return out
}

func releases(dom *goquery.Document) []report.Release {
	var out []report.Release
	dom.Find("li.release").Each(func(_ int, li *goquery.Selection) {
		var r report.Release
		if h3 := li.Find("h3").First(); h3.Length() > 0 {
			label := strings.TrimSpace(strings.ReplaceAll(h3.Text(), "↩", ""))
			r.Name, r.Version = splitVersion(label)
			r.BlockHTML, _ = goquery.OuterHtml(li)
		}
		r.ID, _ = li.Attr("id")

		li.Find(".licenseEntry").Each(func(_ int, e *goquery.Selection) {
			if title, ok := e.Attr("title"); ok {
				r.LicenseNames = append(r.LicenseNames, title)
			}
		})
		li.Find(".licenseEntry a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !strings.HasPrefix(href, "#licenseTextItem") {
				return
			}
			pre := dom.Find(href).First().Find("pre").First()
			if pre.Length() == 0 {
				return
			}
			r.LicenseTexts = append(r.LicenseTexts, report.LicenseText{
				ID:   strings.TrimPrefix(href, "#"),
				Text: strings.TrimSpace(pre.Text()),
			})
		})

		r.Copyright = strings.TrimSpace(li.Find("pre.copyrights").First().Text())
		r.Acknowledgement = strings.TrimSpace(li.Find("pre.acknowledgements").First().Text())
		out = append(out, r)
	})
	return out
}

func licenseTexts(dom *goquery.Document) []report.LicenseText {
	var out []report.LicenseText
	dom.Find("ul#licenseTexts > li").Each(func(_ int, li *goquery.Selection) {
		id, _ := li.Attr("id")
		out = append(out, report.LicenseText{
			ID:    id,
			Title: li.Find("h3").First().Text(),
			Text:  strings.TrimSpace(li.Find("pre.licenseText").First().Text()),
		})
	})
	return out
}
