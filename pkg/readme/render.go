package readme

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"oss-clearance-be/pkg/report"
)

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// appendFragment parses raw as children of parent and appends them.
func appendFragment(parent *html.Node, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	ctx := element(parent.DataAtom)
	nodes, err := html.ParseFragment(strings.NewReader(raw), ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// Render rebuilds the disclosure report HTML from its parsed form.
func Render(doc *report.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("render readme: nil document")
	}

	root := &html.Node{Type: html.DocumentNode}
	doctype := doc.Meta.Doctype
	if doctype == "" {
		doctype = "html"
	}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: doctype})

	htmlNode := element(atom.Html)
	root.AppendChild(htmlNode)

	head := element(atom.Head)
	htmlNode.AppendChild(head)
	headInner := strings.TrimSpace(doc.Meta.Head)
	headInner = strings.TrimPrefix(headInner, "<head>")
	headInner = strings.TrimSuffix(headInner, "</head>")
	if err := appendFragment(head, headInner); err != nil {
		return nil, fmt.Errorf("render head: %w", err)
	}
	setTitle(head, doc.Meta.Title)

	body := element(atom.Body)
	htmlNode.AppendChild(body)

	if err := appendFragment(body, doc.IntroHTML); err != nil {
		return nil, fmt.Errorf("render intro: %w", err)
	}

	if len(doc.ReleaseOverview) > 0 {
		ul := element(atom.Ul, attr("id", "releaseOverview"))
		for _, ref := range doc.ReleaseOverview {
			li := element(atom.Li)
			if ref.HrefID != "" {
				a := element(atom.A, attr("href", "#"+ref.HrefID))
				a.AppendChild(text(ref.Text))
				li.AppendChild(a)
			} else {
				li.AppendChild(text(ref.Text))
			}
			ul.AppendChild(li)
		}
		body.AppendChild(ul)
	}

	for _, rel := range doc.Releases {
		if err := appendFragment(body, rel.BlockHTML); err != nil {
			return nil, fmt.Errorf("render release %s: %w", rel.Name, err)
		}
	}

	if len(doc.LicenseTexts) > 0 {
		ul := element(atom.Ul, attr("id", "licenseTexts"))
		for _, lt := range doc.LicenseTexts {
			li := element(atom.Li, attr("id", lt.ID))
			h3 := element(atom.H3)
			h3.AppendChild(text(lt.Title))
			pre := element(atom.Pre, attr("class", "licenseText"))
			pre.AppendChild(text(lt.Text))
			li.AppendChild(h3)
			li.AppendChild(pre)
			ul.AppendChild(li)
		}
		body.AppendChild(ul)
	}

	if err := appendFragment(body, doc.ExtraHTML); err != nil {
		return nil, fmt.Errorf("render trailer: %w", err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render readme: %w", err)
	}
	return buf.Bytes(), nil
}

func setTitle(head *html.Node, title string) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Title {
			for c.FirstChild != nil {
				c.RemoveChild(c.FirstChild)
			}
			c.AppendChild(text(title))
			return
		}
	}
	t := element(atom.Title)
	t.AppendChild(text(title))
	head.AppendChild(t)
}
