package readme

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/store"
)

const FileName = "Final_OSS_Readme.docx"

var ErrNoDocument = errors.New("no parsed report in session")

// Result describes a written README.
type Result struct {
	Path       string
	FileName   string
	Components []string
	Licenses   []string
}

// Confirmed returns the identities of the confirmed items of a kind.
func Confirmed(st *store.Store, kind items.Kind) []string {
	spec := items.MustLookup(kind)
	var out []string
	for _, it := range spec.Items(st) {
		if it.Status() == store.StatusConfirmed {
			out = append(out, spec.Name(it))
		}
	}
	return out
}

// Build filters the session's report down to the confirmed credential
// components and compliance licenses and writes dir/Final_OSS_Readme.docx.
func Build(st *store.Store, dir string) (Result, error) {
	if st.Document == nil {
		return Result{}, ErrNoDocument
	}
	res := Result{
		FileName:   FileName,
		Path:       filepath.Join(dir, FileName),
		Components: Confirmed(st, items.KindCredential),
		Licenses:   Confirmed(st, items.KindLicense),
	}

	filtered := Filter(st.Document, res.Components, res.Licenses)
	page, err := Render(filtered)
	if err != nil {
		return Result{}, err
	}
	if err := WriteDOCX(res.Path, st.Document.ProjectTitle(), page); err != nil {
		return Result{}, err
	}
	return res, nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return ""
	}
	return buf.String()
}

// String is used in log lines.
func (r Result) String() string {
	return fmt.Sprintf("%s (%d components, %d licenses)", r.Path, len(r.Components), len(r.Licenses))
}
