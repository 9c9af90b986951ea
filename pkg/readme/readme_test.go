package readme

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oss-clearance-be/pkg/report"
	"oss-clearance-be/pkg/store"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2: CC-BY-4.0⇧", "CC-BY-4.0"},
		{"  @ngrx/store 17.2.0 ", "@ngrx/store"},
		{"zlib\n1.2.13 extra", "zlib"},
		{"Apache License", "Apache License"},
		{"FreeRTOS Kernel V10.4", "FreeRTOS Kernel"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func sampleDocument() *report.Document {
	return &report.Document{
		Meta:      report.Meta{Doctype: "html", Head: "<head><title>old</title></head>", Title: "LicenseInfo", ProjectTitle: "Room Sensor"},
		IntroHTML: "<h1>Room Sensor</h1><p>intro</p>",
		ReleaseOverview: []report.ReleaseRef{
			{Name: "zlib", Version: "1.3", HrefID: "h3zlib_1.3", Text: "zlib 1.3"},
			{Name: "curl", Version: "8.0", HrefID: "h3curl_8.0", Text: "curl 8.0"},
		},
		Releases: []report.Release{
			{
				Name: "zlib 1.3", BlockHTML: `<li class="release"><h3>zlib 1.3</h3></li>`,
				LicenseNames: []string{"1: Zlib⇧", "2: MIT⇧"},
				LicenseTexts: []report.LicenseText{{Title: "Zlib"}, {Title: "MIT"}},
			},
			{Name: "curl 8.0", BlockHTML: `<li class="release"><h3>curl 8.0</h3></li>`, LicenseNames: []string{"3: curl⇧"}},
		},
		LicenseTexts: []report.LicenseText{
			{ID: "licenseTextItem1", Title: "1: Zlib⇧", Text: "zlib text"},
			{ID: "licenseTextItem2", Title: "2: MIT⇧", Text: "mit text"},
			{ID: "licenseTextItem3", Title: "3: curl⇧", Text: "curl text"},
		},
		ExtraHTML: "<p>footer</p>",
	}
}

func TestFilter(t *testing.T) {
	doc := sampleDocument()

	out := Filter(doc, []string{"zlib"}, []string{"Zlib"})

	require.Len(t, out.ReleaseOverview, 1)
	assert.Equal(t, "zlib", out.ReleaseOverview[0].Name)
	require.Len(t, out.Releases, 1)
	assert.Equal(t, []string{"1: Zlib⇧"}, out.Releases[0].LicenseNames)
	assert.Equal(t, []report.LicenseText{{Title: "Zlib"}}, out.Releases[0].LicenseTexts)
	require.Len(t, out.LicenseTexts, 1)
	assert.Equal(t, "zlib text", out.LicenseTexts[0].Text)
	assert.Equal(t, doc.Meta, out.Meta)

	// input untouched
	assert.Len(t, doc.Releases[0].LicenseNames, 2)
}

func TestRenderIsDeterministic(t *testing.T) {
	doc := Filter(sampleDocument(), []string{"zlib", "curl"}, []string{"Zlib", "curl"})

	a, err := Render(doc)
	require.NoError(t, err)
	b, err := Render(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	page := string(a)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>LicenseInfo</title>")
	assert.Contains(t, page, `<ul id="releaseOverview"><li><a href="#h3zlib_1.3">zlib 1.3</a></li>`)
	assert.Contains(t, page, `<pre class="licenseText">curl text</pre>`)
	assert.Contains(t, page, "<p>footer</p>")
	assert.NotContains(t, page, "mit text")
}

func TestBuildWritesDocx(t *testing.T) {
	st := store.New()
	st.Document = sampleDocument()
	st.SetList("checkedRisk", []store.Item{
		{"title": "1: Zlib⇧", "status": "confirmed"},
		{"title": "2: MIT⇧", "status": "discarded"},
	})
	st.SetList("credential_required_components", []store.Item{
		{"compName": "zlib", "status": "confirmed"},
		{"compName": "curl", "status": "discarded"},
	})
	dir := t.TempDir()

	res, err := Build(st, dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), res.Path)
	assert.Equal(t, []string{"zlib"}, res.Components)
	assert.Equal(t, []string{"1: Zlib⇧"}, res.Licenses)

	zr, err := zip.OpenReader(res.Path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]*zip.File{}
	for _, f := range zr.File {
		names[f.Name] = f
	}
	require.Contains(t, names, "word/document.xml")
	require.Contains(t, names, "word/readme.html")

	rc, err := names["word/readme.html"].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "zlib text")
	assert.NotContains(t, string(body), "curl text")
}

func TestBuildWithoutDocument(t *testing.T) {
	_, err := Build(store.New(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoDocument)
}
