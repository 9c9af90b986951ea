package items

import (
	"testing"

	"oss-clearance-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		kind Kind
		item store.Item
		want string
	}{
		{
			KindLicense,
			store.Item{"title": "GPL-2.0", "CheckedLevel": "high", "Justification": "copyleft"},
			"here is the licenseName: GPL-2.0, CheckedLevel: high, and Justification: copyleft",
		},
		{
			KindSpecialCheck,
			store.Item{"licName": "LGPL-3.0", "category": "GPLv3, LGPLv3"},
			"here is the license name LGPL-3.0 and it is GPLv3, LGPLv3",
		},
		{
			KindMainLicense,
			store.Item{"compName": "zlib", "licenseList": []string{"Zlib", "MIT"}},
			"here is the component name zlib and it is the license it contains Zlib, MIT",
		},
		{
			KindCredential,
			store.Item{},
			"Here is the name of the component Unknown Component, and it needs credential from other cooperation. Please confirm with users whether it is credentialized.",
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec, err := Lookup(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Instruction(tt.item))
		})
	}
}

func TestSummarizeAndTerminal(t *testing.T) {
	st := store.New()
	spec := MustLookup(KindLicense)
	assert.True(t, spec.AllTerminal(st))

	st.SetList(spec.ItemsKey, []store.Item{
		{"title": "MIT", "status": "confirmed"},
		{"title": "GPL", "status": "discarded"},
		{"title": "BSD", "status": "Inprogress"},
	})
	assert.False(t, spec.AllTerminal(st))
	assert.Equal(t, Summary{Total: 3, Passed: 1, Discarded: 1}, spec.Summarize(st))
	assert.Equal(t, []string{"MIT", "GPL", "BSD"}, spec.Identities(st))

	_, idx, ok := spec.Find(st, "BSD")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name         string
		lists        map[Kind][]store.Item
		wantKind     Kind
		wantOK       bool
		allConfirmed bool
		cursors      map[Kind]int
	}{
		{
			name:  "empty store",
			lists: nil,
		},
		{
			name: "every item terminal",
			lists: map[Kind][]store.Item{
				KindLicense:   {{"title": "MIT", "status": "confirmed"}},
				KindComponent: {{"compName": "zlib", "status": "discarded"}},
			},
			allConfirmed: true,
		},
		{
			name: "first pending kind wins",
			lists: map[Kind][]store.Item{
				KindLicense:   {{"title": "MIT", "status": "confirmed"}},
				KindComponent: {{"compName": "a", "status": "confirmed"}, {"compName": "b"}},
			},
			wantKind: KindComponent,
			wantOK:   true,
			cursors:  map[Kind]int{KindComponent: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			for kind, list := range tt.lists {
				st.SetList(MustLookup(kind).ItemsKey, list)
			}

			kind, ok := Initialize(st)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.allConfirmed, st.AllConfirmed)
			assert.Equal(t, string(tt.wantKind), st.ProcessingType)
			for k, idx := range tt.cursors {
				assert.Equal(t, idx, st.Cursor(MustLookup(k).CursorKey))
			}
		})
	}
}
