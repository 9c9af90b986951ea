// Package items describes the candidate lists a reviewer walks through and
// the confirm/discard protocol applied to them.
package items

import (
	"errors"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/store"
)

type Kind string

const (
	KindLicense          Kind = "license"
	KindComponent        Kind = "component"
	KindCredential       Kind = "credential"
	KindSpecialCheck     Kind = "specialcheck"
	KindMainLicense      Kind = "main_license"
	KindProductComponent Kind = "product_component"
)

// Kinds lists every registered kind.
var Kinds = []Kind{
	KindLicense,
	KindComponent,
	KindCredential,
	KindSpecialCheck,
	KindMainLicense,
	KindProductComponent,
}

var ErrUnknownKind = errors.New("unknown item kind")

// Spec is one row of the registry.
type Spec struct {
	Kind           Kind
	ItemsKey       string
	CursorKey      string
	IdentityField  string
	DefaultName    string
	Template       string
	TemplateFields []string
}

var registry = map[Kind]Spec{
	KindLicense: {
		Kind:           KindLicense,
		ItemsKey:       "checkedRisk",
		CursorKey:      "current_license_idx",
		IdentityField:  "title",
		DefaultName:    "Unknown License",
		Template:       "here is the licenseName: {title}, CheckedLevel: {CheckedLevel}, and Justification: {Justification}",
		TemplateFields: []string{"title", "CheckedLevel", "Justification"},
	},
	KindComponent: {
		Kind:           KindComponent,
		ItemsKey:       "dependency_required__components",
		CursorKey:      "current_component_idx",
		IdentityField:  "compName",
		DefaultName:    "Unknown Component",
		Template:       "Here is the name of the component {compName}, and it contains dependency of other components, please confirm with user whether add the dependent component into the checklist",
		TemplateFields: []string{"compName"},
	},
	KindCredential: {
		Kind:           KindCredential,
		ItemsKey:       "credential_required_components",
		CursorKey:      "current_credential_idx",
		IdentityField:  "compName",
		DefaultName:    "Unknown Component",
		Template:       "Here is the name of the component {compName}, and it needs credential from other cooperation. Please confirm with users whether it is credentialized.",
		TemplateFields: []string{"compName"},
	},
	KindSpecialCheck: {
		Kind:           KindSpecialCheck,
		ItemsKey:       "specialCollections",
		CursorKey:      "current_specialcheck_idx",
		IdentityField:  "licName",
		DefaultName:    "Unknown License",
		Template:       "here is the license name {licName} and it is {category}",
		TemplateFields: []string{"licName", "category"},
	},
	KindMainLicense: {
		Kind:           KindMainLicense,
		ItemsKey:       "mainLicenseRequiringComponents",
		CursorKey:      "current_mainlicense_idx",
		IdentityField:  "compName",
		DefaultName:    "Unknown Component",
		Template:       "here is the component name {compName} and it is the license it contains {licenseList}",
		TemplateFields: []string{"compName", "licenseList"},
	},
	KindProductComponent: {
		Kind:           KindProductComponent,
		ItemsKey:       "components",
		CursorKey:      "current_product_component_idx",
		IdentityField:  "compName",
		DefaultName:    "Unknown Component",
		Template:       "Here is the component {compName} with licenses {licenses}",
		TemplateFields: []string{"compName", "licenses"},
	},
}

func Lookup(kind Kind) (Spec, error) {
	s, ok := registry[kind]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// MustLookup is for kinds fixed at compile time.
func MustLookup(kind Kind) Spec {
	s, err := Lookup(kind)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the item's display name, falling back to the kind default.
func (s Spec) Name(item store.Item) string {
	if n := strings.TrimSpace(item.String(s.IdentityField)); n != "" {
		return n
	}
	return s.DefaultName
}

// Instruction fills the template with the item's fields.
func (s Spec) Instruction(item store.Item) string {
	pairs := make([]string, 0, len(s.TemplateFields)*2)
	for _, f := range s.TemplateFields {
		v := item.String(f)
		if f == s.IdentityField {
			v = s.Name(item)
		}
		pairs = append(pairs, "{"+f+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s.Template)
}

// Items returns the governed list from the store.
func (s Spec) Items(st *store.Store) []store.Item {
	return st.List(s.ItemsKey)
}

// Identities lists the identity strings of the governed list in order.
func (s Spec) Identities(st *store.Store) []string {
	list := s.Items(st)
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = s.Name(it)
	}
	return out
}

// AllTerminal reports whether every item of the list is confirmed or discarded.
// An empty list is terminal.
func (s Spec) AllTerminal(st *store.Store) bool {
	for _, it := range s.Items(st) {
		if !it.Status().Terminal() {
			return false
		}
	}
	return true
}

// Find returns the item with the given identity.
func (s Spec) Find(st *store.Store, name string) (store.Item, int, bool) {
	for i, it := range s.Items(st) {
		if s.Name(it) == name {
			return it, i, true
		}
	}
	return nil, -1, false
}

// Summary counts the list by status.
type Summary struct {
	Total     int `json:"total"`
	Passed    int `json:"passed"`
	Discarded int `json:"discarded"`
}

func (s Spec) Summarize(st *store.Store) Summary {
	var sum Summary
	for _, it := range s.Items(st) {
		sum.Total++
		switch it.Status() {
		case store.StatusConfirmed:
			sum.Passed++
		case store.StatusDiscarded:
			sum.Discarded++
		}
	}
	return sum
}

// Initialize points every cursor at the first pending item of its list and
// names the first kind with pending work in ProcessingType. When lists exist
// but none has a pending item the store is marked AllConfirmed.
func Initialize(st *store.Store) (Kind, bool) {
	var (
		available bool
		selected  Kind
	)
	for _, kind := range Kinds {
		spec := MustLookup(kind)
		list := spec.Items(st)
		if len(list) == 0 {
			continue
		}
		available = true
		for i, it := range list {
			if it.Status() == store.StatusPending {
				st.SetCursor(spec.CursorKey, i)
				if selected == "" {
					selected = kind
				}
				break
			}
		}
	}
	if selected == "" {
		st.AllConfirmed = available
		return "", false
	}
	st.ProcessingType = string(selected)
	return selected, true
}
