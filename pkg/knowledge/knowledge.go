// Package knowledge is the read-only component and license knowledge base
// consulted while the clearance report is written.
package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const LicenseTypeGlobal = "global"

type NoteKind string

const (
	NoteObligation NoteKind = "obligation"
	NoteRisk       NoteKind = "risk"
)

type License struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type Obligation struct {
	Topic    string   `json:"topic"`
	Licenses []string `json:"licenses"`
}

type Component struct {
	Name              string       `json:"component_name"`
	Version           string       `json:"version,omitempty"`
	COTS              bool         `json:"COTS"`
	GeneralAssessment string       `json:"general_assessment"`
	AdditionalNotes   string       `json:"additional_notes"`
	Licenses          []License    `json:"licenses"`
	Obligations       []Obligation `json:"obligations,omitempty"`
}

// Note is one row of the license obligation or risk tables.
type Note struct {
	Kind        NoteKind `json:"kind"`
	License     string   `json:"license"`
	Description string   `json:"description"`
}

// Base is implemented by the JSON file store and the Postgres repository.
type Base interface {
	FindComponents(ctx context.Context, name string) ([]Component, error)
	Notes(ctx context.Context, kind NoteKind, license string) ([]string, error)
	ComponentsByLicense(ctx context.Context, license string) ([]string, error)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s and drops everything but letters and digits.
func Normalize(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// MatchName is the fuzzy component match: either name contains the other,
// raw or normalized.
func MatchName(search, target string) bool {
	s, t := strings.ToLower(strings.TrimSpace(search)), strings.ToLower(strings.TrimSpace(target))
	if s == "" || t == "" {
		return false
	}
	if strings.Contains(t, s) || strings.Contains(s, t) {
		return true
	}
	ns, nt := Normalize(s), Normalize(t)
	if ns == "" || nt == "" {
		return false
	}
	return strings.Contains(nt, ns) || strings.Contains(ns, nt)
}

// MatchLicense compares license identifiers ignoring case and punctuation.
func MatchLicense(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// UniqueLicenses collects the licenses of every matching component,
// deduplicated by name in first-seen order.
func UniqueLicenses(ctx context.Context, kb Base, component string) ([]License, error) {
	comps, err := kb.FindComponents(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("find component %q: %w", component, err)
	}
	seen := make(map[string]struct{})
	var out []License
	for _, c := range comps {
		for _, l := range c.Licenses {
			if l.Name == "" {
				continue
			}
			if _, ok := seen[l.Name]; ok {
				continue
			}
			seen[l.Name] = struct{}{}
			out = append(out, l)
		}
	}
	return out, nil
}

// LicenseNames returns the names of the component's licenses. global selects
// licenses of type "global", otherwise every other type.
func LicenseNames(ctx context.Context, kb Base, component string, global bool) ([]string, error) {
	lics, err := UniqueLicenses(ctx, kb, component)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range lics {
		if (l.Type == LicenseTypeGlobal) == global {
			out = append(out, l.Name)
		}
	}
	return out, nil
}

// Profile is the first non-empty descriptive data found for a component.
type Profile struct {
	Found             bool
	COTS              bool
	GeneralAssessment string
	AdditionalNotes   string
}

func ComponentProfile(ctx context.Context, kb Base, component string) (Profile, error) {
	comps, err := kb.FindComponents(ctx, component)
	if err != nil {
		return Profile{}, fmt.Errorf("find component %q: %w", component, err)
	}
	var p Profile
	if len(comps) == 0 {
		return p, nil
	}
	p.Found = true
	p.COTS = comps[0].COTS
	for _, c := range comps {
		if p.GeneralAssessment == "" {
			p.GeneralAssessment = c.GeneralAssessment
		}
		if p.AdditionalNotes == "" {
			p.AdditionalNotes = c.AdditionalNotes
		}
	}
	return p, nil
}

// Descriptions returns one entry per license: its notes joined by a blank
// line, or a "No description found" marker.
func Descriptions(ctx context.Context, kb Base, kind NoteKind, licenses []string) ([]string, error) {
	out := make([]string, 0, len(licenses))
	for _, l := range licenses {
		notes, err := kb.Notes(ctx, kind, l)
		if err != nil {
			return nil, fmt.Errorf("notes for %q: %w", l, err)
		}
		if len(notes) == 0 {
			out = append(out, "No description found for license: "+l)
			continue
		}
		out = append(out, strings.Join(notes, "\n\n"))
	}
	return out, nil
}

// Dataset is the on-disk layout of a knowledge base file.
type Dataset struct {
	Components []Component `json:"components"`
	Notes      []Note      `json:"notes"`
}
