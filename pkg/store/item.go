package store

import (
	"fmt"
	"strings"
)

// ItemStatus is the confirmation state of a candidate item.
type ItemStatus string

const (
	StatusPending    ItemStatus = ""
	StatusInProgress ItemStatus = "Inprogress"
	StatusConfirmed  ItemStatus = "confirmed"
	StatusDiscarded  ItemStatus = "discarded"
)

// Terminal reports whether the item needs no further review.
func (s ItemStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusDiscarded
}

const statusField = "status"

// Item is one record of a candidate list. Field names follow the analysis
// output (compName, title, licName ...), the status lives under "status".
type Item map[string]any

func (i Item) Status() ItemStatus {
	s, _ := i[statusField].(string)
	return ItemStatus(s)
}

func (i Item) SetStatus(s ItemStatus) {
	i[statusField] = string(s)
}

// String renders a field for display. Lists are joined with ", ".
func (i Item) String(field string) string {
	v, ok := i[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// Strings returns a list field as a string slice.
func (i Item) Strings(field string) []string {
	switch t := i[field].(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, p := range t {
			out = append(out, fmt.Sprint(p))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}

func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Item:
		return t.Clone()
	default:
		return v
	}
}
