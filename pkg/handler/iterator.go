package handler

import (
	"context"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/workflow"
)

// Iterator walks one candidate list. Item statuses are changed by the
// item-action protocol; the iterator only watches them.
type Iterator struct {
	base
	kind         items.Kind
	instructions instructFunc
	special      specialFunc

	subtasks []string
	cursor   int
}

var (
	_ workflow.Handler            = (*Iterator)(nil)
	_ workflow.SubtaskInitializer = (*Iterator)(nil)
	_ workflow.ItemIterator       = (*Iterator)(nil)
)

func newIterator(phase workflow.Phase, deps *Deps, kind items.Kind, instructions instructFunc, special specialFunc) *Iterator {
	return &Iterator{
		base:         base{phase: phase, deps: deps},
		kind:         kind,
		instructions: instructions,
		special:      special,
	}
}

func (h *Iterator) ItemKind() items.Kind {
	return h.kind
}

// Subtasks returns the identities captured on entry and the cursor into them.
func (h *Iterator) Subtasks() ([]string, int) {
	return h.subtasks, h.cursor
}

func (h *Iterator) InitializeSubtasks(t *workflow.Turn) {
	h.subtasks = items.MustLookup(h.kind).Identities(t.Store)
	h.cursor = 0
}

func (h *Iterator) Instructions(ctx context.Context, t *workflow.Turn) (string, error) {
	return h.instructions(ctx, &h.base, t)
}

func (h *Iterator) ProcessSpecialLogic(ctx context.Context, t *workflow.Turn, content string) error {
	if h.special == nil {
		return nil
	}
	return h.special(ctx, &h.base, t, content)
}

func (h *Iterator) Handle(_ context.Context, t *workflow.Turn) (workflow.Event, error) {
	spec := items.MustLookup(h.kind)
	if spec.AllTerminal(t.Store) {
		return workflow.EventCompleted, nil
	}
	for h.cursor < len(h.subtasks) {
		item, _, ok := spec.Find(t.Store, h.subtasks[h.cursor])
		if !ok || !item.Status().Terminal() {
			break
		}
		h.cursor++
	}
	return workflow.EventInProgress, nil
}

func (h *Iterator) Clone() workflow.Handler {
	c := *h
	c.subtasks = append([]string(nil), h.subtasks...)
	return &c
}
