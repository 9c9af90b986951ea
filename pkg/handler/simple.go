package handler

import (
	"context"

	"oss-clearance-be/pkg/workflow"
)

// Simple completes its phase as soon as the reviewer says next.
type Simple struct {
	base
	instructions instructFunc
	special      specialFunc
}

var _ workflow.Handler = (*Simple)(nil)

func newSimple(phase workflow.Phase, deps *Deps, instructions instructFunc, special specialFunc) *Simple {
	return &Simple{
		base:         base{phase: phase, deps: deps},
		instructions: instructions,
		special:      special,
	}
}

func (h *Simple) Instructions(ctx context.Context, t *workflow.Turn) (string, error) {
	return h.instructions(ctx, &h.base, t)
}

func (h *Simple) ProcessSpecialLogic(ctx context.Context, t *workflow.Turn, content string) error {
	if h.special == nil {
		return nil
	}
	return h.special(ctx, &h.base, t, content)
}

func (h *Simple) Handle(_ context.Context, t *workflow.Turn) (workflow.Event, error) {
	if t.Status == verdictNext {
		return workflow.EventCompleted, nil
	}
	return workflow.EventInProgress, nil
}

func (h *Simple) Clone() workflow.Handler {
	c := *h
	return &c
}
