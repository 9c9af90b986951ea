package handler

import (
	"context"

	"oss-clearance-be/pkg/workflow"
)

type generateFunc func(ctx context.Context, h *base, t *workflow.Turn) (string, error)

// Content produces one text artifact that the reviewer accepts with next or
// sends back for regeneration.
type Content struct {
	base
	instructions instructFunc
	generate     generateFunc
	artifact     string

	generated bool
}

var (
	_ workflow.Handler          = (*Content)(nil)
	_ workflow.ContentGenerator = (*Content)(nil)
)

func newContent(phase workflow.Phase, deps *Deps, artifact string, instructions instructFunc, generate generateFunc) *Content {
	return &Content{
		base:         base{phase: phase, deps: deps},
		instructions: instructions,
		generate:     generate,
		artifact:     artifact,
	}
}

// Generated reports whether content is waiting for the reviewer.
func (h *Content) Generated() bool {
	return h.generated
}

func (h *Content) Instructions(ctx context.Context, t *workflow.Turn) (string, error) {
	return h.instructions(ctx, &h.base, t)
}

// ProcessSpecialLogic stores generated text under the handler's artifact key.
func (h *Content) ProcessSpecialLogic(_ context.Context, t *workflow.Turn, content string) error {
	if content == "" {
		return nil
	}
	t.Store.SetArtifact(h.artifact, content)
	return nil
}

func (h *Content) Handle(_ context.Context, t *workflow.Turn) (workflow.Event, error) {
	if !h.generated {
		return workflow.EventGenerateContent, nil
	}
	if t.Status == verdictNext {
		// accepted: reset so a later visit starts over
		h.generated = false
		return workflow.EventCompleted, nil
	}
	// anything but next asks for a new version
	h.generated = false
	return workflow.EventGenerateContent, nil
}

func (h *Content) GenerateContent(ctx context.Context, t *workflow.Turn) (string, error) {
	text, err := h.generate(ctx, &h.base, t)
	if err != nil {
		return "", err
	}
	if err := h.ProcessSpecialLogic(ctx, t, text); err != nil {
		return "", err
	}
	h.generated = true
	return text, nil
}

func (h *Content) Clone() workflow.Handler {
	c := *h
	return &c
}
