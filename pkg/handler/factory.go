package handler

import (
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/workflow"
)

type binder interface {
	bind(bot assistant.Bot)
}

// Factory builds the handlers of one session. A handler is created on its
// first lookup and then kept, so progress survives across turns.
type Factory struct {
	deps     *Deps
	registry *Registry
	handlers map[workflow.Phase]workflow.Handler
}

var _ workflow.HandlerSource = (*Factory)(nil)

func NewFactory(deps *Deps, reg *Registry) *Factory {
	if reg == nil {
		reg = NewRegistry(deps)
	}
	return &Factory{
		deps:     deps,
		registry: reg,
		handlers: make(map[workflow.Phase]workflow.Handler),
	}
}

// Handler returns the phase handler bound to bot.
func (f *Factory) Handler(phase workflow.Phase, bot assistant.Bot) (workflow.Handler, bool) {
	h, ok := f.handlers[phase]
	if !ok {
		build, known := builders[phase]
		if !known {
			return nil, false
		}
		h = build(f.deps, f.registry)
		f.handlers[phase] = h
	}
	if b, ok := h.(binder); ok && bot != nil {
		b.bind(bot)
	}
	return h, true
}

// Clone deep-copies every handler built so far. Sections stay shared.
func (f *Factory) Clone() workflow.HandlerSource {
	out := &Factory{
		deps:     f.deps,
		registry: f.registry,
		handlers: make(map[workflow.Phase]workflow.Handler, len(f.handlers)),
	}
	for p, h := range f.handlers {
		out.handlers[p] = h.Clone()
	}
	return out
}

// KindFor returns the candidate list a phase walks, if any.
func KindFor(phase workflow.Phase) (items.Kind, bool) {
	build, ok := builders[phase]
	if !ok {
		return "", false
	}
	if it, ok := build(nil, nil).(workflow.ItemIterator); ok {
		return it.ItemKind(), true
	}
	return "", false
}

// ListKindFor returns the candidate list whose cursor follows a phase. It
// extends KindFor with chapters that walk a list.
func ListKindFor(phase workflow.Phase) (items.Kind, bool) {
	if kind, ok := KindFor(phase); ok {
		return kind, true
	}
	build, ok := builders[phase]
	if !ok {
		return "", false
	}
	if ch, ok := build(nil, nil).(*Chapter); ok && ch.kind != "" {
		return ch.kind, true
	}
	return "", false
}
