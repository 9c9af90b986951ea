package handler

import (
	"context"
	"fmt"

	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"
)

// ChapterItem is the item a chapter section is written for.
type ChapterItem struct {
	Index int
	Name  string
}

// Section writes one sub-section of a chapter. Sections are shared by every
// session and hold no progress.
type Section interface {
	Name() string
	Instructions() string
	Generate(ctx context.Context, t *workflow.Turn, item ChapterItem) (string, error)
	// Apply stores generated text in the session store.
	Apply(t *workflow.Turn, item ChapterItem, content string)
	// Combines is true for the section that assembles the item's chapter;
	// generating it closes the item.
	Combines() bool
}

// Wrapper is the per-visit progress of one shared section.
type Wrapper struct {
	Section   Section
	Generated bool
	Confirmed bool
}

type snapshotFunc func(t *workflow.Turn) []string

// Chapter iterates its items and, for each, a fixed list of sections.
type Chapter struct {
	base
	instructions instructFunc
	snapshot     snapshotFunc
	sectionNames []string
	registry     *Registry
	// kind, when set, is the candidate list the items come from. Its cursor
	// and statuses follow the chapter.
	kind items.Kind

	items     []string
	nested    [][]*Wrapper
	itemIndex int
	subIndex  int
}

var (
	_ workflow.Handler            = (*Chapter)(nil)
	_ workflow.SubtaskInitializer = (*Chapter)(nil)
	_ workflow.ContentGenerator   = (*Chapter)(nil)
)

func newChapter(phase workflow.Phase, deps *Deps, reg *Registry, kind items.Kind, snapshot snapshotFunc, instructions instructFunc, sections ...string) *Chapter {
	return &Chapter{
		base:         base{phase: phase, deps: deps},
		instructions: instructions,
		snapshot:     snapshot,
		sectionNames: sections,
		registry:     reg,
		kind:         kind,
	}
}

// Position returns the item and section cursors.
func (h *Chapter) Position() (item, section int) {
	return h.itemIndex, h.subIndex
}

func (h *Chapter) Items() []string {
	return h.items
}

// Wrappers returns the wrappers of item i.
func (h *Chapter) Wrappers(i int) []*Wrapper {
	if i < 0 || i >= len(h.nested) {
		return nil
	}
	return h.nested[i]
}

func (h *Chapter) InitializeSubtasks(t *workflow.Turn) {
	h.items = h.snapshot(t)
	h.nested = make([][]*Wrapper, len(h.items))
	for i := range h.items {
		ws := make([]*Wrapper, 0, len(h.sectionNames))
		for _, name := range h.sectionNames {
			ws = append(ws, &Wrapper{Section: h.registry.MustSection(name)})
		}
		h.nested[i] = ws
	}
	h.itemIndex, h.subIndex = 0, 0
	h.syncCursor(t)
}

func (h *Chapter) current() (*Wrapper, ChapterItem, bool) {
	if h.itemIndex >= len(h.items) || h.subIndex >= len(h.nested[h.itemIndex]) {
		return nil, ChapterItem{}, false
	}
	return h.nested[h.itemIndex][h.subIndex], ChapterItem{Index: h.itemIndex, Name: h.items[h.itemIndex]}, true
}

// Instructions are those of the chapter while the section has nothing to
// show yet, and the section's own afterwards.
func (h *Chapter) Instructions(ctx context.Context, t *workflow.Turn) (string, error) {
	if w, _, ok := h.current(); ok && w.Generated {
		return w.Section.Instructions(), nil
	}
	return h.instructions(ctx, &h.base, t)
}

func (h *Chapter) ProcessSpecialLogic(_ context.Context, t *workflow.Turn, content string) error {
	if content == "" {
		return nil
	}
	w, item, ok := h.current()
	if !ok || w.Confirmed {
		return nil
	}
	w.Section.Apply(t, item, content)
	return nil
}

func (h *Chapter) Handle(_ context.Context, t *workflow.Turn) (workflow.Event, error) {
	w, _, ok := h.current()
	if !ok {
		return workflow.EventCompleted, nil
	}
	if !w.Generated {
		return workflow.EventGenerateContent, nil
	}
	if t.Status != verdictNext {
		w.Generated = false
		return workflow.EventGenerateContent, nil
	}

	w.Confirmed = true
	h.subIndex++
	if h.subIndex >= len(h.nested[h.itemIndex]) {
		h.closeItem(t)
	}
	if _, _, ok := h.current(); !ok {
		return workflow.EventCompleted, nil
	}
	return workflow.EventGenerateContent, nil
}

// GenerateContent writes the current section. A combining section closes its
// item, so the next call starts on the following item.
func (h *Chapter) GenerateContent(ctx context.Context, t *workflow.Turn) (string, error) {
	w, item, ok := h.current()
	if !ok {
		return "", fmt.Errorf("chapter %s: no section left to generate", h.phase)
	}
	h.openItem(t)

	text, err := w.Section.Generate(ctx, t, item)
	if err != nil {
		return "", fmt.Errorf("section %s: %w", w.Section.Name(), err)
	}
	if err := h.ProcessSpecialLogic(ctx, t, text); err != nil {
		return "", err
	}
	w.Generated = true

	if w.Section.Combines() {
		w.Confirmed = true
		h.closeItem(t)
	}
	return text, nil
}

func (h *Chapter) openItem(t *workflow.Turn) {
	h.syncCursor(t)
	if it, ok := h.liveItem(t); ok && it.Status() == store.StatusPending {
		it.SetStatus(store.StatusInProgress)
	}
}

func (h *Chapter) closeItem(t *workflow.Turn) {
	if it, ok := h.liveItem(t); ok {
		it.SetStatus(store.StatusConfirmed)
	}
	h.itemIndex++
	h.subIndex = 0
	h.syncCursor(t)
}

func (h *Chapter) liveItem(t *workflow.Turn) (store.Item, bool) {
	if h.kind == "" || h.itemIndex >= len(h.items) {
		return nil, false
	}
	it, _, ok := items.MustLookup(h.kind).Find(t.Store, h.items[h.itemIndex])
	return it, ok
}

// syncCursor keeps the list cursor on the item being written, within bounds.
func (h *Chapter) syncCursor(t *workflow.Turn) {
	if h.kind == "" || len(h.items) == 0 {
		return
	}
	spec := items.MustLookup(h.kind)
	idx := h.itemIndex
	if idx >= len(h.items) {
		idx = len(h.items) - 1
	}
	if _, i, ok := spec.Find(t.Store, h.items[idx]); ok {
		t.Store.SetCursor(spec.CursorKey, i)
	}
}

func (h *Chapter) Clone() workflow.Handler {
	c := *h
	c.items = append([]string(nil), h.items...)
	c.nested = make([][]*Wrapper, len(h.nested))
	for i, ws := range h.nested {
		cp := make([]*Wrapper, len(ws))
		for j, w := range ws {
			wc := *w
			cp[j] = &wc
		}
		c.nested[i] = cp
	}
	return &c
}
