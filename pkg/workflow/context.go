package workflow

import (
	"context"
	"errors"
	"fmt"

	"oss-clearance-be/pkg/assistant"
)

var ErrNoHandler = errors.New("no handler registered for phase")

// Result describes one Process call.
type Result struct {
	Previous Phase
	Current  Phase
	Changed  bool
	Event    Event
	// Guard names the guard that selected the target, empty for direct cells.
	Guard string
}

// Context owns the current phase and the initialization latch of a session.
type Context struct {
	current Phase
	table   Table
	latch   map[Phase]struct{}
	source  HandlerSource
}

type ContextOption func(*Context)

func WithTable(t Table) ContextOption {
	return func(c *Context) { c.table = t }
}

func StartAt(p Phase) ContextOption {
	return func(c *Context) { c.current = p }
}

func NewContext(source HandlerSource, opts ...ContextOption) *Context {
	c := &Context{
		current: PhaseOEM,
		table:   DefaultTable(),
		latch:   make(map[Phase]struct{}),
		source:  source,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Current() Phase {
	return c.current
}

func (c *Context) Latched(p Phase) bool {
	_, ok := c.latch[p]
	return ok
}

// Handler resolves the handler of the current phase bound to bot.
func (c *Context) Handler(bot assistant.Bot) (Handler, error) {
	return c.HandlerFor(c.current, bot)
}

func (c *Context) HandlerFor(p Phase, bot assistant.Bot) (Handler, error) {
	h, ok := c.source.Handler(p, bot)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, p)
	}
	return h, nil
}

// Process runs the current handler once and applies the resulting transition.
func (c *Context) Process(ctx context.Context, t *Turn) (Result, error) {
	res := Result{Previous: c.current, Current: c.current}

	h, err := c.Handler(t.Bot)
	if err != nil {
		return res, err
	}
	if init, ok := h.(SubtaskInitializer); ok && !c.Latched(c.current) {
		init.InitializeSubtasks(t)
		c.latch[c.current] = struct{}{}
	}

	event, err := h.Handle(ctx, t)
	if err != nil {
		return res, fmt.Errorf("handle %s: %w", c.current, err)
	}
	t.Event = event
	res.Event = event

	next, guard, ok := c.table.Next(c.current, event, t.Store)
	if ok && next != c.current {
		c.current = next
		delete(c.latch, next)
		res.Current = next
		res.Changed = true
		res.Guard = guard
	}
	return res, nil
}

// Clone copies phase and latch and binds a cloned handler source.
func (c *Context) Clone() *Context {
	latch := make(map[Phase]struct{}, len(c.latch))
	for p := range c.latch {
		latch[p] = struct{}{}
	}
	return &Context{
		current: c.current,
		table:   c.table,
		latch:   latch,
		source:  c.source.Clone(),
	}
}
