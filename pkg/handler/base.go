// Package handler implements one workflow handler per clearance phase on top
// of four archetypes: simple, item iterator, content generation and chapter
// generation.
package handler

import (
	"context"
	"errors"

	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"
)

const verdictNext = "next"

type instructFunc func(ctx context.Context, h *base, t *workflow.Turn) (string, error)

type specialFunc func(ctx context.Context, h *base, t *workflow.Turn, content string) error

// base carries what every archetype shares: the phase tag, the bot bound by
// the factory and the process-wide dependencies.
type base struct {
	phase workflow.Phase
	bot   assistant.Bot
	deps  *Deps
}

func (b *base) bind(bot assistant.Bot) {
	b.bot = bot
}

// botFor prefers the bot of the running turn over the bound one.
func (b *base) botFor(t *workflow.Turn) assistant.Bot {
	if t != nil && t.Bot != nil {
		return t.Bot
	}
	return b.bot
}

func (b *base) tag() string {
	return string(b.phase)
}

// promptTalking sends a catalog prompt under the phase tag and returns the
// reply text. A reply that stays malformed after the retries falls back to
// the given text.
func (b *base) promptTalking(ctx context.Context, t *workflow.Turn, name, fallback string) (string, error) {
	bot := b.botFor(t)
	if bot == nil {
		return fallback, nil
	}
	v, err := bot.Prompt(ctx, name, b.tag())
	if err != nil {
		if errors.Is(err, assistant.ErrMalformedReply) {
			return fallback, nil
		}
		return "", err
	}
	if v.Talking == "" {
		return fallback, nil
	}
	return v.Talking, nil
}

// fixed returns an instructFunc with a constant text.
func fixed(text string) instructFunc {
	return func(context.Context, *base, *workflow.Turn) (string, error) {
		return text, nil
	}
}

func prompted(name, fallback string) instructFunc {
	return func(ctx context.Context, h *base, t *workflow.Turn) (string, error) {
		return h.promptTalking(ctx, t, name, fallback)
	}
}

// ItemInstructor presents one item through the bot under the phase tag and
// falls back to the raw template when the bot fails.
type ItemInstructor struct {
	Bot      assistant.Bot
	Tag      string
	Preamble string
}

func (i ItemInstructor) Instruct(ctx context.Context, spec items.Spec, item store.Item) string {
	raw := spec.Instruction(item)
	if i.Bot == nil {
		return raw
	}
	input := raw
	if i.Preamble != "" {
		input = i.Preamble + "\n" + raw
	}
	v, err := i.Bot.Ask(ctx, input, i.Tag)
	if err != nil || v.Talking == "" {
		return raw
	}
	return v.Talking
}
