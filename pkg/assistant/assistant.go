// Package assistant wraps a chat backend into the strict JSON classifier the
// clearance dialogue relies on.
package assistant

import (
	"context"
	"fmt"

	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxAttempts = 5

// Bot is the per-session view of the assistant handed to workflow handlers.
type Bot interface {
	// Ask classifies input under the given phase tags.
	Ask(ctx context.Context, input string, tags ...string) (Verdict, error)
	// Prompt sends a named catalog prompt and classifies the answer.
	Prompt(ctx context.Context, name string, tags ...string) (Verdict, error)
	// Write sends a named catalog prompt followed by material and returns
	// free text.
	Write(ctx context.Context, name, material string) (string, error)
}

type Option func(*Client)

// WithMaxAttempts bounds the number of tries for one strict JSON call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryHook is called after every malformed reply.
func WithRetryHook(fn func(tag string, attempt int, err error)) Option {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// Client is shared by all sessions.
type Client struct {
	provider    llm.LLMProvider
	catalog     *prompt.Catalog
	maxAttempts int
	onRetry     func(tag string, attempt int, err error)
	tracer      trace.Tracer
}

func NewClient(provider llm.LLMProvider, catalog *prompt.Catalog, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		catalog:     catalog,
		maxAttempts: DefaultMaxAttempts,
		tracer:      otel.Tracer("oss-clearance-be/assistant"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Catalog() *prompt.Catalog {
	return c.catalog
}

func (c *Client) Provider() llm.LLMProvider {
	return c.provider
}

// Conversation starts an empty per-session history.
func (c *Client) Conversation() *Conversation {
	return &Conversation{client: c}
}

// Conversation keeps the chat history of one session. It is not safe for
// concurrent use; the session lock serializes turns.
type Conversation struct {
	client  *Client
	history []llm.Message
}

var _ Bot = (*Conversation)(nil)

func (c *Conversation) Clone() *Conversation {
	return &Conversation{
		client:  c.client,
		history: append([]llm.Message(nil), c.history...),
	}
}

func (c *Conversation) History() []llm.Message {
	return c.history
}

func (c *Conversation) Ask(ctx context.Context, input string, tags ...string) (Verdict, error) {
	tag := ""
	if len(tags) > 0 {
		tag = tags[0]
	}
	ctx, span := c.client.tracer.Start(ctx, "assistant.Ask", trace.WithAttributes(
		attribute.StringSlice("assistant.tags", tags),
	))
	defer span.End()

	system := llm.Message{Role: llm.RoleSystem, Content: c.client.catalog.System(tag)}
	msg := input
	var lastErr error
	for attempt := 1; attempt <= c.client.maxAttempts; attempt++ {
		c.history = append(c.history, llm.Message{Role: llm.RoleUser, Content: msg})
		reply, err := c.client.provider.Chat(ctx, append([]llm.Message{system}, c.history...), llm.WithJSONMode())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chat failed")
			return Verdict{}, fmt.Errorf("assistant chat: %w", err)
		}
		c.history = append(c.history, llm.Message{Role: llm.RoleAssistant, Content: reply})

		v, err := ParseVerdict(reply)
		if err == nil {
			span.SetAttributes(attribute.String("assistant.result", v.Result), attribute.Int("assistant.attempts", attempt))
			return v, nil
		}
		lastErr = err
		if c.client.onRetry != nil {
			c.client.onRetry(tag, attempt, err)
		}
		msg = c.client.catalog.RetryText()
	}
	span.SetStatus(codes.Error, "malformed reply")
	return Verdict{}, fmt.Errorf("%w after %d attempts: %v", ErrMalformedReply, c.client.maxAttempts, lastErr)
}

func (c *Conversation) Prompt(ctx context.Context, name string, tags ...string) (Verdict, error) {
	text, err := c.client.catalog.Get(name)
	if err != nil {
		return Verdict{}, err
	}
	return c.Ask(ctx, text, tags...)
}

func (c *Conversation) Write(ctx context.Context, name, material string) (string, error) {
	text, err := c.client.catalog.Get(name)
	if err != nil {
		return "", err
	}
	ctx, span := c.client.tracer.Start(ctx, "assistant.Write", trace.WithAttributes(attribute.String("assistant.prompt", name)))
	defer span.End()

	// free text generation does not go through the classifier history
	out, err := c.client.provider.Generate(ctx, text+"\n\n"+material)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("assistant write %s: %w", name, err)
	}
	return out, nil
}
