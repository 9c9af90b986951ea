package workflow

import (
	"context"

	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/store"
)

// Turn carries everything a handler may touch during one reviewer turn.
type Turn struct {
	SessionID string
	Store     *store.Store
	// Status is the classifier verdict of the reviewer's latest reply.
	Status  string
	Verdict assistant.Verdict
	// Event is the event returned by the last Handle call.
	Event Event
	Bot   assistant.Bot
}

// Handler drives one phase.
type Handler interface {
	Instructions(ctx context.Context, t *Turn) (string, error)
	// ProcessSpecialLogic applies phase specific mutations to the store.
	// content is the text just generated, empty for verdict driven calls.
	ProcessSpecialLogic(ctx context.Context, t *Turn, content string) error
	Handle(ctx context.Context, t *Turn) (Event, error)
	Clone() Handler
}

// SubtaskInitializer is implemented by handlers that snapshot a list on
// entry. The context calls it once per visit.
type SubtaskInitializer interface {
	InitializeSubtasks(t *Turn)
}

// ContentGenerator is implemented by handlers that return
// EventGenerateContent.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, t *Turn) (string, error)
}

// ItemIterator is implemented by handlers whose phase walks a candidate list
// through the item-action protocol.
type ItemIterator interface {
	ItemKind() items.Kind
}

// HandlerSource resolves handlers for phases.
type HandlerSource interface {
	Handler(phase Phase, bot assistant.Bot) (Handler, bool)
	Clone() HandlerSource
}
