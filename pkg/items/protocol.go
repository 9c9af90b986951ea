package items

import (
	"context"
	"errors"
	"fmt"

	"oss-clearance-be/pkg/store"
)

// Reviewer verdicts understood by the protocol.
const (
	ActionContinue  = "continue"
	ActionNext      = "next"
	ActionDiscarded = "discarded"
)

const finishedMessage = "We have finished current checking!"

var ErrCursorOutOfRange = errors.New("item cursor out of range")

// Instructor turns a registry template into the text shown to the reviewer.
type Instructor interface {
	Instruct(ctx context.Context, spec Spec, item store.Item) string
}

// StatusChange records one item status mutation made by Apply.
type StatusChange struct {
	Kind Kind
	Name string
	From store.ItemStatus
	To   store.ItemStatus
}

type Outcome struct {
	Message string
	// Completed is set when no pending item is left in the list.
	Completed bool
	// UseOriginalReply asks the caller to show the model's own reply.
	UseOriginalReply bool
	Changes          []StatusChange
}

// Apply runs one reviewer action against the item under the kind's cursor.
func Apply(ctx context.Context, st *store.Store, kind Kind, action string, ins Instructor) (Outcome, error) {
	spec, err := Lookup(kind)
	if err != nil {
		return Outcome{}, err
	}
	list := spec.Items(st)
	if len(list) == 0 {
		return Outcome{Message: "There is nothing to check for " + string(kind) + ".", Completed: true}, nil
	}
	idx := st.Cursor(spec.CursorKey)
	if idx < 0 || idx >= len(list) {
		return Outcome{}, fmt.Errorf("%w: %s=%d, %d items", ErrCursorOutOfRange, spec.CursorKey, idx, len(list))
	}

	a := &applier{ctx: ctx, st: st, spec: spec, ins: ins}
	item := list[idx]
	name := spec.Name(item)

	switch action {
	case ActionContinue:
		switch s := item.Status(); {
		case s == store.StatusPending:
			a.set(item, store.StatusInProgress)
			a.out.Message = a.instruct(item)
		case s == store.StatusInProgress:
			a.out.UseOriginalReply = true
		default:
			a.out.Message = fmt.Sprintf("%s has been %s, you could continue processing or switch to the next", name, s)
		}
	case ActionNext:
		if item.Status() == store.StatusPending {
			// a pending item is opened first, so next == continue + next
			a.set(item, store.StatusInProgress)
		}
		if item.Status() == store.StatusInProgress {
			a.set(item, store.StatusConfirmed)
			a.findNext(idx, name+" has been confirmed!")
		} else {
			a.findNext(idx, name+" was already processed. Moving to next item.")
		}
	case ActionDiscarded:
		if item.Status().Terminal() {
			a.findNext(idx, name+" was already processed. Moving to next item.")
		} else {
			a.set(item, store.StatusDiscarded)
			a.findNext(idx, name+" has been discarded!")
		}
	default:
		a.out.Message = fmt.Sprintf("Please tell me clearly whether to keep working on %s, confirm it and move on, or discard it.", name)
	}
	return a.out, nil
}

type applier struct {
	ctx  context.Context
	st   *store.Store
	spec Spec
	ins  Instructor
	out  Outcome
}

func (a *applier) set(item store.Item, to store.ItemStatus) {
	from := item.Status()
	if from == to {
		return
	}
	item.SetStatus(to)
	a.out.Changes = append(a.out.Changes, StatusChange{Kind: a.spec.Kind, Name: a.spec.Name(item), From: from, To: to})
}

func (a *applier) instruct(item store.Item) string {
	if a.ins == nil {
		return a.spec.Instruction(item)
	}
	return a.ins.Instruct(a.ctx, a.spec, item)
}

// findNext scans idx+1..n-1 then 0..idx-1 for the first pending item.
func (a *applier) findNext(idx int, conf string) {
	list := a.spec.Items(a.st)
	n := len(list)
	for step := 1; step < n; step++ {
		j := (idx + step) % n
		if list[j].Status() != store.StatusPending {
			continue
		}
		a.st.SetCursor(a.spec.CursorKey, j)
		a.set(list[j], store.StatusInProgress)
		a.out.Message = conf + "\n\n" + a.instruct(list[j])
		return
	}
	a.out.Completed = true
	a.out.Message = conf + "\n\n" + finishedMessage
}

// Instructions is an Instructor that returns the raw template.
type Instructions struct{}

func (Instructions) Instruct(_ context.Context, spec Spec, item store.Item) string {
	return spec.Instruction(item)
}
