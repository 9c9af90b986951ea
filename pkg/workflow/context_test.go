package workflow

import (
	"context"
	"testing"

	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	event Event
	inits int
}

func (h *stubHandler) Instructions(context.Context, *Turn) (string, error) { return "", nil }

func (h *stubHandler) ProcessSpecialLogic(context.Context, *Turn, string) error { return nil }

func (h *stubHandler) Handle(context.Context, *Turn) (Event, error) { return h.event, nil }

func (h *stubHandler) Clone() Handler {
	c := *h
	return &c
}

func (h *stubHandler) InitializeSubtasks(*Turn) { h.inits++ }

type stubSource map[Phase]*stubHandler

func (s stubSource) Handler(p Phase, _ assistant.Bot) (Handler, bool) {
	h, ok := s[p]
	return h, ok
}

func (s stubSource) Clone() HandlerSource {
	out := stubSource{}
	for p, h := range s {
		out[p] = h.Clone().(*stubHandler)
	}
	return out
}

func TestProcessAdvancesOnCompleted(t *testing.T) {
	src := stubSource{PhaseOEM: {event: EventCompleted}}
	c := NewContext(src)

	res, err := c.Process(context.Background(), &Turn{Store: store.New(), Status: "next"})

	require.NoError(t, err)
	assert.Equal(t, Result{Previous: PhaseOEM, Current: PhaseContract, Changed: true, Event: EventCompleted}, res)
	assert.Equal(t, PhaseContract, c.Current())
}

func TestProcessHoldsOnOtherEvents(t *testing.T) {
	for _, ev := range []Event{EventInProgress, EventGenerateContent, Event("weird")} {
		t.Run(string(ev), func(t *testing.T) {
			c := NewContext(stubSource{PhaseOEM: {event: ev}})

			res, err := c.Process(context.Background(), &Turn{Store: store.New()})

			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.Equal(t, PhaseOEM, c.Current())
			assert.Equal(t, ev, res.Event)
		})
	}
}

func TestProcessKeepsVerdictInStore(t *testing.T) {
	st := store.New()
	st.Status = "next"
	turn := &Turn{Store: st, Status: "next"}
	c := NewContext(stubSource{PhaseOEM: {event: EventCompleted}})

	res, err := c.Process(context.Background(), turn)

	require.NoError(t, err)
	assert.Equal(t, EventCompleted, turn.Event)
	assert.Equal(t, EventCompleted, res.Event)
	assert.Equal(t, "next", st.Status)
}

func TestProcessMissingHandler(t *testing.T) {
	c := NewContext(stubSource{})

	_, err := c.Process(context.Background(), &Turn{Store: store.New()})

	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Equal(t, PhaseOEM, c.Current())
}

func TestLatchFiresOncePerVisit(t *testing.T) {
	h := &stubHandler{event: EventInProgress}
	c := NewContext(stubSource{PhaseDependency: h}, StartAt(PhaseDependency))
	turn := &Turn{Store: store.New()}

	_, _ = c.Process(context.Background(), turn)
	_, _ = c.Process(context.Background(), turn)
	assert.Equal(t, 1, h.inits)
	assert.True(t, c.Latched(PhaseDependency))

	// a table looping back re-enters the phase and re-initializes it
	loop := Table{
		PhaseDependency:  {EventCompleted: To(PhaseMainLicense)},
		PhaseMainLicense: {EventCompleted: To(PhaseDependency)},
	}
	other := &stubHandler{event: EventCompleted}
	c = NewContext(stubSource{PhaseDependency: h, PhaseMainLicense: other}, StartAt(PhaseDependency), WithTable(loop))
	h.event = EventCompleted
	h.inits = 0

	_, _ = c.Process(context.Background(), turn)
	_, _ = c.Process(context.Background(), turn)
	assert.Equal(t, PhaseDependency, c.Current())
	assert.False(t, c.Latched(PhaseDependency))
	_, _ = c.Process(context.Background(), turn)
	assert.Equal(t, 2, h.inits)
}

func TestComplianceGuardIsObservable(t *testing.T) {
	tests := []struct {
		approval  string
		wantGuard string
	}{
		{store.OEMApproved, "oem_approved"},
		{store.OEMPending, "default"},
		{store.OEMRejected, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.approval, func(t *testing.T) {
			c := NewContext(stubSource{PhaseCompliance: {event: EventCompleted}}, StartAt(PhaseCompliance))
			st := store.New()
			st.OEMApproval = tt.approval

			res, err := c.Process(context.Background(), &Turn{Store: st})

			require.NoError(t, err)
			assert.Equal(t, PhaseFinalList, res.Current)
			assert.Equal(t, tt.wantGuard, res.Guard)
		})
	}
}

func TestDefaultTableIsForwardOnly(t *testing.T) {
	table := DefaultTable()
	st := store.New()
	for _, p := range Phases[:len(Phases)-1] {
		next, _, ok := table.Next(p, EventCompleted, st)
		require.True(t, ok, p)
		assert.Equal(t, p.Order()+1, next.Order(), p)
	}
	_, _, ok := table.Next(PhaseCompleted, EventCompleted, st)
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewContext(stubSource{PhaseOEM: {event: EventCompleted}})
	clone := c.Clone()

	_, err := clone.Process(context.Background(), &Turn{Store: store.New()})

	require.NoError(t, err)
	assert.Equal(t, PhaseContract, clone.Current())
	assert.Equal(t, PhaseOEM, c.Current())
}
