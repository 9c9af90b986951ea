package nats

import (
	"encoding/json"
	"testing"
	"time"

	"oss-clearance-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "clearance.phase_changed", Subject(events.TypePhaseChanged))
}

func TestDecodeEnvelope(t *testing.T) {
	ev := events.PhaseChanged("s1", "oem", "contract", "")
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := Decode(raw)

	require.NoError(t, err)
	assert.Equal(t, events.TypePhaseChanged, got.Type)
	assert.Equal(t, "s1", got.SessionID())
	assert.WithinDuration(t, ev.OccurredAt, got.OccurredAt, time.Millisecond)
}

func TestDecodeRejectsUntyped(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
