package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarrySession(t *testing.T) {
	tests := []struct {
		name  string
		event BaseEvent
		typ   string
	}{
		{"created", SessionCreated("s1", "Gateway", 2), TypeSessionCreated},
		{"phase", PhaseChanged("s1", "oem", "contract", ""), TypePhaseChanged},
		{"item", ItemStatusChanged("s1", "component", "A", "", "confirmed"), TypeItemStatusChanged},
		{"content", ContentGenerated("s1", "common_rules", 10), TypeContentGenerated},
		{"readme", ReadmeGenerated("s1", "download/s1"), TypeReadmeGenerated},
		{"report", ReportGenerated("s1", "downloads/s1/r.md"), TypeReportGenerated},
		{"failed", TurnFailed("s1", "oem", "boom"), TypeTurnFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.event.EventType())
			assert.Equal(t, "s1", tt.event.SessionID())
			assert.False(t, tt.event.Timestamp().IsZero())
		})
	}
}

func TestPhaseChangedGuard(t *testing.T) {
	assert.NotContains(t, PhaseChanged("s", "a", "b", "").Payload(), "guard")
	assert.Equal(t, "oem_approved", PhaseChanged("s", "a", "b", "oem_approved").Payload()["guard"])
}
