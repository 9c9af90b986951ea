package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PHASE_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Workflow event codes.
const (
	TypeSessionCreated    = "SESSION_CREATED"
	TypePhaseChanged      = "PHASE_CHANGED"
	TypeItemStatusChanged = "ITEM_STATUS_CHANGED"
	TypeContentGenerated  = "CONTENT_GENERATED"
	TypeReadmeGenerated   = "README_GENERATED"
	TypeReportGenerated   = "REPORT_GENERATED"
	TypeTurnFailed        = "TURN_FAILED"
)

// BaseEvent is the only implementation; the type code tells events apart.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SessionID returns the session the event belongs to, "" if none.
func (e BaseEvent) SessionID() string {
	id, _ := e.Data["session_id"].(string)
	return id
}

func newEvent(eventType, sessionID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["session_id"] = sessionID
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func SessionCreated(sessionID, project string, components int) BaseEvent {
	return newEvent(TypeSessionCreated, sessionID, map[string]interface{}{
		"project":    project,
		"components": components,
	})
}

func PhaseChanged(sessionID, from, to, guard string) BaseEvent {
	data := map[string]interface{}{"from": from, "to": to}
	if guard != "" {
		data["guard"] = guard
	}
	return newEvent(TypePhaseChanged, sessionID, data)
}

func ItemStatusChanged(sessionID, kind, name, from, to string) BaseEvent {
	return newEvent(TypeItemStatusChanged, sessionID, map[string]interface{}{
		"kind": kind,
		"name": name,
		"from": from,
		"to":   to,
	})
}

func ContentGenerated(sessionID, phase string, length int) BaseEvent {
	return newEvent(TypeContentGenerated, sessionID, map[string]interface{}{
		"phase":  phase,
		"length": length,
	})
}

func ReadmeGenerated(sessionID, url string) BaseEvent {
	return newEvent(TypeReadmeGenerated, sessionID, map[string]interface{}{"url": url})
}

func ReportGenerated(sessionID, path string) BaseEvent {
	return newEvent(TypeReportGenerated, sessionID, map[string]interface{}{"path": path})
}

func TurnFailed(sessionID, phase, reason string) BaseEvent {
	return newEvent(TypeTurnFailed, sessionID, map[string]interface{}{
		"phase":  phase,
		"reason": reason,
	})
}
