package entity

import (
	"time"

	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"github.com/google/uuid"
)

// ClearanceSession is one reviewer's walk through an uploaded report.
type ClearanceSession struct {
	Id           uuid.UUID
	FileName     string
	Store        *store.Store
	Workflow     *workflow.Context
	Conversation *assistant.Conversation
	// DownloadAnnounced is set once the README link was sent to the reviewer.
	DownloadAnnounced bool
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// Clone copies everything a turn may mutate.
func (s *ClearanceSession) Clone() *ClearanceSession {
	out := *s
	out.Store = s.Store.Clone()
	out.Workflow = s.Workflow.Clone()
	if s.Conversation != nil {
		out.Conversation = s.Conversation.Clone()
	}
	return &out
}
