package service

import (
	"context"
	"testing"
	"time"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/repository/memory"
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/handler"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAnalyzer struct {
	st *store.Store
}

func (a fixedAnalyzer) Run(context.Context, []byte) (*store.Store, error) {
	return a.st, nil
}

func newClearance(t *testing.T, st *store.Store) (IClearanceService, *memory.SessionRepository, *handler.Deps) {
	t.Helper()
	deps := handler.NewDeps(testKnowledge(), t.TempDir())
	sessions := memory.NewSessionRepository(time.Hour, time.Hour)
	client := assistant.NewClient(newReviewer(), prompt.Default())
	svc := NewClearanceService(sessions, fixedAnalyzer{st: st}, client, deps, nil,
		NewDialogueService(deps, nil, nil, logger.NewNop()), nil, nil, logger.NewNop())
	return svc, sessions, deps
}

func TestAnalyzeInitializesSession(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []string
		wantStatus string
		wantCursor int
		wantType   string
		confirmed  bool
	}{
		{"first pending item", []string{"confirmed", "", ""}, string(workflow.PhaseOEM), 1, string(items.KindComponent), false},
		{"every item terminal", []string{"confirmed", "discarded"}, string(workflow.PhaseCompleted), 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, _ := newClearance(t, componentStore(tt.statuses...))

			res, err := svc.Analyze(context.Background(), "report.html", nil)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			session, ok := sessions.Get(res.SessionId.String())
			require.True(t, ok)
			assert.Equal(t, tt.confirmed, session.Store.AllConfirmed)
			assert.Equal(t, tt.wantType, session.Store.ProcessingType)
			assert.Equal(t, tt.wantCursor, session.Store.Cursor(items.MustLookup(items.KindComponent).CursorKey))
			if tt.confirmed {
				assert.Equal(t, FinishedMessage, res.Message)
			} else {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestSessionReportsChapterCursor(t *testing.T) {
	spec := items.MustLookup(items.KindProductComponent)
	st := store.New()
	st.SetList(spec.ItemsKey, []store.Item{
		{"compName": "libpng", "status": "confirmed"},
		{"compName": "openssl", "status": ""},
	})
	st.SetCursor(spec.CursorKey, 1)
	svc, sessions, deps := newClearance(t, st)
	session := &entity.ClearanceSession{
		Id:        uuid.New(),
		Store:     st,
		Workflow:  workflow.NewContext(handler.NewFactory(deps, nil), workflow.StartAt(workflow.PhaseObligations)),
		CreatedAt: time.Now(),
	}
	sessions.Save(session)

	res, err := svc.Session(context.Background(), session.Id.String())

	require.NoError(t, err)
	assert.Equal(t, string(workflow.PhaseObligations), res.Status)
	assert.Equal(t, 1, res.CurrentComponentIdx)
	assert.Equal(t, []string{"libpng", "openssl"}, res.Components)
}
