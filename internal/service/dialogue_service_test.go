package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/events"
	"oss-clearance-be/pkg/handler"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/knowledge"
	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/report"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reviewerProvider classifies the reviewer replies listed in verdicts and
// echoes every other input back as the talking field.
type reviewerProvider struct {
	verdicts  map[string]string
	malformed bool
	generated int
}

func newReviewer() *reviewerProvider {
	return &reviewerProvider{verdicts: map[string]string{
		"next":      "next",
		"discarded": "discarded",
		"again":     "continue",
	}}
}

func (p *reviewerProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if p.malformed {
		return "I am not sure", nil
	}
	last := history[len(history)-1].Content
	result, ok := p.verdicts[last]
	talking := "ok"
	if !ok {
		result = "continue"
		talking = "echo:" + last
	}
	raw, err := json.Marshal(map[string]any{"result": result, "talking": talking})
	return string(raw), err
}

func (p *reviewerProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	p.generated++
	return fmt.Sprintf("generated %d", p.generated), nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(typ string) []events.Event {
	var out []events.Event
	for _, ev := range p.events {
		if ev.EventType() == typ {
			out = append(out, ev)
		}
	}
	return out
}

type dialogueFixture struct {
	session   *entity.ClearanceSession
	deps      *handler.Deps
	provider  *reviewerProvider
	publisher *recordingPublisher
	service   IDialogueService
}

func testKnowledge() knowledge.Base {
	return knowledge.NewFileBase(knowledge.Dataset{
		Components: []knowledge.Component{
			{
				Name: "libpng", GeneralAssessment: "Image codec.", AdditionalNotes: "Unmodified.",
				Licenses: []knowledge.License{{Name: "Libpng", Type: "global"}, {Name: "Apache-2.0", Type: "other"}},
			},
			{Name: "openssl", Licenses: []knowledge.License{{Name: "OpenSSL", Type: "global"}}},
		},
	})
}

func newFixture(t *testing.T, st *store.Store, opts ...workflow.ContextOption) *dialogueFixture {
	t.Helper()
	deps := handler.NewDeps(testKnowledge(), t.TempDir())
	provider := newReviewer()
	pub := &recordingPublisher{}
	client := assistant.NewClient(provider, prompt.Default())
	return &dialogueFixture{
		session: &entity.ClearanceSession{
			Id:           uuid.New(),
			Store:        st,
			Workflow:     workflow.NewContext(handler.NewFactory(deps, nil), opts...),
			Conversation: client.Conversation(),
			CreatedAt:    time.Now(),
		},
		deps:      deps,
		provider:  provider,
		publisher: pub,
		service:   NewDialogueService(deps, pub, nil, logger.NewNop()),
	}
}

func (f *dialogueFixture) turn(t *testing.T, text string) *TurnResult {
	t.Helper()
	res, err := f.service.Turn(context.Background(), f.session, text)
	require.NoError(t, err)
	return res
}

func catalogText(t *testing.T, name string) string {
	t.Helper()
	text, err := prompt.Default().Get(name)
	require.NoError(t, err)
	return text
}

func componentStore(statuses ...string) *store.Store {
	st := store.New()
	list := make([]store.Item, 0, len(statuses))
	for i, s := range statuses {
		list = append(list, store.Item{"compName": string(rune('A' + i)), "status": s})
	}
	st.SetList(items.MustLookup(items.KindComponent).ItemsKey, list)
	return st
}

func TestOEMAdvancesToContract(t *testing.T) {
	f := newFixture(t, store.New())

	res := f.turn(t, "next")

	assert.Equal(t, workflow.PhaseOEM, res.Previous)
	assert.Equal(t, workflow.PhaseContract, res.Phase)
	assert.True(t, res.Changed)
	assert.Equal(t, "echo:"+catalogText(t, "bot/Contract"), res.Message)
	assert.Equal(t, workflow.PhaseContract, f.session.Workflow.Current())
	assert.Empty(t, f.session.Store.ProcessingType)
	require.Len(t, f.publisher.ofType(events.TypePhaseChanged), 1)
}

func TestDependencyConfirmsAndMovesOn(t *testing.T) {
	f := newFixture(t, componentStore("", ""), workflow.StartAt(workflow.PhaseDependency))
	spec := items.MustLookup(items.KindComponent)

	res := f.turn(t, "next")

	assert.False(t, res.Changed)
	list := spec.Items(f.session.Store)
	assert.Equal(t, store.StatusConfirmed, list[0].Status())
	assert.Equal(t, store.StatusInProgress, list[1].Status())
	assert.Equal(t, 1, f.session.Store.Cursor(spec.CursorKey))
	assert.Contains(t, res.Message, "A has been confirmed!")
	assert.Contains(t, res.Message, spec.Instruction(list[1]))
	assert.Len(t, f.publisher.ofType(events.TypeItemStatusChanged), 3)
}

func TestEnteringAListPhaseNamesItsKind(t *testing.T) {
	st := componentStore("confirmed", "")
	st.SetCursor(items.MustLookup(items.KindComponent).CursorKey, 1)
	st.ProcessingType = string(items.KindComponent)
	f := newFixture(t, st, workflow.StartAt(workflow.PhaseDependency))

	res := f.turn(t, "next")

	require.True(t, res.Changed)
	assert.Equal(t, workflow.PhaseMainLicense, res.Phase)
	assert.Equal(t, string(items.KindMainLicense), f.session.Store.ProcessingType)
}

func TestDependencyDiscardLastItemLeavesPhase(t *testing.T) {
	st := componentStore("confirmed", "")
	st.SetCursor(items.MustLookup(items.KindComponent).CursorKey, 1)
	f := newFixture(t, st, workflow.StartAt(workflow.PhaseDependency))

	res := f.turn(t, "discarded")

	assert.True(t, res.Changed)
	assert.Equal(t, workflow.PhaseMainLicense, res.Phase)
	list := items.MustLookup(items.KindComponent).Items(f.session.Store)
	assert.Equal(t, store.StatusDiscarded, list[1].Status())
	assert.Equal(t, "echo:"+catalogText(t, "bot/MainLicense"), res.Message)
}

func TestComplianceGuardIsObservable(t *testing.T) {
	tests := []struct {
		name      string
		approval  string
		wantGuard string
	}{
		{"oem approved", store.OEMApproved, "oem_approved"},
		{"oem pending", store.OEMPending, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			st.OEMApproval = tt.approval
			st.SetList(items.MustLookup(items.KindLicense).ItemsKey, []store.Item{
				{"title": "MIT", "status": "confirmed"},
				{"title": "GPL-3.0", "status": "discarded"},
			})
			f := newFixture(t, st, workflow.StartAt(workflow.PhaseCompliance))

			res := f.turn(t, "next")

			assert.Equal(t, workflow.PhaseFinalList, res.Phase)
			changed := f.publisher.ofType(events.TypePhaseChanged)
			require.Len(t, changed, 1)
			assert.Equal(t, tt.wantGuard, changed[0].Payload()["guard"])
		})
	}
}

func TestContentRegeneratesUntilAccepted(t *testing.T) {
	f := newFixture(t, store.New(), workflow.StartAt(workflow.PhaseProductOverview))

	first := f.turn(t, "please start")
	assert.False(t, first.Changed)
	assert.Equal(t, generatedPrefix+"generated 1", first.Message)
	assert.Equal(t, "generated 1", f.session.Store.Artifact(store.ArtifactProductOverview))

	second := f.turn(t, "again")
	assert.False(t, second.Changed)
	assert.Equal(t, workflow.PhaseProductOverview, second.Phase)
	assert.Equal(t, generatedPrefix+"generated 2", second.Message)
	assert.Equal(t, "generated 2", f.session.Store.Artifact(store.ArtifactProductOverview))

	third := f.turn(t, "next")
	assert.True(t, third.Changed)
	assert.Equal(t, workflow.PhaseComponentOverview, third.Phase)

	h, err := f.session.Workflow.HandlerFor(workflow.PhaseProductOverview, nil)
	require.NoError(t, err)
	assert.False(t, h.(*handler.Content).Generated())
	assert.Len(t, f.publisher.ofType(events.TypeContentGenerated), 2)
}

func TestChapterWalksSevenSections(t *testing.T) {
	st := store.New()
	st.Document = &report.Document{Meta: report.Meta{ProjectTitle: "Gateway 3000"}}
	st.SetList(items.MustLookup(items.KindProductComponent).ItemsKey, []store.Item{
		{"compName": "libpng", "licenses": []any{"Libpng", "Apache-2.0"}},
		{"compName": "openssl", "licenses": []any{"OpenSSL"}},
	})
	f := newFixture(t, st, workflow.StartAt(workflow.PhaseObligations))

	var last *TurnResult
	for i := 0; i < len(handler.ObligationSections); i++ {
		last = f.turn(t, "next")
		require.Equal(t, workflow.PhaseObligations, last.Phase)
	}

	assert.Contains(t, last.Message, "## libpng")
	h, err := f.session.Workflow.HandlerFor(workflow.PhaseObligations, nil)
	require.NoError(t, err)
	item, section := h.(*handler.Chapter).Position()
	assert.Equal(t, 1, item)
	assert.Equal(t, 0, section)

	spec := items.MustLookup(items.KindProductComponent)
	assert.Equal(t, 1, f.session.Store.Cursor(spec.CursorKey))
	assert.Equal(t, store.StatusConfirmed, spec.Items(f.session.Store)[0].Status())
}

func TestCompulsoryPhaseOpensFirstItem(t *testing.T) {
	st := store.New()
	st.SetList(items.MustLookup(items.KindCredential).ItemsKey, []store.Item{{"compName": "zlib"}})
	st.SetList(items.MustLookup(items.KindSpecialCheck).ItemsKey, []store.Item{
		{"licName": "GPL-2.0", "category": "GPL"},
	})
	f := newFixture(t, st, workflow.StartAt(workflow.PhaseCredential))

	res := f.turn(t, "next")

	assert.Equal(t, workflow.PhaseSpecialCheck, res.Phase)
	special := items.MustLookup(items.KindSpecialCheck)
	assert.Equal(t, store.StatusInProgress, special.Items(f.session.Store)[0].Status())
	assert.Contains(t, res.Message, special.Instruction(special.Items(f.session.Store)[0]))
}

func TestFailedTurnLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, componentStore("", ""), workflow.StartAt(workflow.PhaseDependency))
	f.provider.malformed = true
	history := len(f.session.Conversation.History())

	_, err := f.service.Turn(context.Background(), f.session, "next")

	require.Error(t, err)
	assert.True(t, IsClassifierFailure(err))
	assert.Equal(t, workflow.PhaseDependency, f.session.Workflow.Current())
	assert.Len(t, f.session.Conversation.History(), history)
	for _, it := range items.MustLookup(items.KindComponent).Items(f.session.Store) {
		assert.Equal(t, store.StatusPending, it.Status())
	}
	assert.Len(t, f.publisher.ofType(events.TypeTurnFailed), 1)
	assert.Empty(t, f.publisher.ofType(events.TypeItemStatusChanged))
}

func TestTurnWithoutConversationFails(t *testing.T) {
	f := newFixture(t, store.New())
	f.session.Conversation = nil

	_, err := f.service.Turn(context.Background(), f.session, "next")

	assert.ErrorIs(t, err, errNoConversation)
	assert.Equal(t, workflow.PhaseOEM, f.session.Workflow.Current())
}

func TestForceSkipsClassifier(t *testing.T) {
	f := newFixture(t, store.New(), workflow.StartAt(workflow.PhaseContract))
	f.provider.malformed = true

	res, err := f.service.Force(context.Background(), f.session, items.ActionNext)

	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseDependency, res.Phase)
}

func TestCompletedWritesReport(t *testing.T) {
	table := workflow.Table{
		workflow.PhaseCopyleft: {workflow.EventCompleted: workflow.To(workflow.PhaseCompleted)},
	}
	st := store.New()
	st.SetArtifact(store.ArtifactProductOverview, "A gateway.")
	f := newFixture(t, st, workflow.StartAt(workflow.PhaseCopyleft), workflow.WithTable(table))

	res := f.turn(t, "next")

	assert.Equal(t, workflow.PhaseCompleted, res.Phase)
	report := f.session.Store.Artifact(store.ArtifactProductClearanceReport)
	assert.Contains(t, report, "A gateway.")

	path := filepath.Join(f.deps.SessionDir(f.session.Id.String()), handler.ReportFileName)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report, string(raw))
	assert.Len(t, f.publisher.ofType(events.TypeReportGenerated), 1)
}
