package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/pkg/metrics"
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/events"
	"oss-clearance-be/pkg/handler"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	generatedPrefix = "I generated the following; please confirm or ask me to regenerate:\n\n"

	// ClassifierFailureMessage is shown when the model never produced a
	// usable verdict.
	ClassifierFailureMessage = "Sorry, I could not understand the assistant reply. Please try again."
)

var errNoConversation = errors.New("session has no conversation")

// TurnResult is the outcome of one committed reviewer turn.
type TurnResult struct {
	Previous workflow.Phase
	Phase    workflow.Phase
	Changed  bool
	Message  string
}

// IDialogueService runs reviewer turns against a clearance session.
type IDialogueService interface {
	Turn(ctx context.Context, session *entity.ClearanceSession, text string) (*TurnResult, error)
	// Force applies a verdict without asking the model, e.g. after a contract
	// upload.
	Force(ctx context.Context, session *entity.ClearanceSession, verdict string) (*TurnResult, error)
}

type dialogueService struct {
	deps      *handler.Deps
	publisher IPublisherService
	metrics   *metrics.Metrics
	log       logger.ILogger
	tracer    trace.Tracer
}

func NewDialogueService(deps *handler.Deps, publisher IPublisherService, m *metrics.Metrics, log logger.ILogger) IDialogueService {
	if log == nil {
		log = logger.NewNop()
	}
	return &dialogueService{
		deps:      deps,
		publisher: publisher,
		metrics:   m,
		log:       log,
		tracer:    otel.Tracer("oss-clearance-be/dialogue"),
	}
}

// turnState is the tentative copy of a session a turn works on.
type turnState struct {
	session *entity.ClearanceSession
	turn    *workflow.Turn
	events  []events.BaseEvent
}

func (s *dialogueService) Turn(ctx context.Context, session *entity.ClearanceSession, text string) (*TurnResult, error) {
	return s.run(ctx, session, func(ctx context.Context, ts *turnState) (assistant.Verdict, error) {
		if ts.turn.Bot == nil {
			return assistant.Verdict{}, errNoConversation
		}
		return ts.turn.Bot.Ask(ctx, text, string(ts.session.Workflow.Current()))
	})
}

func (s *dialogueService) Force(ctx context.Context, session *entity.ClearanceSession, verdict string) (*TurnResult, error) {
	return s.run(ctx, session, func(context.Context, *turnState) (assistant.Verdict, error) {
		return assistant.Verdict{Result: verdict, Fields: map[string]any{"result": verdict}}, nil
	})
}

type classifyFunc func(ctx context.Context, ts *turnState) (assistant.Verdict, error)

// run executes one turn on a clone of the session and commits it only when
// every step succeeded.
func (s *dialogueService) run(ctx context.Context, session *entity.ClearanceSession, classify classifyFunc) (*TurnResult, error) {
	start := time.Now()
	sessionID := session.Id.String()
	phase := session.Workflow.Current()

	ctx, span := s.tracer.Start(ctx, "dialogue.turn", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("workflow.phase", string(phase)),
	))
	defer span.End()

	work := session.Clone()
	ts := &turnState{
		session: work,
		turn: &workflow.Turn{
			SessionID: sessionID,
			Store:     work.Store,
		},
	}
	if work.Conversation != nil {
		ts.turn.Bot = work.Conversation
	}

	res, err := s.step(ctx, ts, classify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveTurn(string(phase), "error", time.Since(start))
		s.log.Error("DIALOGUE", "Turn failed, session left untouched", map[string]interface{}{
			"session_id": sessionID,
			"phase":      string(phase),
			"error":      err.Error(),
		})
		s.publish(ctx, events.TurnFailed(sessionID, string(phase), err.Error()))
		return nil, err
	}

	now := time.Now()
	work.UpdatedAt = &now
	*session = *work

	s.metrics.ObserveTurn(string(phase), "ok", time.Since(start))
	for _, ev := range ts.events {
		s.observe(ev)
		s.publish(ctx, ev)
	}
	s.log.Info("DIALOGUE", "Turn committed", map[string]interface{}{
		"session_id": sessionID,
		"from":       string(res.Previous),
		"to":         string(res.Phase),
		"verdict":    ts.turn.Status,
	})
	return res, nil
}

func (s *dialogueService) step(ctx context.Context, ts *turnState, classify classifyFunc) (*TurnResult, error) {
	wf := ts.session.Workflow
	st := ts.turn.Store
	res := &TurnResult{Previous: wf.Current(), Phase: wf.Current()}

	verdict, err := classify(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("classify reply: %w", err)
	}
	ts.turn.Verdict = verdict
	ts.turn.Status = verdict.Result
	st.Status = verdict.Result

	current, err := wf.Handler(ts.turn.Bot)
	if err != nil {
		return nil, err
	}
	hadDownload := st.DownloadURL != ""
	if err := current.ProcessSpecialLogic(ctx, ts.turn, ""); err != nil {
		return nil, fmt.Errorf("process %s: %w", wf.Current(), err)
	}
	if !hadDownload && st.DownloadURL != "" {
		ts.events = append(ts.events, events.ReadmeGenerated(ts.turn.SessionID, st.DownloadURL))
	}

	pr, err := wf.Process(ctx, ts.turn)
	if err != nil {
		return nil, err
	}
	if pr.Changed {
		return s.enter(ctx, ts, res, pr)
	}

	if kind, ok := handler.KindFor(pr.Current); ok {
		out, err := items.Apply(ctx, st, kind, verdict.Result, s.instructor(ts.turn.Bot, pr.Current))
		if err != nil {
			return nil, fmt.Errorf("apply %s to %s: %w", verdict.Result, kind, err)
		}
		s.recordChanges(ts, out.Changes)

		if out.Completed {
			ts.turn.Status = items.ActionNext
			pr, err = wf.Process(ctx, ts.turn)
			if err != nil {
				return nil, err
			}
			if pr.Changed {
				return s.enter(ctx, ts, res, pr)
			}
		}
		if out.UseOriginalReply || out.Message == "" {
			res.Message = verdict.Talking
		} else {
			res.Message = out.Message
		}
		return res, nil
	}

	if pr.Event == workflow.EventGenerateContent {
		text, err := s.generate(ctx, ts, pr.Current)
		if err != nil {
			return nil, err
		}
		res.Message = generatedPrefix + text
		return res, nil
	}

	res.Message = verdict.Talking
	return res, nil
}

// enter builds the reply for a phase change and runs the entry effects of
// the new phase.
func (s *dialogueService) enter(ctx context.Context, ts *turnState, res *TurnResult, pr workflow.Result) (*TurnResult, error) {
	st := ts.turn.Store
	if kind, ok := handler.ListKindFor(pr.Current); ok {
		st.ProcessingType = string(kind)
	}
	res.Phase = pr.Current
	res.Changed = true

	ts.events = append(ts.events, events.PhaseChanged(ts.turn.SessionID, string(pr.Previous), string(pr.Current), pr.Guard))

	next, err := ts.session.Workflow.Handler(ts.turn.Bot)
	if err != nil {
		return nil, err
	}
	msg, err := next.Instructions(ctx, ts.turn)
	if err != nil {
		return nil, fmt.Errorf("instructions for %s: %w", pr.Current, err)
	}

	if compulsory(pr.Current) {
		kind, _ := handler.KindFor(pr.Current)
		out, err := items.Apply(ctx, st, kind, items.ActionContinue, s.instructor(ts.turn.Bot, pr.Current))
		if err != nil {
			return nil, fmt.Errorf("open first %s item: %w", kind, err)
		}
		s.recordChanges(ts, out.Changes)
		if out.Message != "" {
			msg = strings.TrimSpace(msg + "\n\n" + out.Message)
		}
	}

	if pr.Current == workflow.PhaseCompleted {
		if err := s.writeReport(ts); err != nil {
			return nil, err
		}
	}

	res.Message = msg
	return res, nil
}

// compulsory phases open their first item on entry instead of waiting for
// the reviewer.
func compulsory(p workflow.Phase) bool {
	return p == workflow.PhaseSpecialCheck || p == workflow.PhaseCompliance
}

func (s *dialogueService) generate(ctx context.Context, ts *turnState, phase workflow.Phase) (string, error) {
	h, err := ts.session.Workflow.Handler(ts.turn.Bot)
	if err != nil {
		return "", err
	}
	gen, ok := h.(workflow.ContentGenerator)
	if !ok {
		return "", fmt.Errorf("%w: %s cannot generate content", workflow.ErrNoHandler, phase)
	}
	text, err := gen.GenerateContent(ctx, ts.turn)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", phase, err)
	}
	ts.events = append(ts.events, events.ContentGenerated(ts.turn.SessionID, string(phase), len(text)))
	return text, nil
}

func (s *dialogueService) writeReport(ts *turnState) error {
	st := ts.turn.Store
	b := handler.ClearanceReport(st)
	st.SetArtifact(store.ArtifactProductClearanceReport, b.Build())

	path := filepath.Join(s.deps.SessionDir(ts.turn.SessionID), handler.ReportFileName)
	if err := b.Save(path); err != nil {
		return fmt.Errorf("write clearance report: %w", err)
	}
	ts.events = append(ts.events, events.ReportGenerated(ts.turn.SessionID, path))
	return nil
}

func (s *dialogueService) instructor(bot assistant.Bot, phase workflow.Phase) items.Instructor {
	return handler.ItemInstructor{Bot: bot, Tag: string(phase)}
}

func (s *dialogueService) recordChanges(ts *turnState, changes []items.StatusChange) {
	for _, c := range changes {
		ts.events = append(ts.events, events.ItemStatusChanged(ts.turn.SessionID, string(c.Kind), c.Name, string(c.From), string(c.To)))
	}
}

// observe records the metrics of a committed event.
func (s *dialogueService) observe(ev events.BaseEvent) {
	str := func(k string) string {
		v, _ := ev.Data[k].(string)
		return v
	}
	switch ev.Type {
	case events.TypePhaseChanged:
		s.metrics.Transition(str("from"), str("to"))
	case events.TypeItemStatusChanged:
		s.metrics.ItemChanged(str("kind"), str("to"))
	case events.TypeContentGenerated:
		s.metrics.ContentGenerated(str("phase"))
	}
}

func (s *dialogueService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("DIALOGUE", "Failed to publish event", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}

// IsClassifierFailure reports whether a turn failed because the model reply
// stayed unusable.
func IsClassifierFailure(err error) bool {
	return errors.Is(err, assistant.ErrMalformedReply)
}
