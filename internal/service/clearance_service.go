package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oss-clearance-be/internal/dto"
	"oss-clearance-be/internal/entity"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/pkg/metrics"
	"oss-clearance-be/internal/pkg/serverutils"
	"oss-clearance-be/internal/repository/memory"
	"oss-clearance-be/pkg/assistant"
	"oss-clearance-be/pkg/events"
	"oss-clearance-be/pkg/handler"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/readme"
	"oss-clearance-be/pkg/store"
	"oss-clearance-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	FinishedMessage = "We have finished all checking in current session, please reupload a new license info file to start a new session."
	contractStored  = "The contract is stored with the session."
	noReadme        = "Sorry, we have not found the file you wanted"
	noReport        = "The product clearance report has not been generated yet"
)

// Analyzer turns an uploaded report into the store of a new session.
type Analyzer interface {
	Run(ctx context.Context, html []byte) (*store.Store, error)
}

// ConversationStarter opens the model conversation of a new session.
type ConversationStarter interface {
	Conversation() *assistant.Conversation
}

type IClearanceService interface {
	Analyze(ctx context.Context, fileName string, html []byte) (*dto.AnalyzeResponse, error)
	AnalyzeContract(ctx context.Context, sessionID, fileName string, data []byte) (*dto.ContractResponse, string, error)
	Chat(ctx context.Context, sessionID, message string) (*dto.ChatResponse, error)
	Session(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	ReadmePath(ctx context.Context, sessionID string) (string, error)
	Report(ctx context.Context, sessionID string) (string, error)
}

type clearanceService struct {
	sessions      *memory.SessionRepository
	analyzer      Analyzer
	conversations ConversationStarter
	deps          *handler.Deps
	registry      *handler.Registry
	dialogue      IDialogueService
	publisher     IPublisherService
	metrics       *metrics.Metrics
	log           logger.ILogger
}

// NewClearanceService wires the session lifecycle. conversations may be nil,
// sessions then run without a model and every chat turn fails.
func NewClearanceService(
	sessions *memory.SessionRepository,
	analyzer Analyzer,
	conversations ConversationStarter,
	deps *handler.Deps,
	registry *handler.Registry,
	dialogue IDialogueService,
	publisher IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
) IClearanceService {
	if log == nil {
		log = logger.NewNop()
	}
	if registry == nil {
		registry = handler.NewRegistry(deps)
	}
	return &clearanceService{
		sessions:      sessions,
		analyzer:      analyzer,
		conversations: conversations,
		deps:          deps,
		registry:      registry,
		dialogue:      dialogue,
		publisher:     publisher,
		metrics:       m,
		log:           log,
	}
}

func (s *clearanceService) Analyze(ctx context.Context, fileName string, html []byte) (*dto.AnalyzeResponse, error) {
	start := time.Now()
	st, err := s.analyzer.Run(ctx, html)
	if err != nil {
		s.metrics.ObserveAnalysis("error", time.Since(start))
		s.log.Error("CLEARANCE", "Analysis failed", map[string]interface{}{
			"file":  fileName,
			"error": err.Error(),
		})
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeAnalysisFailed, err.Error(), err)
	}
	s.metrics.ObserveAnalysis("ok", time.Since(start))
	items.Initialize(st)

	session := &entity.ClearanceSession{
		Id:        uuid.New(),
		FileName:  fileName,
		Store:     st,
		Workflow:  workflow.NewContext(handler.NewFactory(s.deps, s.registry)),
		CreatedAt: time.Now(),
	}
	if s.conversations != nil {
		session.Conversation = s.conversations.Conversation()
	}

	message := FinishedMessage
	if !st.AllConfirmed {
		message, err = s.initialMessage(ctx, session)
	}
	if err != nil {
		s.log.Error("CLEARANCE", "Initial instructions failed", map[string]interface{}{
			"file":  fileName,
			"error": err.Error(),
		})
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeAnalysisFailed, err.Error(), err)
	}

	s.sessions.Save(session)
	s.metrics.SetActiveSessions(s.sessions.Count())

	sessionID := session.Id.String()
	components := productComponents(st)
	project := ""
	if st.Document != nil {
		project = st.Document.ProjectTitle()
	}
	s.publish(ctx, events.SessionCreated(sessionID, project, len(components)))
	s.log.Info("CLEARANCE", "Session created", map[string]interface{}{
		"session_id": sessionID,
		"file":       fileName,
		"components": len(components),
	})

	return &dto.AnalyzeResponse{
		SessionId:  session.Id,
		Components: components,
		Message:    message,
		Status:     sessionStatus(session),
	}, nil
}

func (s *clearanceService) initialMessage(ctx context.Context, session *entity.ClearanceSession) (string, error) {
	turn := &workflow.Turn{SessionID: session.Id.String(), Store: session.Store}
	if session.Conversation != nil {
		turn.Bot = session.Conversation
	}
	h, err := session.Workflow.Handler(turn.Bot)
	if err != nil {
		return "", err
	}
	return h.Instructions(ctx, turn)
}

func (s *clearanceService) AnalyzeContract(ctx context.Context, sessionID, fileName string, data []byte) (*dto.ContractResponse, string, error) {
	var (
		res     *dto.ContractResponse
		message string
	)
	err := s.sessions.WithSession(sessionID, func(session *entity.ClearanceSession) error {
		path, err := s.storeContract(sessionID, fileName, data)
		if err != nil {
			return err
		}
		session.Store.ContractPath = path
		res = &dto.ContractResponse{FilePath: path, Status: sessionStatus(session)}

		if session.Workflow.Current() != workflow.PhaseContract {
			message = contractStored
			return nil
		}
		turn, err := s.dialogue.Force(ctx, session, items.ActionNext)
		if err != nil {
			return err
		}
		res.Status = sessionStatus(session)
		message = turn.Message
		return nil
	})
	if err != nil {
		return nil, "", s.chatError(sessionID, err)
	}
	return res, message, nil
}

func (s *clearanceService) storeContract(sessionID, fileName string, data []byte) (string, error) {
	dir := filepath.Join(s.deps.SessionDir(sessionID), "contract")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create contract dir: %w", err)
	}
	name := filepath.Base(fileName)
	if name == "." || name == string(filepath.Separator) {
		name = "contract"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store contract: %w", err)
	}
	return path, nil
}

func (s *clearanceService) Chat(ctx context.Context, sessionID, message string) (*dto.ChatResponse, error) {
	var res *dto.ChatResponse
	err := s.sessions.WithSession(sessionID, func(session *entity.ClearanceSession) error {
		if session.Workflow.Current() == workflow.PhaseCompleted {
			res = completedResponse(session, FinishedMessage)
			return nil
		}

		turn, err := s.dialogue.Turn(ctx, session, message)
		if err != nil {
			return err
		}
		if turn.Phase == workflow.PhaseCompleted {
			res = completedResponse(session, turn.Message)
		} else {
			idx := currentIndex(session)
			res = &dto.ChatResponse{
				Status:              string(turn.Phase),
				Message:             turn.Message,
				CurrentComponentIdx: &idx,
			}
		}
		res.Download = announceDownload(session)
		return nil
	})
	if err != nil {
		return nil, s.chatError(sessionID, err)
	}
	return res, nil
}

// announceDownload returns the README link the first time the session is
// seen past OSS generation with a README on disk.
func announceDownload(session *entity.ClearanceSession) *dto.DownloadInfo {
	if session.DownloadAnnounced || session.Store.DownloadURL == "" {
		return nil
	}
	if session.Workflow.Current().Order() <= workflow.PhaseOSSGeneration.Order() {
		return nil
	}
	session.DownloadAnnounced = true
	return &dto.DownloadInfo{
		Available: true,
		Url:       session.Store.DownloadURL,
		FileName:  readme.FileName,
	}
}

func (s *clearanceService) chatError(sessionID string, err error) error {
	switch {
	case errors.Is(err, memory.ErrSessionNotFound):
		return serverutils.NotFound(serverutils.CodeSessionNotFound, fmt.Sprintf("Session %s not found", sessionID))
	case IsClassifierFailure(err):
		return serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeChatError, ClassifierFailureMessage, err)
	default:
		return serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeChatError, "Error during chat: "+err.Error(), err)
	}
}

func (s *clearanceService) Session(_ context.Context, sessionID string) (*dto.SessionResponse, error) {
	var res *dto.SessionResponse
	err := s.sessions.WithSession(sessionID, func(session *entity.ClearanceSession) error {
		res = &dto.SessionResponse{
			Status:              sessionStatus(session),
			CurrentComponentIdx: currentIndex(session),
			Components:          productComponents(session.Store),
			Items:               make(map[string][]dto.ItemView, len(items.Kinds)),
		}
		for _, kind := range items.Kinds {
			spec := items.MustLookup(kind)
			list := spec.Items(session.Store)
			views := make([]dto.ItemView, 0, len(list))
			for _, it := range list {
				views = append(views, dto.ItemView{Name: spec.Name(it), Status: string(it.Status())})
			}
			res.Items[string(kind)] = views
		}
		return nil
	})
	if err != nil {
		return nil, s.chatError(sessionID, err)
	}
	return res, nil
}

// ReadmePath returns the README of a session. The file outlives the session.
func (s *clearanceService) ReadmePath(_ context.Context, sessionID string) (string, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", serverutils.NotFound(serverutils.CodeNotFound, noReadme)
	}
	path := filepath.Join(s.deps.SessionDir(sessionID), readme.FileName)
	if _, err := os.Stat(path); err != nil {
		return "", serverutils.NotFound(serverutils.CodeNotFound, noReadme)
	}
	return path, nil
}

func (s *clearanceService) Report(_ context.Context, sessionID string) (string, error) {
	var report string
	err := s.sessions.WithSession(sessionID, func(session *entity.ClearanceSession) error {
		report = session.Store.Artifact(store.ArtifactProductClearanceReport)
		return nil
	})
	if err != nil {
		return "", s.chatError(sessionID, err)
	}
	if report == "" {
		return "", serverutils.NotFound(serverutils.CodeNotFound, noReport)
	}
	return report, nil
}

func (s *clearanceService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("CLEARANCE", "Failed to publish event", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}

func sessionStatus(session *entity.ClearanceSession) string {
	if session.Store.AllConfirmed {
		return string(workflow.PhaseCompleted)
	}
	return string(session.Workflow.Current())
}

// currentIndex is the cursor of the list the current phase walks, chapters
// included. It is -1 when the phase walks none.
func currentIndex(session *entity.ClearanceSession) int {
	kind, ok := handler.ListKindFor(session.Workflow.Current())
	if !ok {
		return -1
	}
	return session.Store.Cursor(items.MustLookup(kind).CursorKey)
}

func productComponents(st *store.Store) []string {
	spec := items.MustLookup(items.KindProductComponent)
	list := spec.Items(st)
	out := make([]string, 0, len(list))
	for _, it := range list {
		out = append(out, spec.Name(it))
	}
	return out
}

// completedResponse summarizes the credential checklist, the components that
// end up in the README.
func completedResponse(session *entity.ClearanceSession, message string) *dto.ChatResponse {
	sum := items.MustLookup(items.KindCredential).Summarize(session.Store)
	return &dto.ChatResponse{
		Status:     string(workflow.PhaseCompleted),
		Message:    message,
		Components: productComponents(session.Store),
		Summary: &dto.ChatSummary{
			Total:     sum.Total,
			Passed:    sum.Passed,
			Discarded: sum.Discarded,
		},
	}
}
