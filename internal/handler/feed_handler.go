package handler

import (
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/pkg/serverutils"
	internalWS "oss-clearance-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionLookup tells whether a session is live.
type SessionLookup interface {
	Exists(sessionID string) bool
}

// FeedHandler streams the workflow events of one session to reviewers.
type FeedHandler struct {
	hub      *internalWS.Hub
	sessions SessionLookup
	feedLog  string
	logger   logger.ILogger
}

func NewFeedHandler(hub *internalWS.Hub, sessions SessionLookup, feedLogPath string, log logger.ILogger) *FeedHandler {
	return &FeedHandler{
		hub:      hub,
		sessions: sessions,
		feedLog:  feedLogPath,
		logger:   log,
	}
}

func (h *FeedHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/sessions/:session_id", h.ServeWs)
	r.Get("/sessions/:session_id/events", h.History)
}

// ServeWs upgrades the request and attaches it to the session feed.
func (h *FeedHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if !h.sessions.Exists(sessionID) {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(serverutils.CodeSessionNotFound, "Session not found"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("FeedHandler", "Starting feed", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("FeedHandler", "Feed ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// History returns the latest feed entries of a session, newest first.
func (h *FeedHandler) History(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	limit := c.QueryInt("limit", 50)

	entries, err := logger.ReadEntries(h.feedLog, func(e logger.LogEntry) bool {
		id, _ := e.Details["session_id"].(string)
		return id == sessionID
	}, limit)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Feed history", entries))
}
