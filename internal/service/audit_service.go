package service

import (
	"context"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/events"
	pktNats "oss-clearance-be/pkg/nats"
)

const auditDurable = "clearance-audit"

type IAuditService interface {
	Start(ctx context.Context) error
}

// StreamSubscriber is satisfied by pkg/nats.Subscriber.
type StreamSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// auditService copies every durable workflow event into the audit log, so
// clearance decisions can be traced after the session expired.
type auditService struct {
	subscriber StreamSubscriber
	audit      logger.ILogger
}

func NewAuditService(subscriber StreamSubscriber, audit logger.ILogger) IAuditService {
	return &auditService{subscriber: subscriber, audit: audit}
}

func (a *auditService) Start(ctx context.Context) error {
	return a.subscriber.Subscribe(ctx, pktNats.AllSubjects, auditDurable, a.record)
}

func (a *auditService) record(_ context.Context, ev events.BaseEvent) error {
	details := map[string]interface{}{
		"type":        ev.Type,
		"occurred_at": ev.OccurredAt,
	}
	for k, v := range ev.Data {
		details[k] = v
	}
	if ev.Type == events.TypeTurnFailed {
		a.audit.Warn("AUDIT", "Turn failed", details)
		return nil
	}
	a.audit.Info("AUDIT", ev.Type, details)
	return nil
}
