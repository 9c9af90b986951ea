package service

import (
	"context"
	"encoding/json"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/pkg/metrics"
	"oss-clearance-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// FeedSink delivers an event to the reviewers watching a session.
type FeedSink interface {
	Send(sessionID string, event events.BaseEvent)
}

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Count() int
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	feed       FeedSink
	sessions   SessionCounter
	metrics    *metrics.Metrics
	log        logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	feed FeedSink,
	sessions SessionCounter,
	m *metrics.Metrics,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNop()
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		feed:       feed,
		sessions:   sessions,
		metrics:    m,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var ev events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		cs.log.Error("CONSUMER", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	details := map[string]interface{}{"type": ev.Type}
	for k, v := range ev.Data {
		details[k] = v
	}
	cs.log.Info("FEED", "Workflow event", details)

	if cs.sessions != nil {
		cs.metrics.SetActiveSessions(cs.sessions.Count())
	}
	if id := ev.SessionID(); id != "" && cs.feed != nil {
		cs.feed.Send(id, ev)
	}
	msg.Ack()
}
