package service

import (
	"context"
	"encoding/json"
	"fmt"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService fans workflow events out to the in-process bus and, when
// configured, to the durable stream.
type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

// StreamPublisher is the durable side, satisfied by pkg/nats.Publisher.
type StreamPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	stream    StreamPublisher
	log       logger.ILogger
}

func NewPublisherService(topicName string, publisher message.Publisher, stream StreamPublisher, log logger.ILogger) IPublisherService {
	if log == nil {
		log = logger.NewNop()
	}
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		stream:    stream,
		log:       log,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", event.EventType())
	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topicName, err)
	}

	// stream failures are logged only
	if p.stream != nil {
		if err := p.stream.Publish(ctx, event); err != nil {
			p.log.Warn("PUBLISHER", "Failed to publish event to stream", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}
