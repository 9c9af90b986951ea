package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/events"
	pktNats "oss-clearance-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedRecorder struct {
	mu   sync.Mutex
	sent map[string][]events.BaseEvent
}

func (f *feedRecorder) Send(sessionID string, ev events.BaseEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]events.BaseEvent)
	}
	f.sent[sessionID] = append(f.sent[sessionID], ev)
}

func (f *feedRecorder) For(sessionID string) []events.BaseEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.BaseEvent(nil), f.sent[sessionID]...)
}

type failingStream struct {
	calls int
}

func (s *failingStream) Publish(context.Context, events.Event) error {
	s.calls++
	return errors.New("nats: no responders available")
}

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

func TestPublishedEventsReachTheFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	feed := &feedRecorder{}
	consumer := NewConsumerService(bus, "clearance", feed, fixedCount(1), nil, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	stream := &failingStream{}
	publisher := NewPublisherService("clearance", bus, stream, logger.NewNop())
	require.NoError(t, publisher.Publish(ctx, events.PhaseChanged("s1", "oem", "contract", "")))
	require.NoError(t, publisher.Publish(ctx, events.SessionCreated("s2", "Gateway", 3)))

	require.Eventually(t, func() bool {
		return len(feed.For("s1")) == 1 && len(feed.For("s2")) == 1
	}, time.Second, 10*time.Millisecond)

	got := feed.For("s1")[0]
	assert.Equal(t, events.TypePhaseChanged, got.Type)
	assert.Equal(t, "contract", got.Data["to"])
	assert.Equal(t, 2, stream.calls, "stream failures do not stop the bus")
}

type recordedLine struct {
	level   string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	lines []recordedLine
}

func (l *recordingLogger) add(level, msg string, d map[string]interface{}) {
	l.lines = append(l.lines, recordedLine{level: level, message: msg, details: d})
}

func (l *recordingLogger) Debug(_, msg string, d map[string]interface{}) { l.add("debug", msg, d) }
func (l *recordingLogger) Info(_, msg string, d map[string]interface{})  { l.add("info", msg, d) }
func (l *recordingLogger) Warn(_, msg string, d map[string]interface{})  { l.add("warn", msg, d) }
func (l *recordingLogger) Error(_, msg string, d map[string]interface{}) { l.add("error", msg, d) }
func (l *recordingLogger) Sync() error                                   { return nil }

type capturingSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
}

func (s *capturingSubscriber) Subscribe(_ context.Context, subject, durable string, h pktNats.EventHandler) error {
	s.subject, s.durable, s.handler = subject, durable, h
	return nil
}

func TestAuditRecordsStreamEvents(t *testing.T) {
	sub := &capturingSubscriber{}
	audit := &recordingLogger{}
	require.NoError(t, NewAuditService(sub, audit).Start(context.Background()))

	assert.Equal(t, pktNats.AllSubjects, sub.subject)
	assert.Equal(t, auditDurable, sub.durable)

	require.NoError(t, sub.handler(context.Background(), events.ItemStatusChanged("s1", "license", "MIT", "", "confirmed")))
	require.NoError(t, sub.handler(context.Background(), events.TurnFailed("s1", "oem", "timeout")))

	require.Len(t, audit.lines, 2)
	assert.Equal(t, "info", audit.lines[0].level)
	assert.Equal(t, events.TypeItemStatusChanged, audit.lines[0].message)
	assert.Equal(t, "MIT", audit.lines[0].details["name"])
	assert.Equal(t, "warn", audit.lines[1].level)
	assert.Equal(t, "timeout", audit.lines[1].details["reason"])
}
