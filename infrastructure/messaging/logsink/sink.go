// Package logsink stands in for the queue and the event bus when running
// locally. Every notification is written to the log and kept in memory.
package logsink

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Message is one captured notification.
type Message struct {
	Channel    string
	DetailType string
	Payload    map[string]any
}

// Sink implements both the queue and the event bus ports.
type Sink struct {
	logger *zap.Logger

	mu       sync.Mutex
	messages []Message
}

func New(logger *zap.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Send(ctx context.Context, payload map[string]any) error {
	action, _ := payload["action"].(string)
	s.record(Message{Channel: "queue", DetailType: action, Payload: payload})
	return nil
}

func (s *Sink) Publish(ctx context.Context, detailType string, payload map[string]any) error {
	s.record(Message{Channel: "events", DetailType: detailType, Payload: payload})
	return nil
}

// Messages returns a copy of everything captured so far.
func (s *Sink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Sink) record(m Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()

	s.logger.Info("Notification",
		zap.String("channel", m.Channel),
		zap.String("detailType", m.DetailType),
		zap.Any("pk", m.Payload["PK"]),
	)
}
