package services

import (
	"context"
	"time"

	"marketplace-backend/application/ports"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"
	"marketplace-backend/pkg/observability"
	"marketplace-backend/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notification channels.
const (
	ChannelQueue  = "queue"
	ChannelEvents = "events"
)

// Outcome is the result of one best-effort notification: Sent, or Failed
// with a reason.
type Outcome struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

func sent() Outcome                { return Outcome{Sent: true} }
func failed(reason string) Outcome { return Outcome{Reason: reason} }
func (o Outcome) Failed() bool     { return !o.Sent }

// NotifyResult carries the outcome of both fan-out channels of one mutation.
type NotifyResult struct {
	Queue  Outcome `json:"queue"`
	Events Outcome `json:"events"`
}

// Notifier fans a stored record out to the queue and the event bus. It never
// fails the request; failures are logged and returned as outcomes.
type Notifier struct {
	queue   ports.Queue
	bus     ports.EventBus
	metrics ports.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotifier creates a notifier.
func NewNotifier(queue ports.Queue, bus ports.EventBus, metrics ports.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{
		queue:   queue,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Notify sends the queue message and publishes the event concurrently. Both
// are always attempted.
func (n *Notifier) Notify(ctx context.Context, action string, rec records.Record, hidden []string) NotifyResult {
	payload := n.payload(action, rec, hidden)

	var result NotifyResult
	var g errgroup.Group
	g.Go(func() error {
		result.Queue = n.send(ctx, action, payload)
		return nil
	})
	g.Go(func() error {
		result.Events = n.publish(ctx, action, payload)
		return nil
	})
	_ = g.Wait()

	return result
}

// Forward sends rec to the queue only.
func (n *Notifier) Forward(ctx context.Context, action string, rec records.Record, hidden []string) Outcome {
	return n.send(ctx, action, n.payload(action, rec, hidden))
}

func (n *Notifier) send(ctx context.Context, action string, payload map[string]any) Outcome {
	if err := n.queue.Send(ctx, payload); err != nil {
		return n.fail(ChannelQueue, action, err)
	}
	n.metrics.RecordNotification(ChannelQueue, observability.OutcomeSuccess)
	return sent()
}

func (n *Notifier) publish(ctx context.Context, action string, payload map[string]any) Outcome {
	if err := n.bus.Publish(ctx, action, payload); err != nil {
		return n.fail(ChannelEvents, action, err)
	}
	n.metrics.RecordNotification(ChannelEvents, observability.OutcomeSuccess)
	return sent()
}

func (n *Notifier) fail(channel, action string, err error) Outcome {
	n.metrics.RecordNotification(channel, observability.OutcomeFailure)
	n.logger.Warn("Notification failed",
		zap.String("channel", channel),
		zap.String("action", action),
		zap.Error(apperrors.NewNotificationFailed(channel, err)),
	)
	return failed(err.Error())
}

// payload holds the stored attributes as they are at rest, so sensitive
// values stay ciphertext. Only the action tag and timestamp are added.
func (n *Notifier) payload(action string, rec records.Record, hidden []string) map[string]any {
	out := make(map[string]any, len(rec.Attributes)+4)
	for k, v := range rec.Attributes {
		out[k] = v
	}
	for _, h := range hidden {
		delete(out, h)
	}
	out[records.AttrPK] = rec.PartitionKey
	out[records.AttrSK] = rec.SortKey
	out["action"] = action
	out["timestamp"] = utils.FormatTimestamp(n.now())
	return out
}
