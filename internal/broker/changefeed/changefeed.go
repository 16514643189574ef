package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BearBump/LogiTrack/internal/broker/messages"
	"github.com/BearBump/LogiTrack/internal/events"
	"github.com/BearBump/LogiTrack/internal/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Consumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// Feed fans a change out to the local hub and, when a publisher is set, to other
// instances through Kafka.
type Feed struct {
	hub    *events.Hub
	pub    Publisher
	topic  string
	origin string
	now    func() time.Time
}

// New creates a feed; pub may be nil, then changes stay in process.
func New(hub *events.Hub, pub Publisher, topic string) *Feed {
	return &Feed{
		hub:    hub,
		pub:    pub,
		topic:  topic,
		origin: uuid.NewString(),
		now:    time.Now,
	}
}

func (f *Feed) Origin() string {
	return f.origin
}

// NotifyChanged сигналит локальным подписчикам сразу, ошибка Kafka только логируется.
func (f *Feed) NotifyChanged(ctx context.Context, reason, orderCode string) {
	f.hub.Publish()
	metrics.ChangesPublishedTotal.WithLabelValues("local").Inc()

	if f.pub == nil {
		return
	}
	b, err := json.Marshal(messages.OrdersChanged{
		Origin:    f.origin,
		OrderCode: orderCode,
		Reason:    reason,
		ChangedAt: f.now().UTC(),
	})
	if err != nil {
		slog.Error("encode change message", "error", err.Error())
		return
	}
	if err := f.pub.Publish(ctx, f.topic, []byte(orderCode), b); err != nil {
		slog.Error("publish change", "topic", f.topic, "order_code", orderCode, "error", err.Error())
		return
	}
	metrics.ChangesPublishedTotal.WithLabelValues("kafka").Inc()
}

// Listen re-publishes changes made by other instances to the local hub. Own messages
// are skipped, they were signalled already.
func (f *Feed) Listen(ctx context.Context, c Consumer) error {
	slog.Info("change feed listening", "topic", f.topic, "origin", f.origin)
	return c.Consume(ctx, func(_key, value []byte) error {
		var m messages.OrdersChanged
		if err := json.Unmarshal(value, &m); err != nil {
			// битое сообщение не должно стопорить consumer
			slog.Warn("skip malformed change message", "error", err.Error())
			return nil
		}
		if m.Origin == f.origin {
			return nil
		}
		f.hub.Publish()
		metrics.ChangesPublishedTotal.WithLabelValues("remote").Inc()
		return nil
	})
}
