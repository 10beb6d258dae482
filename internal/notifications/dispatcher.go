package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"miniblog/internal/config"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/observability"
)

// Publisher pushes realtime events to a user's connections.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// Dispatcher hands notifications to the mail transport, either through the
// queue or inline, and mirrors them to the realtime channel.
//
// In queue mode Dispatch never fails: errors are logged and counted. In sync
// mode a transport error comes back as a NOTIFICATION_FAILED AppError.
type Dispatcher struct {
	mode      string
	queue     *Queue
	sender    Sender
	publisher Publisher
}

// NewDispatcher builds a dispatcher. A nil queue in queue mode falls back to
// sending inline while still swallowing errors.
func NewDispatcher(mode string, q *Queue, sender Sender, publisher Publisher) *Dispatcher {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = config.NotifyModeQueue
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Dispatcher{mode: mode, queue: q, sender: sender, publisher: publisher}
}

func (d *Dispatcher) Mode() string { return d.mode }

func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	ctx, span := observability.StartSpan(ctx, "notifications", "dispatch")
	var err error
	defer func() { span.End(err) }()

	d.publish(ctx, msg)

	switch {
	case d.mode == config.NotifyModeSync:
		if err = d.deliver(ctx, msg); err != nil {
			err = models.NewNotificationError(err)
			return err
		}
	case d.queue == nil:
		_ = d.deliver(ctx, msg)
	default:
		if pushErr := d.queue.Push(ctx, msg); pushErr != nil {
			observability.NotificationsFailed.WithLabelValues(string(msg.Kind), "enqueue").Inc()
			middleware.Logger.WarnContext(ctx, "Notification enqueue failed",
				slog.String("kind", string(msg.Kind)),
				slog.String("error", pushErr.Error()),
			)
			return nil
		}
		observability.NotificationsDispatched.WithLabelValues(string(msg.Kind), d.mode).Inc()
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	if err := d.sender.Send(ctx, msg); err != nil {
		observability.NotificationsFailed.WithLabelValues(string(msg.Kind), "send").Inc()
		middleware.Logger.ErrorContext(ctx, "Notification send failed",
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.To),
			slog.String("error", err.Error()),
		)
		return err
	}
	observability.NotificationsDispatched.WithLabelValues(string(msg.Kind), d.mode).Inc()
	observability.NotificationsDelivered.WithLabelValues(string(msg.Kind), d.sender.Name()).Inc()
	return nil
}

// realtimeEvent is the websocket frame shape.
type realtimeEvent struct {
	Type    Kind   `json:"type"`
	Subject string `json:"subject"`
}

func (d *Dispatcher) publish(ctx context.Context, msg Message) {
	if d.publisher == nil || msg.UserID == 0 || msg.Kind == KindConfirmEmail {
		return
	}
	b, err := json.Marshal(realtimeEvent{Type: msg.Kind, Subject: msg.Subject})
	if err != nil {
		return
	}
	if err := d.publisher.PublishUser(ctx, msg.UserID, string(b)); err != nil {
		middleware.Logger.WarnContext(ctx, "Realtime publish failed",
			slog.Uint64("user_id", uint64(msg.UserID)),
			slog.String("error", err.Error()),
		)
	}
}
