package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"miniblog/internal/middleware"
	"miniblog/internal/observability"
)

const (
	defaultPollTimeout = 2 * time.Second
	defaultSendTimeout = 30 * time.Second
)

// Worker drains the mail queue into a Sender. Failed sends go to the
// dead-letter list and are not retried.
type Worker struct {
	Queue       *Queue
	Sender      Sender
	PollTimeout time.Duration
	// SendTimeout bounds one delivery so a stalled relay cannot hold the queue.
	SendTimeout time.Duration
}

func NewWorker(q *Queue, sender Sender) *Worker {
	return &Worker{Queue: q, Sender: sender, PollTimeout: defaultPollTimeout, SendTimeout: defaultSendTimeout}
}

// Run processes messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	middleware.Logger.Info("Notification worker started", slog.String("transport", w.Sender.Name()))
	for {
		select {
		case <-ctx.Done():
			middleware.Logger.Info("Notification worker stopped")
			return
		default:
		}

		if _, err := w.ProcessOne(ctx); err != nil && ctx.Err() == nil {
			middleware.Logger.Error("Notification queue read failed", slog.String("error", err.Error()))
			time.Sleep(time.Second)
		}
	}
}

// ProcessOne handles at most one message. It reports whether a message was taken
// off the queue; the error is only set for queue failures, not for send failures.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	msg, err := w.Queue.Pop(ctx, w.PollTimeout)
	if errors.Is(err, ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		observability.NotificationsFailed.WithLabelValues("unknown", "dequeue").Inc()
		return false, err
	}

	if depth, err := w.Queue.Len(ctx); err == nil {
		observability.NotificationQueueDepth.Set(float64(depth))
	}

	sendCtx, cancel := ctx, context.CancelFunc(func() {})
	if w.SendTimeout > 0 {
		sendCtx, cancel = context.WithTimeout(ctx, w.SendTimeout)
	}
	err = w.Sender.Send(sendCtx, msg)
	cancel()
	if err != nil {
		observability.NotificationsFailed.WithLabelValues(string(msg.Kind), "send").Inc()
		middleware.Logger.ErrorContext(ctx, "Notification send failed",
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.To),
			slog.String("error", err.Error()),
		)
		if dlErr := w.Queue.DeadLetter(ctx, msg, err); dlErr != nil {
			middleware.Logger.ErrorContext(ctx, "Dead-letter push failed", slog.String("error", dlErr.Error()))
		}
		return true, nil
	}
	observability.NotificationsDelivered.WithLabelValues(string(msg.Kind), w.Sender.Name()).Inc()
	return true, nil
}
