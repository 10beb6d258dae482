// Package service implements the post lifecycle, comment, moderation and
// account operations on top of the repositories.
package service

import (
	"context"

	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/policy"
)

// Dispatcher sends a notification. In sync mode it may return a
// NOTIFICATION_FAILED error after the caller's write has committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notifications.Message) error
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, notifications.Message) error { return nil }

func dispatcherOrNoop(d Dispatcher) Dispatcher {
	if d == nil {
		return noopDispatcher{}
	}
	return d
}

func recipientOf(u *models.User) notifications.Recipient {
	return notifications.Recipient{UserID: u.ID, Username: u.Username, Email: u.Email}
}

// authorize maps a policy decision to an error.
func authorize(actor policy.Actor, action policy.Action, res policy.Resource, message string) (policy.Decision, error) {
	if action != policy.ViewPost && !actor.Authenticated() {
		return policy.Forbidden, models.NewUnauthorizedError("Authentication required")
	}
	d := policy.Decide(actor, action, res)
	if !d.Allowed() {
		return d, models.NewForbiddenError(message)
	}
	return d, nil
}
