package server

import (
	"context"

	"miniblog/internal/notifications"
)

// localPublisher delivers realtime events straight to this process's hub.
type localPublisher struct {
	hub *notifications.Hub
}

func (p localPublisher) PublishUser(_ context.Context, userID uint, payload string) error {
	p.hub.Broadcast(userID, payload)
	return nil
}

// realtimePublisher fans events out through Redis so every instance's hub sees them.
// Without Redis only connections on this instance are reached.
func (s *Server) realtimePublisher() notifications.Publisher {
	if s.notifier != nil {
		return s.notifier
	}
	return localPublisher{hub: s.hub}
}
