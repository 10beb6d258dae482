// Package notifications delivers user-facing email and realtime events.
package notifications

import (
	"context"
	"fmt"
	"html"
)

// Kind identifies what a notification is about.
type Kind string

const (
	KindPostApproved   Kind = "post_approved"
	KindPostRejected   Kind = "post_rejected"
	KindCommentAdded   Kind = "comment_added"
	KindCommentRemoved Kind = "comment_removed"
	KindConfirmEmail   Kind = "confirm_email"
)

// Message is one email to one recipient. UserID is the recipient's account and
// drives the realtime copy of the event; it is zero for anonymous recipients.
type Message struct {
	Kind    Kind   `json:"kind"`
	UserID  uint   `json:"user_id,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender is a mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Recipient is the addressee of a notification.
type Recipient struct {
	UserID   uint
	Username string
	Email    string
}

func (r Recipient) message(kind Kind, subject, body string) Message {
	return Message{Kind: kind, UserID: r.UserID, To: r.Email, Subject: subject, Body: body}
}

// PostApproved tells an author their post is public.
func PostApproved(to Recipient, postTitle string) Message {
	return to.message(KindPostApproved, "Your post was approved",
		fmt.Sprintf("Hi %s,\n\nYour post %q has been approved and is now visible to everyone.", to.Username, postTitle))
}

// PostRejected tells an author their post was turned down.
func PostRejected(to Recipient, postTitle string) Message {
	return to.message(KindPostRejected, "Your post was rejected",
		fmt.Sprintf("Hi %s,\n\nYour post %q was rejected by a moderator.", to.Username, postTitle))
}

// CommentAdded tells a post author someone commented.
func CommentAdded(to Recipient, commenter, postTitle, text string) Message {
	return to.message(KindCommentAdded, "New comment on your post",
		fmt.Sprintf("Hi %s,\n\n%s commented on %q:\n\n%s", to.Username, commenter, postTitle, text))
}

// CommentRemoved tells a post author that a comment on their post was deleted.
func CommentRemoved(to Recipient, remover, postTitle string) Message {
	return to.message(KindCommentRemoved, "A comment on your post was removed",
		fmt.Sprintf("Hi %s,\n\n%s removed a comment on your post %q.", to.Username, remover, postTitle))
}

// ConfirmEmail carries the account confirmation link.
func ConfirmEmail(to Recipient, link string) Message {
	return to.message(KindConfirmEmail, "Confirm your email",
		fmt.Sprintf("Hi %s,\n\nConfirm your account by opening this link:\n\n%s", to.Username, link))
}

// htmlBody renders the plain body as minimal HTML for transports that send both.
func htmlBody(body string) string {
	return "<pre style=\"font-family:sans-serif\">" + html.EscapeString(body) + "</pre>"
}
