package notifications

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"miniblog/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender(t *testing.T) {
	s, err := NewSender(&config.Config{MailTransport: config.MailTransportLog})
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	s, err = NewSender(&config.Config{MailTransport: config.MailTransportSMTP, SMTPHost: "localhost", SMTPPort: 1025})
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())

	_, err = NewSender(&config.Config{MailTransport: "pigeon"})
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("mail.local", 2525, "user", "secret", "noreply@miniblog.local")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody string
	s.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	msg := CommentAdded(bob, "alice", "Hello", "first!\nsecond line")
	require.NoError(t, s.Send(context.Background(), msg))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "noreply@miniblog.local", gotFrom)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: New comment on your post\r\n")
	assert.Contains(t, gotBody, "first!\r\nsecond line")

	s.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	err := s.Send(context.Background(), msg)
	assert.ErrorContains(t, err, "refused")
}

func TestSMTPSender_SendHonoursContext(t *testing.T) {
	// accepts connections but never sends the SMTP greeting
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	conns := make(chan net.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conns <- conn
		}
	}()
	t.Cleanup(func() {
		select {
		case conn := <-conns:
			_ = conn.Close()
		default:
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	s := NewSMTPSender("127.0.0.1", addr.Port, "", "", "noreply@miniblog.local")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = s.Send(ctx, CommentAdded(bob, "alice", "Hello", "hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type sesStub struct {
	sesiface.SESAPI
	input *ses.SendEmailInput
	err   error
}

func (s *sesStub) SendEmailWithContext(_ aws.Context, in *ses.SendEmailInput, _ ...request.Option) (*ses.SendEmailOutput, error) {
	s.input = in
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, s.err
}

func TestSESSender_Send(t *testing.T) {
	stub := &sesStub{}
	s := &SESSender{client: stub, from: "noreply@miniblog.local"}

	require.NoError(t, s.Send(context.Background(), PostApproved(bob, "<b>Hi</b>")))
	require.NotNil(t, stub.input)
	assert.Equal(t, "bob@example.com", aws.StringValue(stub.input.Destination.ToAddresses[0]))
	assert.Equal(t, "Your post was approved", aws.StringValue(stub.input.Message.Subject.Data))
	assert.True(t, strings.Contains(aws.StringValue(stub.input.Message.Body.Html.Data), "&lt;b&gt;"))

	stub.err = errors.New("throttled")
	assert.ErrorContains(t, s.Send(context.Background(), PostApproved(bob, "x")), "throttled")
}

func TestTemplates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		msg     Message
		subject string
	}{
		{PostApproved(bob, "T"), "Your post was approved"},
		{PostRejected(bob, "T"), "Your post was rejected"},
		{CommentAdded(bob, "alice", "T", "hi"), "New comment on your post"},
		{CommentRemoved(bob, "carol", "T"), "A comment on your post was removed"},
		{ConfirmEmail(bob, "http://link"), "Confirm your email"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.subject, tt.msg.Subject)
		assert.Equal(t, bob.Email, tt.msg.To)
		assert.Equal(t, bob.UserID, tt.msg.UserID)
		assert.Contains(t, tt.msg.Body, "bob")
	}
}
