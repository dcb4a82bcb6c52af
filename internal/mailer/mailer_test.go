package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingMailer(captured *sentMail) *SMTPMailer {
	m := NewSMTPMailer(Config{
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "mailer@example.com",
		Password:    "secret",
		From:        "noreply@example.com",
		FrontendURL: "https://app.example.com/",
	})
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*captured = sentMail{addr: addr, from: from, to: to, msg: string(msg)}
		return nil
	}
	return m
}

func TestSendVerificationEmail(t *testing.T) {
	var captured sentMail
	m := newCapturingMailer(&captured)

	require.NoError(t, m.SendVerificationEmail(context.Background(), "a@x.com", "tok/123"))

	assert.Equal(t, "smtp.example.com:587", captured.addr)
	assert.Equal(t, "noreply@example.com", captured.from)
	assert.Equal(t, []string{"a@x.com"}, captured.to)
	assert.Contains(t, captured.msg, "Subject: Verify Your Email")
	assert.Contains(t, captured.msg, "https://app.example.com/verify-email?token=tok%2F123")
	assert.Contains(t, captured.msg, "Content-Type: text/html")
}

func TestSendPasswordResetEmail(t *testing.T) {
	var captured sentMail
	m := newCapturingMailer(&captured)

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "a@x.com", "tok123"))

	assert.Contains(t, captured.msg, "Subject: Reset Your Password")
	assert.Contains(t, captured.msg, "https://app.example.com/reset-password?token=tok123")
}

func TestSendHTML_CancelledContext(t *testing.T) {
	var captured sentMail
	m := newCapturingMailer(&captured)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendVerificationEmail(ctx, "a@x.com", "tok123")
	assert.Error(t, err)
	assert.Empty(t, captured.addr, "no send after cancellation")
}

func TestHeadersUseCRLF(t *testing.T) {
	var captured sentMail
	m := newCapturingMailer(&captured)

	require.NoError(t, m.SendVerificationEmail(context.Background(), "a@x.com", "tok123"))
	assert.True(t, strings.Contains(captured.msg, "MIME-Version: 1.0\r\n"))
}
