// Package mailer sends account email over SMTP. Delivery is synchronous:
// the caller's request fails if the send fails.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

type SMTPMailer struct {
	addr        string
	auth        smtp.Auth
	from        string
	frontendURL string
	send        func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTPMailer{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:        smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from:        from,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		send:        smtp.SendMail,
	}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, url.QueryEscape(token))
	body := fmt.Sprintf(`<h1>Email Verification</h1>
<p>Thank you for registering! Please verify your email by clicking the link below:</p>
<a href="%s">Verify Email</a>
<p>This link will expire in 24 hours.</p>
<p>If you did not create an account, please ignore this email.</p>`, link)

	return m.sendHTML(ctx, email, "Verify Your Email", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, url.QueryEscape(token))
	body := fmt.Sprintf(`<h1>Password Reset</h1>
<p>You requested to reset your password. Click the link below to proceed:</p>
<a href="%s">Reset Password</a>
<p>This link will expire in 1 hour.</p>
<p>If you did not request a password reset, please ignore this email.</p>`, link)

	return m.sendHTML(ctx, email, "Reset Your Password", body)
}

func (m *SMTPMailer) sendHTML(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	if err := m.send(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	return nil
}
