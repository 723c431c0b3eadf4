// Package mail delivers transactional email such as login codes.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"petconnect/internal/middleware"
	"petconnect/internal/observability"
)

// Sender delivers a one-time login code to a user.
type Sender interface {
	SendOTP(ctx context.Context, to, name, code string) error
}

const otpSubject = "Your PetConnect verification code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Hello {{.Name}},</h2>
  <p>Your PetConnect verification code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code is valid for 5 minutes. If you did not try to sign in, you can ignore this email.</p>
  <p>The PetConnect team</p>
</body>
</html>`))

// RenderOTP builds the full MIME message for a login code.
func RenderOTP(from, to, name, code string) ([]byte, error) {
	if name == "" {
		name = "there"
	}
	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct{ Name, Code string }{name, code}); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", otpSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, name, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}

	msg, err := RenderOTP(s.From, to, name, code)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if err := s.send(addr, auth, s.From, []string{to}, msg); err != nil {
		observability.MailJobs.WithLabelValues("smtp", "error").Inc()
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	observability.MailJobs.WithLabelValues("smtp", "sent").Inc()
	return nil
}

// LogSender only logs that a code was issued. The code itself is logged in
// development so local logins work without a mail server.
type LogSender struct {
	Env string
}

func (s LogSender) SendOTP(ctx context.Context, to, _ string, code string) error {
	attrs := []any{slog.String("to", to)}
	if s.Env == "development" || s.Env == "" {
		attrs = append(attrs, slog.String("code", code))
	}
	middleware.Logger.InfoContext(ctx, "OTP issued (mail delivery disabled)", attrs...)
	observability.MailJobs.WithLabelValues("log", "sent").Inc()
	return nil
}
