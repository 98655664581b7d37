package services

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"kyatflow/internal/logger"
)

// Notifier delivers advisory messages to the administrator.
type Notifier interface {
	Notify(subject, body string) error
}

// SMTPConfig holds the mail relay settings for the SMTP notifier.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
}

type smtpNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifier returns an SMTP notifier when a relay and recipient are
// configured, and a notifier that only writes to the log otherwise.
func NewNotifier(cfg SMTPConfig) Notifier {
	if cfg.Host == "" || cfg.To == "" {
		return &logNotifier{}
	}
	return &smtpNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *smtpNotifier) Notify(subject, body string) error {
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + n.cfg.To,
		"Subject: " + sanitizeHeader(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{n.cfg.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}

	logger.Get().Infow("admin notification sent", "to", n.cfg.To, "subject", subject)
	return nil
}

// logNotifier is used when no mail relay is configured.
type logNotifier struct{}

func (n *logNotifier) Notify(subject, body string) error {
	logger.Get().Infow("admin notification", "subject", subject, "body", body)
	return nil
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
