package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/nibzard/tasklist/internal/utils"
)

// EmailConfig holds SMTP settings for e-mail alerts.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// EmailSink sends one message per alert over a single SMTP session.
type EmailSink struct {
	from string
	to   []string
	dial func() (gomail.SendCloser, error)
}

// NewEmailSink returns a sink that dials cfg.Host for every batch.
func NewEmailSink(cfg EmailConfig) (*EmailSink, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("email alerts need a host, a sender and at least one recipient")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &EmailSink{from: cfg.From, to: cfg.To, dial: dialer.Dial}, nil
}

// ParseRecipients splits a comma separated address list.
func ParseRecipients(s string) []string {
	return utils.SplitAndTrim(s, ",")
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, alerts []Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := s.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer conn.Close()

	msgs := make([]*gomail.Message, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, s.message(a))
	}
	if err := gomail.Send(conn, msgs...); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

func (s *EmailSink) message(a Alert) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", a.Subject())
	m.SetDateHeader("Date", a.At)

	body := fmt.Sprintf(`
		<h3>%s</h3>
		<p>Due: <strong>%s</strong></p>
		<p>%s</p>
	`, html.EscapeString(a.Task.Summary), a.Task.Due.Format(time.RFC1123), html.EscapeString(a.Task.Details))

	m.SetBody("text/plain", a.Text())
	m.AddAlternative("text/html", body)
	return m
}
