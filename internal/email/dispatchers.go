package email

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/marcim390/financeapp/internal/amqp"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher sends messages synchronously through an SMTP relay.
type SMTPDispatcher struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPDispatcher(cfg SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, sendMail: smtp.SendMail}
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if d.cfg.Username != "" {
		auth = smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	}
	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))
	if err := d.sendMail(addr, auth, d.cfg.From, []string{msg.To}, buildMIME(d.cfg.From, msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	slog.InfoContext(ctx, "Email sent", "type", msg.Type, "to", msg.To)
	return nil
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-version: 1.0;\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// Publisher is the part of the AMQP client the queue dispatcher needs.
type Publisher interface {
	PublishEmail(ctx context.Context, msg *amqp.EmailMessage) error
}

// QueueDispatcher hands messages to the notify worker through AMQP.
type QueueDispatcher struct {
	pub Publisher
}

func NewQueueDispatcher(pub Publisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Send(ctx context.Context, msg Message) error {
	if err := d.pub.PublishEmail(ctx, amqp.NewEmailMessage(msg.To, msg.Subject, msg.HTML, string(msg.Type))); err != nil {
		return fmt.Errorf("queue email: %w", err)
	}
	return nil
}

// LogDispatcher only logs. It is used when no mail transport is configured.
type LogDispatcher struct{}

func (LogDispatcher) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "Email not sent, no transport configured",
		"type", msg.Type,
		"to", msg.To,
		"subject", msg.Subject)
	return nil
}

// Deliver turns a queued message back into a Message and sends it with d.
// The notify worker uses it as its consumer handler.
func Deliver(d Dispatcher) func(context.Context, *amqp.EmailMessage) error {
	return func(ctx context.Context, m *amqp.EmailMessage) error {
		return d.Send(ctx, Message{To: m.To, Subject: m.Subject, HTML: m.HTML, Type: MessageType(m.Type)})
	}
}
