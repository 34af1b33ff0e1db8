// Package notify delivers best-effort emails to candidates and recruiters.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"

	"intervuex/internal/config"
	"intervuex/internal/errs"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends a message. Callers treat failures as non fatal.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

var sendMail = smtp.SendMail

// SMTPNotifier sends plain text mail through an SMTP relay. Port 465 falls back to implicit TLS.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) from() string {
	if n.cfg.From != "" {
		return n.cfg.From
	}
	return n.cfg.User
}

func (n *SMTPNotifier) render(msg Message) []byte {
	return []byte("From: \"" + n.cfg.FromName + "\" <" + n.from() + ">\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		msg.Body + "\r\n")
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errs.InvalidInput("message has no recipient")
	}

	port := strconv.Itoa(n.cfg.Port)
	addr := n.cfg.Host + ":" + port
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}
	body := n.render(msg)

	err := sendMail(addr, auth, n.from(), []string{msg.To}, body)
	if err != nil && port == "465" {
		err = n.sendImplicitTLS(addr, auth, msg.To, body)
	}
	if err != nil {
		return &errs.CollaboratorError{
			Collaborator: "smtp",
			Code:         errs.ErrCodeServiceDown,
			Message:      fmt.Sprintf("send to %s", msg.To),
			Err:          err,
		}
	}
	return nil
}

func (n *SMTPNotifier) sendImplicitTLS(addr string, auth smtp.Auth, to string, body []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: n.cfg.Host})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()
	if auth != nil {
		if err = c.Auth(auth); err != nil {
			return err
		}
	}
	if err = c.Mail(n.from()); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write(body); err != nil {
		return err
	}
	return wc.Close()
}

// LogNotifier only logs messages. It is used when SMTP is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: utils.OrNop(logger)}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification (smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// New picks the SMTP notifier when a host is configured.
func New(cfg config.SMTPConfig, logger *zap.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(logger)
	}
	return NewSMTPNotifier(cfg)
}
