package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/retry"
	jwemail "github.com/jordan-wright/email"
)

// SMTPProvider delivers mail over an implicit-TLS SMTP submission
// connection, one connection per message.
type SMTPProvider struct {
	logger   *slog.Logger
	host     string
	port     int
	username string
	password string
}

// NewSMTPProvider creates a provider that authenticates as username against
// host:port.
func NewSMTPProvider(host string, port int, username, password string, logger *slog.Logger) *SMTPProvider {
	return &SMTPProvider{
		logger:   logger,
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Send builds the MIME message and delivers it.
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	mail, err := p.buildMail(msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	err = retry.Do(
		func() error {
			p.logger.Info("SMTP delivery starting",
				"server", addr,
				"recipients", len(msg.To),
				"subject", msg.Subject)

			startTime := time.Now()
			sendErr := mail.SendWithTLS(addr, auth, &tls.Config{ServerName: p.host})
			duration := time.Since(startTime)

			if sendErr != nil {
				p.logger.Warn("SMTP delivery failed, will retry",
					"server", addr,
					"duration_ms", duration.Milliseconds(),
					"error", sendErr)
				return sendErr
			}

			p.logger.Info("SMTP delivery completed",
				"server", addr,
				"recipients", len(msg.To),
				"duration_ms", duration.Milliseconds())
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Info("Retrying email send after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	p.logger.Info("Email successfully sent", "recipients", len(msg.To))
	return nil
}

// buildMail assembles the multipart message, attaching the inline image so
// the body's cid: reference resolves in mail clients.
func (p *SMTPProvider) buildMail(msg *Message) (*jwemail.Email, error) {
	mail := jwemail.NewEmail()
	mail.From = msg.From
	mail.To = msg.To
	mail.Subject = msg.Subject
	mail.HTML = []byte(msg.HTML)

	if msg.Inline != nil {
		data, err := os.ReadFile(msg.Inline.Path)
		if err != nil {
			return nil, fmt.Errorf("read inline image: %w", err)
		}
		att, err := mail.Attach(bytes.NewReader(data), filepath.Base(msg.Inline.Path), msg.Inline.ContentType)
		if err != nil {
			return nil, fmt.Errorf("attach inline image: %w", err)
		}
		att.HTMLRelated = true
		att.Header.Set("Content-ID", fmt.Sprintf("<%s>", msg.Inline.CID))
	}

	return mail, nil
}
