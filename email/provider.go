// Package email handles composing and sending the daily design emails via
// pluggable providers.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stoic-notifier/pkg/notifier"
)

const (
	defaultSubject = "Your Daily Reminder"
	senderName     = "Stoic Bot"

	// Content-ID the HTML body uses to reference the inline image.
	inlineImageCID = "design-image"
)

// InlineImage is an image embedded in the HTML body via a cid: reference.
type InlineImage struct {
	CID         string
	Path        string
	ContentType string
}

// Message is a fully rendered email ready for delivery.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Inline  *InlineImage
}

// Provider defines the interface for email delivery implementations.
type Provider interface {
	// Send delivers one message over a single connection.
	Send(ctx context.Context, msg *Message) error
}

// Sender renders design notifications and hands them to a provider.
type Sender struct {
	provider Provider
	logger   *slog.Logger
	fromAddr string
}

// New creates an email sender with the given provider.
func New(provider Provider, fromAddr string, logger *slog.Logger) *Sender {
	return &Sender{
		provider: provider,
		logger:   logger,
		fromAddr: fromAddr,
	}
}

// SendDesign emails the design to every recipient in one message, with the
// image inlined into the HTML body.
func (s *Sender) SendDesign(ctx context.Context, recipients []string, design *notifier.Design) error {
	if len(recipients) == 0 {
		return errors.New("no recipients")
	}

	msg := &Message{
		From:    fmt.Sprintf("%s <%s>", senderName, s.fromAddr),
		To:      recipients,
		Subject: defaultSubject,
		HTML:    formatDesignBody(design),
		Inline: &InlineImage{
			CID:         inlineImageCID,
			Path:        design.ImagePath,
			ContentType: "image/jpeg",
		},
	}

	s.logger.Info("Sending design email",
		"recipients", len(recipients),
		"shortcode", design.Shortcode,
		"subject", msg.Subject)

	return s.provider.Send(ctx, msg)
}
