package email

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testProvider() *SMTPProvider {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSMTPProvider("smtp.gmail.com", 465, "bot@example.com", "app-password", logger)
}

func TestBuildMail(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "Cabc123.jpg")
	if err := os.WriteFile(imgPath, []byte("fake-jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	msg := &Message{
		From:    "Stoic Bot <bot@example.com>",
		To:      []string{"alice@example.com", "bob@example.com"},
		Subject: "Your Daily Reminder",
		HTML:    "<h2>Memento Mori</h2>",
		Inline: &InlineImage{
			CID:         inlineImageCID,
			Path:        imgPath,
			ContentType: "image/jpeg",
		},
	}

	mail, err := testProvider().buildMail(msg)
	if err != nil {
		t.Fatalf("buildMail: %v", err)
	}

	if mail.From != "Stoic Bot <bot@example.com>" {
		t.Errorf("From = %q", mail.From)
	}
	if len(mail.To) != 2 {
		t.Errorf("To = %v, want 2 recipients", mail.To)
	}
	if string(mail.HTML) != "<h2>Memento Mori</h2>" {
		t.Errorf("HTML = %q", mail.HTML)
	}

	if len(mail.Attachments) != 1 {
		t.Fatalf("Attachments = %d, want 1", len(mail.Attachments))
	}
	att := mail.Attachments[0]
	if att.Filename != "Cabc123.jpg" {
		t.Errorf("Filename = %q, want %q", att.Filename, "Cabc123.jpg")
	}
	// Without the related flag the image arrives as a download instead of rendering inline.
	if !att.HTMLRelated {
		t.Error("Attachment not marked HTML-related")
	}
	if got := att.Header.Get("Content-ID"); got != "<design-image>" {
		t.Errorf("Content-ID = %q, want %q", got, "<design-image>")
	}
	if string(att.Content) != "fake-jpeg-bytes" {
		t.Errorf("Content = %q", att.Content)
	}
}

func TestBuildMailMissingImage(t *testing.T) {
	msg := &Message{
		From:    "bot@example.com",
		To:      []string{"alice@example.com"},
		Subject: "Your Daily Reminder",
		HTML:    "<p>hello</p>",
		Inline: &InlineImage{
			CID:         inlineImageCID,
			Path:        filepath.Join(t.TempDir(), "missing.jpg"),
			ContentType: "image/jpeg",
		},
	}

	if _, err := testProvider().buildMail(msg); err == nil {
		t.Fatal("Expected error when the inline image cannot be read")
	}
}

func TestBuildMailWithoutInline(t *testing.T) {
	msg := &Message{
		From:    "bot@example.com",
		To:      []string{"alice@example.com"},
		Subject: "Your Daily Reminder",
		HTML:    "<p>hello</p>",
	}

	mail, err := testProvider().buildMail(msg)
	if err != nil {
		t.Fatalf("buildMail: %v", err)
	}
	if len(mail.Attachments) != 0 {
		t.Errorf("Attachments = %d, want 0", len(mail.Attachments))
	}
}
