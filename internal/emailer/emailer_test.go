package emailer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wneessen/go-mail"

	"meetnotes/internal/config"
	"meetnotes/internal/services"
)

func testEmailConfig() config.Email {
	return config.Email{
		Host:           "smtp.example.com",
		Port:           587,
		Username:       "notes@example.com",
		Password:       "app-password",
		From:           "notes@example.com",
		To:             []string{"team@example.com"},
		TLS:            "starttls",
		TimeoutSeconds: 5,
	}
}

func writeTranscript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting_20260218_103000.txt")
	if err := os.WriteFile(path, []byte("Speaker_00: hello"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func TestSendComposesNotes(t *testing.T) {
	transcript := writeTranscript(t)
	var sent *mail.Msg
	sender := New(testEmailConfig(), nil).WithDeliver(func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	})

	if err := sender.Send(context.Background(), "2026-02-18 10:30", "- Agreed on launch date", transcript); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if sent == nil {
		t.Fatal("expected message to be delivered")
	}
	subject := sent.GetGenHeader(mail.HeaderSubject)
	if len(subject) != 1 || subject[0] != "Meeting Notes — 2026-02-18 10:30" {
		t.Fatalf("unexpected subject %v", subject)
	}
	recipients, err := sent.GetRecipients()
	if err != nil || len(recipients) != 1 || recipients[0] != "team@example.com" {
		t.Fatalf("unexpected recipients %v (%v)", recipients, err)
	}
	attachments := sent.GetAttachments()
	if len(attachments) != 1 || attachments[0].Name != "meeting_20260218_103000.txt" {
		t.Fatalf("expected transcript attachment, got %+v", attachments)
	}

	var raw bytes.Buffer
	if _, err := sent.WriteTo(&raw); err != nil {
		t.Fatalf("render message: %v", err)
	}
	if !strings.Contains(raw.String(), "- Agreed on launch date") {
		t.Fatal("expected summary in message body")
	}
}

func TestSendMissingTranscript(t *testing.T) {
	sender := New(testEmailConfig(), nil).WithDeliver(func(context.Context, *mail.Msg) error {
		t.Fatal("deliver must not run without a transcript")
		return nil
	})
	err := sender.Send(context.Background(), "label", "summary", filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSendMissingCredentials(t *testing.T) {
	cfg := testEmailConfig()
	cfg.Password = ""
	cfg.To = nil
	err := New(cfg, nil).Send(context.Background(), "label", "summary", writeTranscript(t))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "email.to") || !strings.Contains(err.Error(), "email.username/password") {
		t.Fatalf("expected missing settings listed, got %v", err)
	}
}

func TestSendClassifiesTransportErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker error
	}{
		{"auth", errors.New("535 5.7.8 Username and Password not accepted"), services.ErrConfiguration},
		{"timeout", context.DeadlineExceeded, services.ErrTimeout},
		{"network", errors.New("dial tcp: connection refused"), services.ErrTransient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sender := New(testEmailConfig(), nil).WithDeliver(func(context.Context, *mail.Msg) error {
				return tc.err
			})
			err := sender.Send(context.Background(), "label", "summary", writeTranscript(t))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestPlaintextRelayNeedsNoCredentials(t *testing.T) {
	cfg := testEmailConfig()
	cfg.TLS = "none"
	cfg.Username = ""
	cfg.Password = ""
	delivered := false
	sender := New(cfg, nil).WithDeliver(func(context.Context, *mail.Msg) error {
		delivered = true
		return nil
	})
	if err := sender.Send(context.Background(), "label", "summary", writeTranscript(t)); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !delivered {
		t.Fatal("expected delivery")
	}
}
