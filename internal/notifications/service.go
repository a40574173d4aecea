package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meetnotes/internal/config"
)

const userAgent = "meetnotes/0.1.0"

// Service defines the operator alert surface exposed to the workflow.
type Service interface {
	NotifyJobCompleted(ctx context.Context, label string, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, label, stage, message string) error
	NotifyRecovered(ctx context.Context, count int64) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		toggles:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	toggles  config.Notifications
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, label string, duration time.Duration) error {
	if !n.toggles.JobCompleted {
		return nil
	}
	message := fmt.Sprintf("Notes emailed: %s", strings.TrimSpace(label))
	if duration = duration.Round(time.Second); duration > 0 {
		message = fmt.Sprintf("%s (%s)", message, duration)
	}
	return n.send(ctx, payload{
		title:   "meetnotes - Notes Sent",
		message: message,
		tags:    []string{"meetnotes", "job", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, label, stage, message string) error {
	if !n.toggles.JobFailed {
		return nil
	}
	var b strings.Builder
	b.WriteString("Job failed: ")
	b.WriteString(strings.TrimSpace(label))
	if stage = strings.TrimSpace(stage); stage != "" {
		b.WriteString(" during ")
		b.WriteString(stage)
	}
	if message = strings.TrimSpace(message); message != "" {
		b.WriteString("\n")
		b.WriteString(message)
	}
	return n.send(ctx, payload{
		title:    "meetnotes - Job Failed",
		message:  b.String(),
		tags:     []string{"meetnotes", "job", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyRecovered(ctx context.Context, count int64) error {
	if !n.toggles.Recovery || count <= 0 {
		return nil
	}
	noun := "jobs"
	if count == 1 {
		noun = "job"
	}
	return n.send(ctx, payload{
		title:   "meetnotes - Restart Recovery",
		message: fmt.Sprintf("%d %s interrupted by restart; retry with meetnotes jobs retry", count, noun),
		tags:    []string{"meetnotes", "recovery"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "meetnotes - Test",
		message:  "Notification system test",
		tags:     []string{"meetnotes", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string, string) error   { return nil }
func (noopService) NotifyRecovered(context.Context, int64) error                    { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
