package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ratingsync/internal/config"
)

const userAgent = "ratingsync/0.1"

// Event identifies the kind of notification being published.
type Event string

const (
	EventBatchCompleted Event = "batch_completed"
	EventRateLimited    Event = "rate_limited"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific values. Keys are documented per event in
// format.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		onRateLimit: cfg.Notifications.NotifyOnRateLimit,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	onRateLimit bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if event == EventRateLimited && !n.onRateLimit {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchCompleted:
		processed := intValue(payload["processed"])
		updated := intValue(payload["updated"])
		failed := intValue(payload["failed"])
		duration := durationText(payload["duration"])
		if failed == 0 {
			return message{
				title: "ratingsync - Run Complete",
				body:  fmt.Sprintf("Processed %d items (%d updated) in %s", processed, updated, duration),
				tags:  []string{"ratingsync", "run", "completed"},
			}, true
		}
		return message{
			title: "ratingsync - Run Complete (with errors)",
			body:  fmt.Sprintf("Processed %d items: %d updated, %d failed in %s", processed, updated, failed, duration),
			tags:  []string{"ratingsync", "run", "errors"},
		}, true
	case EventRateLimited:
		body := "Provider quota exhausted"
		if until := stringValue(payload["cooldownUntil"]); until != "" {
			body += "; cooling down until " + until
		}
		if remaining := intValue(payload["remaining"]); remaining > 0 {
			body += fmt.Sprintf("\n%d items left unprocessed", remaining)
		}
		return message{
			title:    "ratingsync - Rate Limited",
			body:     body,
			tags:     []string{"ratingsync", "ratelimit"},
			priority: "high",
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("Error")
		if label := stringValue(payload["context"]); label != "" {
			b.WriteString(" during ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if errText := stringValue(payload["error"]); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "ratingsync - Error",
			body:     b.String(),
			tags:     []string{"ratingsync", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "ratingsync - Test",
			body:     "Notification system test",
			tags:     []string{"ratingsync", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}

func durationText(v any) string {
	d, _ := v.(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
