package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
)

const userAgent = "blinkcode/0.1.0"

// Service defines the notification surface exposed to pipeline workers.
type Service interface {
	NotifyStatusChanged(ctx context.Context, previous, current uint8) error
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
}

func (n *ntfyService) NotifyStatusChanged(ctx context.Context, previous, current uint8) error {
	if current == 0 {
		return n.send(ctx, payload{
			title:   "blinkcode - Status Cleared",
			message: fmt.Sprintf("Status cleared (was %d)", previous),
			tags:    []string{"blinkcode", "status", "cleared"},
		})
	}
	return n.send(ctx, payload{
		title:    "blinkcode - Status Code",
		message:  fmt.Sprintf("Status code %d (%04b)", current, current),
		tags:     []string{"blinkcode", "status", "warning"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "blinkcode - Test",
		message:  "Notification system test",
		tags:     []string{"blinkcode", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

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
	if data.priority != "" && data.priority != "default" {
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

func (noopService) NotifyStatusChanged(context.Context, uint8, uint8) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }

// Change is one recorded status transition.
type Change struct {
	Previous uint8
	Current  uint8
}

// Recorder captures status changes in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

// FailWith makes subsequent notifications return err after recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Recorder) NotifyStatusChanged(_ context.Context, previous, current uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, Change{Previous: previous, Current: current})
	return r.err
}

func (r *Recorder) TestNotification(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Changes returns a copy of the recorded transitions.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}
