package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gradewatch/internal/logger"
	"gradewatch/internal/model"

	"github.com/rs/zerolog"
)

// WebhookNotifier posts events as JSON to an HTTP endpoint, e.g. the mail
// sender.
type WebhookNotifier struct {
	URL        string
	MaxRetries int
	Client     *http.Client
	backoff    func(attempt int) time.Duration
	log        zerolog.Logger
}

// NewWebhookNotifier creates a notifier with optional proxy support.
func NewWebhookNotifier(endpoint, proxyURL string, maxRetries int) *WebhookNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WebhookNotifier{
		URL:        endpoint,
		MaxRetries: maxRetries,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		backoff: func(attempt int) time.Duration { return time.Duration(1<<uint(attempt)) * time.Second },
		log:     logger.Get().With().Str("component", "webhook").Logger(),
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Publish implements Sink.
func (w *WebhookNotifier) Publish(ctx context.Context, evt *model.Event) error {
	return w.SendWithRetry(ctx, evt, w.MaxRetries)
}

// Send posts one event.
func (w *WebhookNotifier) Send(ctx context.Context, evt *model.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Kind", string(evt.Kind))

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends an event with exponential backoff retry.
func (w *WebhookNotifier) SendWithRetry(ctx context.Context, evt *model.Event, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := w.Send(ctx, evt); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := w.backoff(i)
			w.log.Warn().Err(err).Int("attempt", i+1).Int("of", maxRetries+1).Dur("backoff", backoff).Msg("webhook send failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
