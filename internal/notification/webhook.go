package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookProvider POSTs the payload as JSON to a single URL. Useful for
// dashboards that accept a generic webhook instead of a push service.
type WebhookProvider struct {
	url    string
	client *http.Client
}

// NewWebhookProvider creates a webhook provider. An empty URL yields a
// provider that is never ready.
func NewWebhookProvider(url string, timeout time.Duration) *WebhookProvider {
	if timeout <= 0 {
		timeout = sendTimeout
	}
	return &WebhookProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *WebhookProvider) Ready() bool {
	return p.url != ""
}

func (p *WebhookProvider) Send(ctx context.Context, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
