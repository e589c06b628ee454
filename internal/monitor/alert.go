package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Alerter posts a service transition notification.
type Alerter interface {
	Alert(ctx context.Context, service, transition, detail string) error
}

// WebhookAlerter posts transitions to a Discord webhook.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WebhookAlerter) Alert(ctx context.Context, service, transition, detail string) error {
	emoji := "🟢"
	if transition == StatusDown {
		emoji = "🔴"
	}
	content := fmt.Sprintf("%s **%s** is %s", emoji, service, transition)
	if detail != "" {
		content += fmt.Sprintf(" (%s)", detail)
	}

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
