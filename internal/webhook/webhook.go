// Package webhook delivers run-completion notifications to a configured
// HTTP endpoint. Delivery is best-effort: failures surface as warnings to
// the caller and never affect the pipeline result.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/persona-foundry/internal/retry"
)

// Notifier posts JSON payloads to a webhook URL with retries on transient
// failures.
type Notifier struct {
	url    string
	client *http.Client
	retry  retry.Options
}

// New creates a notifier for the given URL.
func New(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		retry: retry.Options{
			MaxRetries:  3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Exponential: true,
			Retryable:   isRetryableDelivery,
		},
	}
}

// deliveryError records a non-2xx response so the retry policy can
// distinguish server-side failures from client-side ones.
type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("webhook delivery returned HTTP %d", e.status)
}

func isRetryableDelivery(err error) bool {
	if de, ok := err.(*deliveryError); ok {
		return de.status == http.StatusTooManyRequests || de.status >= 500
	}
	// Network-level errors (timeouts, resets) are retryable.
	return true
}

// Notify posts the payload as JSON, retrying transient failures.
func (n *Notifier) Notify(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	return retry.Do(ctx, n.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &deliveryError{status: resp.StatusCode}
		}
		return nil
	})
}
