package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type NotifyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NotifyClient delivers customer-facing messages. Failures here never
// affect booking state; the consumer retries via the queue redelivery.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

type notification struct {
	Actor   string `json:"actor"`
	Kind    string `json:"kind"`
	Code    string `json:"booking_code"`
	ShowID  int64  `json:"show_id"`
	Amount  int64  `json:"amount,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewNotifyClient(cfg NotifyConfig) *NotifyClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &NotifyClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BookingConfirmed notifies the actor that their booking went through.
func (nc *NotifyClient) BookingConfirmed(ctx context.Context, actor, code string, showID, total int64) error {
	return nc.send(ctx, notification{
		Actor:  actor,
		Kind:   "booking_confirmed",
		Code:   code,
		ShowID: showID,
		Amount: total,
	})
}

// BookingCancelled notifies the actor about the cancellation and the
// refund amount due.
func (nc *NotifyClient) BookingCancelled(ctx context.Context, actor, code string, showID, refund int64) error {
	return nc.send(ctx, notification{
		Actor:  actor,
		Kind:   "booking_cancelled",
		Code:   code,
		ShowID: showID,
		Amount: refund,
	})
}

func (nc *NotifyClient) send(ctx context.Context, n notification) error {
	jsonBody, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, nc.baseURL+"/api/v1/notifications", bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
