package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// Charge outcomes. The set is closed: a gateway timeout or transport
// failure is a distinct outcome, never folded into a decline, because
// the money may have moved.
const (
	ChargeSuccess  = "SUCCESS"
	ChargeDeclined = "DECLINED"
	ChargeTimeout  = "TIMEOUT"
)

// ChargeResult is the full answer of a charge attempt. Callers switch on
// Outcome; TransactionID is set only on SUCCESS.
type ChargeResult struct {
	Outcome       string
	TransactionID string
	Reason        string
}

type PaymentConfig struct {
	BaseURL     string
	MerchantID  string
	Password    string
	Timeout     time.Duration
	Currency    string
	Description string
}

type PaymentClient struct {
	baseURL     string
	merchantID  string
	password    string
	currency    string
	description string
	httpClient  *http.Client
}

type chargeRequest struct {
	MerchantID     string `json:"merchantId"`
	Token          string `json:"token"`
	Amount         int64  `json:"amount"`
	OrderID        string `json:"orderId"`
	Currency       string `json:"currency"`
	Method         string `json:"method"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:     cfg.BaseURL,
		merchantID:  cfg.MerchantID,
		password:    cfg.Password,
		currency:    cfg.Currency,
		description: cfg.Description,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateToken signs a request: parameter values sorted by key,
// concatenated with the merchant credentials, hashed with SHA-256.
func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["MerchantId"] = pc.merchantID
	params["Password"] = pc.password

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

// Charge attempts to collect the amount. It never returns a Go error
// for a gateway "no": declines and timeouts come back as outcomes so
// the caller is forced to handle all three branches.
func (pc *PaymentClient) Charge(ctx context.Context, amount int64, orderID, method, idempotencyKey string) (*ChargeResult, error) {
	params := map[string]string{
		"Amount":   strconv.FormatInt(amount, 10),
		"Currency": pc.currency,
		"OrderId":  orderID,
	}
	token := pc.generateToken(params)

	req := chargeRequest{
		MerchantID:     pc.merchantID,
		Token:          token,
		Amount:         amount,
		OrderID:        orderID,
		Currency:       pc.currency,
		Method:         method,
		Description:    pc.description,
		IdempotencyKey: idempotencyKey,
	}

	var result chargeResponse
	err := pc.post(ctx, "/api/v1/charge", req, &result)
	if err != nil {
		if isTimeout(err) {
			return &ChargeResult{Outcome: ChargeTimeout, Reason: err.Error()}, nil
		}
		return nil, err
	}

	if !result.Success {
		return &ChargeResult{Outcome: ChargeDeclined, Reason: result.Reason}, nil
	}

	return &ChargeResult{Outcome: ChargeSuccess, TransactionID: result.TransactionID}, nil
}

// VoidCharge reverses a charge whose booking could not be completed.
func (pc *PaymentClient) VoidCharge(ctx context.Context, transactionID, reason string) error {
	params := map[string]string{
		"TransactionId": transactionID,
	}
	token := pc.generateToken(params)

	req := map[string]interface{}{
		"merchantId":    pc.merchantID,
		"token":         token,
		"transactionId": transactionID,
		"reason":        reason,
	}

	return pc.post(ctx, "/api/v1/void", req, nil)
}

// Refund returns amount (possibly partial) against a settled charge.
func (pc *PaymentClient) Refund(ctx context.Context, transactionID string, amount int64) error {
	params := map[string]string{
		"Amount":        strconv.FormatInt(amount, 10),
		"TransactionId": transactionID,
	}
	token := pc.generateToken(params)

	req := map[string]interface{}{
		"merchantId":    pc.merchantID,
		"token":         token,
		"transactionId": transactionID,
		"amount":        amount,
	}

	return pc.post(ctx, "/api/v1/refund", req, nil)
}

func (pc *PaymentClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
