// Package gateway is the HTTP client boundary to the external settlement
// gateway (Mercado Pago style API). Only the request/response schema is
// assumed here; the gateway's ledger is not modeled.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vidaplan/paycode/internal/domain"
)

// HTTPError carries a non-2xx gateway response. 5xx and 429 are transient
// and eligible for retry; everything else is not.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

type RegisterRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Description       string          `json:"description"`
	PaymentMethodID   string          `json:"payment_method_id"`
	ExternalReference string          `json:"external_reference"`
	Payer             Payer           `json:"payer"`
}

type RegisterResponse struct {
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
}

// RegisterPayment registers a locally generated instrument with the
// gateway. The per-call deadline comes from ctx.
func (c *Client) RegisterPayment(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal register request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send register request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out RegisterResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal register response: %w", err)
	}
	return &out, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// PaymentStatus polls the gateway for a transaction and maps the vendor
// status into the internal enum.
func (c *Client) PaymentStatus(ctx context.Context, externalReference string) (domain.PaymentStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+externalReference, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal status response: %w", err)
	}
	return MapVendorStatus(out.Status), nil
}

// MapVendorStatus translates the gateway's status vocabulary into the
// internal enum. Unknown values stay PENDING rather than failing the poll.
func MapVendorStatus(vendor string) domain.PaymentStatus {
	switch vendor {
	case "approved":
		return domain.StatusCompleted
	case "pending":
		return domain.StatusPending
	case "rejected", "cancelled":
		return domain.StatusFailed
	case "refunded":
		return domain.StatusRefunded
	default:
		return domain.StatusPending
	}
}
