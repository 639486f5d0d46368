// Package qrrender delegates visual QR encoding of PIX payloads to an
// external rendering service. The EMV string itself is the payment
// instrument; the image is a convenience artifact.
package qrrender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Renderer turns a finished EMV payload into an opaque rendered artifact.
type Renderer interface {
	Render(ctx context.Context, emv string) (string, error)
}

// Client calls an HTTP rendering service that accepts the payload and
// returns PNG bytes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Render(ctx context.Context, emv string) (string, error) {
	payload, err := json.Marshal(map[string]string{"content": emv})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render service returned HTTP %d", resp.StatusCode)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read rendered image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// Disabled is a no-op renderer for deployments without a rendering service.
type Disabled struct{}

func (Disabled) Render(context.Context, string) (string, error) { return "", nil }
