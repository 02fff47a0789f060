// Package zapi delivers outbound WhatsApp messages through the Z-API REST
// interface.
package zapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/draana/whatsbot/internal/config"
)

// dispatchTimeout caps one delivery attempt; there are no retries.
const dispatchTimeout = 30 * time.Second

// Client calls the Z-API send-text endpoint for a single instance.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	instanceID  string
	token       string
	clientToken string
}

// NewClient builds a dispatcher for the configured instance.
func NewClient(cfg config.ZAPIConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: dispatchTimeout},
		baseURL:     cfg.BaseURL,
		instanceID:  cfg.InstanceID,
		token:       cfg.Token,
		clientToken: cfg.ClientToken,
	}
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendText delivers message to phone. A transport failure or non-2xx status
// is an error; the caller decides whether that matters.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	url := fmt.Sprintf("%s/instances/%s/token/%s/send-text", c.baseURL, c.instanceID, c.token)

	body, err := json.Marshal(sendTextRequest{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("encode send-text payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send-text request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Token", c.clientToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("z-api returned status %d: %s", resp.StatusCode, string(snippet))
	}

	return nil
}
