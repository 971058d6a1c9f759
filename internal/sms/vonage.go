package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type VonageConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// VonageGateway talks to the Vonage (Nexmo) SMS REST API.
type VonageGateway struct {
	cfg    VonageConfig
	client *http.Client
}

type vonageResponse struct {
	MessageCount string          `json:"message-count"`
	Messages     []vonageMessage `json:"messages"`
}

type vonageMessage struct {
	To        string `json:"to"`
	MessageID string `json:"message-id"`
	Status    string `json:"status"`
	ErrorText string `json:"error-text"`
}

func NewVonageGateway(cfg VonageConfig, client *http.Client) (*VonageGateway, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("vonage base url, api key and api secret are required")
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &VonageGateway{cfg: cfg, client: client}, nil
}

func (g *VonageGateway) Send(ctx context.Context, msg Message) (*GatewayResult, error) {
	form := url.Values{}
	form.Set("api_key", g.cfg.APIKey)
	form.Set("api_secret", g.cfg.APISecret)
	form.Set("from", msg.From)
	form.Set("to", strings.TrimPrefix(msg.To, "+"))
	form.Set("text", msg.Text)

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/sms/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach sms gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sms gateway returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed vonageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return nil, errors.New("sms gateway response contained no messages")
	}

	m := parsed.Messages[0]
	return &GatewayResult{
		MessageID: m.MessageID,
		Status:    m.Status,
		ErrorText: m.ErrorText,
	}, nil
}
