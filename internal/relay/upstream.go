package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

const completionsPath = "/chat/completions"

// upstream forwards one streaming request to the chat-completion API.
type upstream struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

func newUpstream(cfg *Config, httpClient *http.Client) *upstream {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &upstream{
		apiKey:     cfg.APIKey,
		url:        strings.TrimRight(cfg.BaseURL, "/") + completionsPath,
		httpClient: httpClient,
	}
}

// open sends body and returns the raw response. The caller closes the body.
// Non-2xx responses are returned as-is.
func (u *upstream) open(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
