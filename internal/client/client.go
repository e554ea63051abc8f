// Package client consumes the relay's SSE stream and turns it into a channel
// of parsed tokens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tmaxmax/go-sse"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

const (
	doneSentinel  = "[DONE]"
	deltaPath     = "choices.0.delta.content"
	maxErrorBody  = 4096
	defaultBuffer = 16
)

// Client implements domain.StreamSource against the relay.
type Client struct {
	relayURL   string
	buffer     int
	httpClient *http.Client
}

// NewClient creates a streaming client. A zero Timeout leaves the stream
// bounded only by the caller's context.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("client config cannot be nil")
	}
	if cfg.RelayURL == "" {
		return nil, errors.New("relay URL is required")
	}

	buffer := cfg.StreamBuffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Client{
		relayURL: cfg.RelayURL,
		buffer:   buffer,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Stream posts payload to the relay and returns parsed tokens in arrival
// order. The channel is closed after a Done or Error chunk, or when ctx is
// cancelled.
func (c *Client) Stream(ctx context.Context, payload domain.ChatPayload) (<-chan domain.StreamChunk, error) {
	//nolint:bodyclose // Response body is closed in the reader goroutine
	resp, err := c.open(ctx, payload)
	if err != nil {
		return nil, err
	}

	chunks := make(chan domain.StreamChunk, c.buffer)
	go c.read(ctx, resp.Body, chunks)

	return chunks, nil
}

func (c *Client) open(ctx context.Context, payload domain.ChatPayload) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	return resp, nil
}

func (c *Client) read(ctx context.Context, body io.ReadCloser, chunks chan<- domain.StreamChunk) {
	defer close(chunks)
	defer body.Close()

	logger := observability.FromContext(ctx)

	for ev, err := range sse.Read(body, nil) {
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			send(ctx, chunks, domain.StreamChunk{Error: fmt.Errorf("failed to read stream: %w", err)})
			return
		}

		data := strings.TrimSpace(ev.Data)
		if data == "" {
			continue
		}
		if data == doneSentinel {
			send(ctx, chunks, domain.StreamChunk{Done: true})
			return
		}

		if !gjson.Valid(data) {
			logger.Warn("skipping stream frame",
				observability.Error(&domain.StreamParseError{Data: data}),
			)
			continue
		}

		delta := gjson.Get(data, deltaPath).String()
		if delta == "" {
			continue
		}
		if !send(ctx, chunks, domain.StreamChunk{Delta: delta}) {
			return
		}
	}

	send(ctx, chunks, domain.StreamChunk{Done: true})
}

// send delivers chunk unless ctx is cancelled first.
func send(ctx context.Context, chunks chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
