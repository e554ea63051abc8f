// Package openai talks to the upstream chat-completion API directly through
// the official SDK. It implements domain.Completer for the non-streaming draft
// path and domain.StreamSource for callers that bypass the relay.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

// Provider wraps the SDK client.
type Provider struct {
	client openai.Client
}

// NewProvider creates a new SDK-backed provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, &domain.ConfigurationError{Setting: "UPSTREAM_API_KEY"}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Provider{
		client: openai.NewClient(opts...),
	}, nil
}

// Complete sends a non-streaming completion and returns the assistant content.
func (p *Provider) Complete(ctx context.Context, payload domain.ChatPayload) (string, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling upstream completion API")

	resp, err := p.client.Chat.Completions.New(ctx, toSDKParams(payload))
	if err != nil {
		logger.Warn("upstream completion failed", observability.Error(err))
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("upstream returned no choices")
	}

	logger.Debug("upstream completion succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return resp.Choices[0].Message.Content, nil
}

// Stream opens a streaming completion. The first event is read before
// returning so that status failures surface as errors the caller can retry.
func (p *Provider) Stream(ctx context.Context, payload domain.ChatPayload) (<-chan domain.StreamChunk, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling upstream streaming API")

	stream := p.client.Chat.Completions.NewStreaming(ctx, toSDKParams(payload))

	hasFirst := stream.Next()
	if !hasFirst {
		if err := stream.Err(); err != nil {
			_ = stream.Close()
			return nil, mapError(err)
		}
	}

	chunks := make(chan domain.StreamChunk)

	go func() {
		defer close(chunks)
		defer stream.Close()

		emit := func(chunk domain.StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for ok := hasFirst; ok; ok = stream.Next() {
			current := stream.Current()
			if len(current.Choices) == 0 || current.Choices[0].Delta.Content == "" {
				continue
			}
			if !emit(domain.StreamChunk{Delta: current.Choices[0].Delta.Content}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() == nil {
				emit(domain.StreamChunk{Error: fmt.Errorf("upstream stream error: %w", mapError(err))})
			}
			return
		}

		emit(domain.StreamChunk{Done: true})
	}()

	return chunks, nil
}

func toSDKParams(payload domain.ChatPayload) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(payload.Messages))
	for i, msg := range payload.Messages {
		switch msg.Role {
		case domain.RoleSystem:
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(payload.Model),
		Messages: messages,
	}

	if payload.Temperature > 0 {
		params.Temperature = openai.Float(payload.Temperature)
	}

	if payload.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(payload.MaxTokens))
	}

	if payload.TopP > 0 {
		params.TopP = openai.Float(payload.TopP)
	}

	return params
}

// mapError converts SDK errors into domain errors.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.TransportError{Err: err}
}
