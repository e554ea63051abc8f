// Package echo provides an OpenAI-compatible chat-completion endpoint that
// echoes the last user message back without calling any external API. It is
// used for local development and end-to-end tests of the relay.
package echo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

const objectChunk = "chat.completion.chunk"

type chunkDelta struct {
	Content string `json:"content,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type completionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type completionChoice struct {
	Index        int            `json:"index"`
	Message      domain.Message `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   usage              `json:"usage"`
}

// Handler serves POST /chat/completions.
type Handler struct {
	chunkDelay time.Duration
}

// NewHandler creates a new echo upstream handler.
func NewHandler(cfg *Config) *Handler {
	h := &Handler{}
	if cfg != nil {
		h.chunkDelay = cfg.ChunkDelay
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
		strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")) == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"message": "missing bearer token", "type": "invalid_request_error"},
		})
		return
	}

	var payload domain.ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"message": "invalid request body", "type": "invalid_request_error"},
		})
		return
	}

	ctx := observability.WithModel(r.Context(), payload.Model)
	logger := observability.FromContext(ctx)
	logger.Debug("echoing request", observability.Bool("stream", payload.Stream))

	content := lastUserMessage(payload.Messages)
	id := "echo-" + uuid.NewString()

	if !payload.Stream {
		words := countTokens(content)
		writeJSON(w, http.StatusOK, completion{
			ID:      id,
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   payload.Model,
			Choices: []completionChoice{{
				Message:      domain.Message{Role: "assistant", Content: content},
				FinishReason: "stop",
			}},
			Usage: usage{PromptTokens: words, CompletionTokens: words, TotalTokens: 2 * words},
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	words := strings.Fields(content)
	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " "
		}

		writeChunk(w, completionChunk{
			ID:      id,
			Object:  objectChunk,
			Created: time.Now().Unix(),
			Model:   payload.Model,
			Choices: []chunkChoice{{Delta: chunkDelta{Content: delta}}},
		})
		flusher.Flush()

		select {
		case <-ctx.Done():
			logger.Debug("echo stream cancelled")
			return
		case <-time.After(h.chunkDelay):
		}
	}

	stop := "stop"
	writeChunk(w, completionChunk{
		ID:      id,
		Object:  objectChunk,
		Created: time.Now().Unix(),
		Model:   payload.Model,
		Choices: []chunkChoice{{FinishReason: &stop}},
	})
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeChunk(w http.ResponseWriter, chunk completionChunk) {
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lastUserMessage returns the content of the final user message, or of the
// final message when no user message exists.
func lastUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	return len(strings.Fields(content))
}
