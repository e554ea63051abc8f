// Package relay implements the credential-holding streaming proxy in front of
// the upstream chat-completion API. Each request is independent; the handler
// keeps no state besides its configuration and HTTP client.
package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/davidbz/claimrelay/internal/observability"
)

const copyBufferSize = 4096

// errorBody is the JSON shape of every relay-generated failure.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves the relay endpoint.
type Handler struct {
	upstream     *upstream
	configured   bool
	maxBodyBytes int64
}

// NewHandler creates a relay handler. httpClient may be nil.
func NewHandler(cfg *Config, httpClient *http.Client) *Handler {
	return &Handler{
		upstream:     newUpstream(cfg, httpClient),
		configured:   cfg.APIKey != "",
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, "Method Not Allowed")
		return
	}

	ctx, span := observability.Tracer().Start(r.Context(), "relay.forward")
	defer span.End()

	logger := observability.FromContext(ctx)

	if !h.configured {
		logger.Error("relay credential is not configured")
		span.SetStatus(codes.Error, "missing credential")
		writeError(w, http.StatusInternalServerError, "Configuration error", "upstream API key is not configured")
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "request body is too large")
			return
		}
		logger.Warn("failed to read relay request body", observability.Error(err))
		writeError(w, http.StatusInternalServerError, "Invalid request", "failed to read request body")
		return
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		logger.Warn("relay request body is not a JSON object")
		writeError(w, http.StatusInternalServerError, "Invalid request", "request body must be a JSON object")
		return
	}

	body, err = sjson.SetBytes(body, "stream", true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Invalid request", "failed to prepare upstream payload")
		return
	}

	model := gjson.GetBytes(body, "model").String()
	ctx = observability.WithModel(ctx, model)
	logger = observability.FromContext(ctx)
	span.SetAttributes(attribute.String("llm.model", model))

	//nolint:bodyclose // closed below
	resp, err := h.upstream.open(ctx, body)
	if err != nil {
		logger.Error("upstream request failed", observability.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream unreachable")
		writeError(w, http.StatusInternalServerError, "Upstream request failed", "failed to reach the drafting API")
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.upstream_status", resp.StatusCode))
	logger.Info("relaying upstream response", observability.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
	} else if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)

	copied, err := copyFlushing(w, resp.Body)
	if err != nil && ctx.Err() == nil {
		logger.Warn("relay stream interrupted",
			observability.Error(err),
			observability.Int("bytes", int(copied)),
		)
		span.RecordError(err)
		return
	}

	logger.Debug("relay stream finished", observability.Int("bytes", int(copied)))
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	return io.ReadAll(reader)
}

// copyFlushing copies src to w, flushing after every read so tokens reach the
// caller as soon as the upstream emits them.
func copyFlushing(w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, copyBufferSize)

	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			total += int64(written)
			if writeErr != nil {
				return total, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(readErr, io.EOF) {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Add("Vary", "Origin")
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: kind, Message: message})
}
