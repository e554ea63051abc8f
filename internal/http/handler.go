package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

const (
	maxDraftBodyBytes   = 64 << 10
	defaultListLimit    = 20
	maxListLimit        = 100
	submissionIDParam   = "id"
	limitQueryParameter = "limit"
)

// draftResponse is the body of a successful POST /v1/drafts.
type draftResponse struct {
	ID    string `json:"id,omitempty"`
	Draft string `json:"draft"`
	HTML  string `json:"html"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler handles the /v1 API and health requests.
type Handler struct {
	drafts *domain.DraftService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(drafts *domain.DraftService) *Handler {
	return &Handler{
		drafts: drafts,
	}
}

// HandleDraft generates a complete draft in one response.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	req, ok := decodeDraftRequest(w, r)
	if !ok {
		return
	}

	result, err := h.drafts.Complete(ctx, req)
	if err != nil {
		h.writeDraftError(w, r, err)
		return
	}

	if result.Unavailable {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: result.Draft})
		return
	}

	html, err := domain.RenderHTML(result.Draft)
	if err != nil {
		logger.Warn("failed to render draft", zap.Error(err))
	}

	logger.Info("draft generated",
		zap.String("submission_id", result.SubmissionID),
		zap.Int("length", len(result.Draft)),
	)

	writeJSON(w, http.StatusOK, draftResponse{
		ID:    result.SubmissionID,
		Draft: result.Draft,
		HTML:  html,
	})
}

// HandleDraftStream streams draft tokens as SSE events while they arrive.
// Each token is sent as {"delta": ...}; the final event carries the
// sanitized draft.
func (h *Handler) HandleDraftStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	req, ok := decodeDraftRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	result, err := h.drafts.Generate(ctx, req, func(token string) {
		start()
		data, _ := json.Marshal(domain.StreamChunk{Delta: token})
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	})

	if err != nil && !started {
		h.writeDraftError(w, r, err)
		return
	}

	if err == nil && result.Unavailable {
		logger.Warn("draft service unavailable")
		if !started {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: result.Draft})
			return
		}
		writeEvent(w, flusher, "error", errorResponse{Error: result.Draft})
		return
	}

	start()
	if err != nil {
		logger.Error("draft stream failed", zap.Error(err))
		writeEvent(w, flusher, "error", errorResponse{Error: domain.UserMessage(err)})
		return
	}

	writeEvent(w, flusher, "done", draftResponse{ID: result.SubmissionID, Draft: result.Draft})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, _ := json.Marshal(v)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// HandleListSubmissions lists recent submissions.
func (h *Handler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get(limitQueryParameter); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	subs, err := h.drafts.RecentSubmissions(r.Context(), limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if subs == nil {
		subs = []*domain.Submission{}
	}

	writeJSON(w, http.StatusOK, subs)
}

// HandleGetSubmission returns one submission by ID.
func (h *Handler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.drafts.Submission(r.Context(), chi.URLParam(r, submissionIDParam))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *Handler) writeDraftError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
		return
	}

	observability.FromContext(r.Context()).Error("draft failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.UserMessage(err)})
}

func decodeDraftRequest(w http.ResponseWriter, r *http.Request) (*domain.DraftRequest, bool) {
	var req domain.DraftRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return nil, false
	}
	return &req, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		observability.FromContext(r.Context()).Error("submission lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load submissions"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already written; encoding errors cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}
