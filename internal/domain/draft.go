package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/davidbz/claimrelay/internal/observability"
)

// DraftResult is the outcome of a generation. Unavailable is set when the
// upstream kept failing with retryable errors; Draft then holds
// ServiceUnavailableMessage.
type DraftResult struct {
	SubmissionID string
	Draft        string
	Unavailable  bool
}

// DraftService validates draft requests, calls the upstream with the retry
// policy and produces sanitized drafts.
type DraftService struct {
	builder   PayloadBuilder
	source    StreamSource
	completer Completer
	store     SubmissionStore
	events    EventPublisher
	policy    RetryPolicy
}

// NewDraftService creates a new draft service (DI constructor). source,
// completer, store and events may be nil; the operations needing them report
// a ConfigurationError.
func NewDraftService(
	builder PayloadBuilder,
	source StreamSource,
	completer Completer,
	store SubmissionStore,
	events EventPublisher,
	policy RetryPolicy,
) *DraftService {
	return &DraftService{
		builder:   builder,
		source:    source,
		completer: completer,
		store:     store,
		events:    events,
		policy:    policy,
	}
}

// Generate streams a draft for req. Every token is passed to onToken in
// arrival order and the result's Draft is the sanitized concatenation of all
// tokens. When retries are exhausted the result is marked Unavailable and no
// error is returned. A read failure or cancellation mid-stream returns the
// sanitized partial draft with the error; onToken is not called once ctx is
// done.
func (s *DraftService) Generate(
	ctx context.Context,
	req *DraftRequest,
	onToken func(token string),
) (*DraftResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "draft.generate")
	defer span.End()

	run := s.newRun(ctx)
	run.to(StateValidating, nil)

	normalized, payload, err := s.prepare(req)
	if err != nil {
		run.to(StateRejected, map[string]interface{}{"reason": err.Error()})
		return nil, err
	}
	if s.source == nil {
		run.to(StateRejected, map[string]interface{}{"reason": "no stream source"})
		return nil, &ConfigurationError{Setting: "stream source"}
	}

	payload.Stream = true
	ctx = observability.WithModel(ctx, payload.Model)
	run.ctx = ctx

	run.to(StateRequesting, nil)
	chunks, exhausted, err := retryUpstream(ctx, s.policy, run.retrying,
		func(attemptCtx context.Context) (<-chan StreamChunk, error) {
			run.resume()
			return s.source.Stream(attemptCtx, payload)
		})
	if err != nil {
		run.to(StateFailed, map[string]interface{}{"error": err.Error()})
		span.RecordError(err)
		if exhausted {
			observability.FromContext(ctx).Error("draft retries exhausted", observability.Error(err))
			return &DraftResult{Draft: ServiceUnavailableMessage, Unavailable: true}, nil
		}
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("failed to open draft stream: %w", err)
	}

	run.to(StateStreaming, nil)

	var draft strings.Builder
	tokens := 0

	cancelled := func() (*DraftResult, error) {
		run.to(StateFailed, map[string]interface{}{"error": ctx.Err().Error()})
		return &DraftResult{Draft: SanitizeOutput(draft.String())},
			fmt.Errorf("draft stream cancelled: %w", ctx.Err())
	}

consume:
	for {
		select {
		case <-ctx.Done():
			return cancelled()

		case chunk, ok := <-chunks:
			// Both cases may be ready at once; buffered chunks must not
			// reach onToken after cancellation.
			if ctx.Err() != nil {
				return cancelled()
			}
			if !ok {
				break consume
			}

			if chunk.Error != nil {
				run.to(StateFailed, map[string]interface{}{"error": chunk.Error.Error()})
				span.RecordError(chunk.Error)
				return &DraftResult{Draft: SanitizeOutput(draft.String())},
					fmt.Errorf("draft stream interrupted: %w", chunk.Error)
			}

			if chunk.Delta != "" {
				draft.WriteString(chunk.Delta)
				tokens++
				if onToken != nil {
					onToken(chunk.Delta)
				}
			}

			if chunk.Done {
				break consume
			}
		}
	}

	run.to(StateFinalizing, map[string]interface{}{"tokens": tokens})
	result := SanitizeOutput(draft.String())
	id := s.persist(ctx, normalized, result, ModeStream)
	run.to(StateDone, map[string]interface{}{"length": len(result)})

	span.SetAttributes(attribute.Int("draft.tokens", tokens))
	return &DraftResult{SubmissionID: id, Draft: result}, nil
}

// Complete generates a draft with a single non-streaming upstream call and
// formats it as numbered claims.
func (s *DraftService) Complete(ctx context.Context, req *DraftRequest) (*DraftResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "draft.complete")
	defer span.End()

	run := s.newRun(ctx)
	run.to(StateValidating, nil)

	normalized, payload, err := s.prepare(req)
	if err != nil {
		run.to(StateRejected, map[string]interface{}{"reason": err.Error()})
		return nil, err
	}
	if s.completer == nil {
		run.to(StateRejected, map[string]interface{}{"reason": "no completer"})
		return nil, &ConfigurationError{Setting: "upstream API key"}
	}

	payload.Stream = false
	ctx = observability.WithModel(ctx, payload.Model)
	run.ctx = ctx

	run.to(StateRequesting, nil)
	content, exhausted, err := retryUpstream(ctx, s.policy, run.retrying,
		func(attemptCtx context.Context) (string, error) {
			run.resume()
			return s.completer.Complete(attemptCtx, payload)
		})
	if err != nil {
		run.to(StateFailed, map[string]interface{}{"error": err.Error()})
		span.RecordError(err)
		if exhausted {
			observability.FromContext(ctx).Error("draft retries exhausted", observability.Error(err))
			return &DraftResult{Draft: ServiceUnavailableMessage, Unavailable: true}, nil
		}
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	// The whole completion arrives as a single chunk.
	run.to(StateStreaming, map[string]interface{}{"chunks": 1})
	if strings.TrimSpace(content) == "" {
		run.to(StateFailed, map[string]interface{}{"error": "empty response"})
		return nil, errors.New("empty response from upstream")
	}

	run.to(StateFinalizing, nil)
	draft := FormatClaims(content)
	id := s.persist(ctx, normalized, draft, ModeComplete)
	run.to(StateDone, map[string]interface{}{"length": len(draft)})

	return &DraftResult{SubmissionID: id, Draft: draft}, nil
}

// Submission returns a persisted submission.
func (s *DraftService) Submission(ctx context.Context, id string) (*Submission, error) {
	if s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if id == "" {
		return nil, errors.New("submission id cannot be empty")
	}

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return sub, nil
}

// RecentSubmissions lists persisted submissions, newest first.
func (s *DraftService) RecentSubmissions(ctx context.Context, limit int) ([]*Submission, error) {
	if s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	subs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (s *DraftService) prepare(req *DraftRequest) (*DraftRequest, ChatPayload, error) {
	normalized, err := NormalizeRequest(req)
	if err != nil {
		return nil, ChatPayload{}, err
	}

	payload, err := s.builder.Build(normalized)
	if err != nil {
		return nil, ChatPayload{}, fmt.Errorf("failed to build payload: %w", err)
	}
	return normalized, payload, nil
}

// persist stores the submission and returns its ID, or "" when not stored.
// Store failures are logged and never fail the generation.
func (s *DraftService) persist(ctx context.Context, req *DraftRequest, draft, mode string) string {
	if s.store == nil {
		return ""
	}

	sub := &Submission{
		ID:            uuid.NewString(),
		Description:   req.Description,
		InventionType: req.InventionType,
		TechField:     req.TechField,
		KeyFeatures:   req.KeyFeatures,
		Draft:         draft,
		Mode:          mode,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.Save(ctx, sub); err != nil {
		observability.FromContext(ctx).Warn("failed to persist submission",
			observability.Error(err))
		return ""
	}
	return sub.ID
}

// run tracks the state of one generation call.
type run struct {
	ctx     context.Context
	events  EventPublisher
	state   State
	started time.Time
}

func (s *DraftService) newRun(ctx context.Context) *run {
	return &run{
		ctx:     ctx,
		events:  s.events,
		state:   StateIdle,
		started: time.Now(),
	}
}

func (r *run) to(next State, data map[string]interface{}) {
	if !r.state.CanTransition(next) {
		observability.FromContext(r.ctx).Warn("unexpected draft state transition",
			observability.String("from", string(r.state)),
			observability.String("to", string(next)))
	}

	prev := r.state
	r.state = next

	if r.events == nil {
		return
	}

	event := map[string]interface{}{
		"from":       string(prev),
		"to":         string(next),
		"elapsed_ms": time.Since(r.started).Milliseconds(),
	}
	for k, v := range data {
		event[k] = v
	}
	r.events.Publish(r.ctx, EventDraftState, event)
}

func (r *run) retrying(attempt int, wait time.Duration, err error) {
	r.to(StateRetrying, map[string]interface{}{
		"attempt": attempt,
		"wait_ms": wait.Milliseconds(),
		"error":   err.Error(),
	})
}

// resume moves a retrying run back to requesting before the next attempt.
func (r *run) resume() {
	if r.state == StateRetrying {
		r.to(StateRequesting, nil)
	}
}
