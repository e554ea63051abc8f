package domain_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/claimrelay/internal/domain"
)

// stubBuilder records the normalized request and returns a fixed payload.
type stubBuilder struct {
	mu   sync.Mutex
	seen []*domain.DraftRequest
}

func (b *stubBuilder) Build(req *domain.DraftRequest) (domain.ChatPayload, error) {
	b.mu.Lock()
	b.seen = append(b.seen, req)
	b.mu.Unlock()

	return domain.ChatPayload{
		Model: "test-model",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "system"},
			{Role: domain.RoleUser, Content: req.Description},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
		TopP:        0.9,
	}, nil
}

// mockSource is a scripted StreamSource.
type mockSource struct {
	mu       sync.Mutex
	calls    []time.Time
	payloads []domain.ChatPayload
	streamFn func(ctx context.Context, call int) (<-chan domain.StreamChunk, error)
}

func (m *mockSource) Stream(ctx context.Context, payload domain.ChatPayload) (<-chan domain.StreamChunk, error) {
	m.mu.Lock()
	m.calls = append(m.calls, time.Now())
	m.payloads = append(m.payloads, payload)
	call := len(m.calls)
	m.mu.Unlock()

	return m.streamFn(ctx, call)
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockCompleter is a scripted Completer.
type mockCompleter struct {
	calls      int
	completeFn func(call int) (string, error)
}

func (m *mockCompleter) Complete(_ context.Context, _ domain.ChatPayload) (string, error) {
	m.calls++
	return m.completeFn(m.calls)
}

// memoryStore is an in-memory SubmissionStore.
type memoryStore struct {
	mu      sync.Mutex
	subs    []*domain.Submission
	saveErr error
}

func (s *memoryStore) Save(_ context.Context, sub *domain.Submission) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryStore) ListRecent(_ context.Context, limit int) ([]*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Submission, 0, limit)
	for i := len(s.subs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.subs[i])
	}
	return out, nil
}

func (s *memoryStore) Close() error { return nil }

// recordingPublisher captures state transitions.
type recordingPublisher struct {
	mu     sync.Mutex
	states []domain.State
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data map[string]interface{}) {
	if eventType != domain.EventDraftState {
		return
	}
	to, _ := data["to"].(string)
	p.mu.Lock()
	p.states = append(p.states, domain.State(to))
	p.mu.Unlock()
}

func tokenStream(tokens ...string) <-chan domain.StreamChunk {
	chunks := make(chan domain.StreamChunk, len(tokens)+1)
	for _, tok := range tokens {
		chunks <- domain.StreamChunk{Delta: tok}
	}
	chunks <- domain.StreamChunk{Done: true}
	close(chunks)
	return chunks
}

func fastPolicy() domain.RetryPolicy {
	return domain.RetryPolicy{MaxRetries: 3, BaseDelay: 20 * time.Millisecond}
}

const validDescription = "A solar powered water purifier with a graphene membrane"

func TestDraftService_Generate_Validation(t *testing.T) {
	t.Run("should reject short descriptions without a network call", func(t *testing.T) {
		inputs := []string{"", "short", "   tiny   ", "[[[]]]```😀😀😀", "\u0000\u0001\u0002 abc \u0003"}

		for _, input := range inputs {
			source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
				return tokenStream("x"), nil
			}}
			events := &recordingPublisher{}
			svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, events, fastPolicy())

			result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: input}, nil)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr, "input %q", input)
			require.Nil(t, result)
			require.Equal(t, 0, source.callCount())
			require.Equal(t, []domain.State{domain.StateValidating, domain.StateRejected}, events.states)
		}
	})

	t.Run("should pass only whitelisted characters bounded to the maximum length", func(t *testing.T) {
		builder := &stubBuilder{}
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return tokenStream("ok"), nil
		}}
		svc := domain.NewDraftService(builder, source, nil, nil, nil, fastPolicy())

		raw := "Widget `with` [brackets] and emoji \U0001F600 " + strings.Repeat("lever arm ", 400)
		_, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: raw}, nil)
		require.NoError(t, err)

		require.Len(t, builder.seen, 1)
		sent := builder.seen[0].Description
		require.NotContains(t, sent, "`")
		require.NotContains(t, sent, "[")
		require.NotContains(t, sent, "]")
		require.NotContains(t, sent, "\U0001F600")
		require.LessOrEqual(t, len([]rune(sent)), domain.MaxInputLength)
		require.Equal(t, sent, source.payloads[0].Messages[1].Content)
		require.True(t, source.payloads[0].Stream)
	})
}

func TestDraftService_Generate_Streaming(t *testing.T) {
	t.Run("should deliver every token in order and return the sanitized concatenation", func(t *testing.T) {
		tokens := []string{"Claim 1. ", "A purifier ", "comprising ", "<b>a membrane</b>", "<p>wherein</p>", " it works."}
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return tokenStream(tokens...), nil
		}}
		store := &memoryStore{}
		events := &recordingPublisher{}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, store, events, fastPolicy())

		var received []string
		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, func(tok string) {
			received = append(received, tok)
		})

		require.NoError(t, err)
		require.Equal(t, tokens, received)

		expected := domain.SanitizeOutput(strings.Join(tokens, ""))
		require.False(t, result.Unavailable)
		require.Equal(t, expected, result.Draft)
		require.Equal(t, result.Draft, domain.SanitizeOutput(result.Draft))
		require.NotContains(t, result.Draft, "<b>")
		require.Contains(t, result.Draft, "<p>wherein</p>")

		require.Len(t, store.subs, 1)
		require.Equal(t, store.subs[0].ID, result.SubmissionID)
		require.Equal(t, domain.ModeStream, store.subs[0].Mode)
		require.Equal(t, result.Draft, store.subs[0].Draft)
		require.Equal(t, domain.DefaultInventionType, store.subs[0].InventionType)

		require.Equal(t, []domain.State{
			domain.StateValidating,
			domain.StateRequesting,
			domain.StateStreaming,
			domain.StateFinalizing,
			domain.StateDone,
		}, events.states)
	})

	t.Run("should finish when the channel closes without a done chunk", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			chunks := make(chan domain.StreamChunk, 2)
			chunks <- domain.StreamChunk{Delta: "one "}
			chunks <- domain.StreamChunk{Delta: "two"}
			close(chunks)
			return chunks, nil
		}}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, nil, fastPolicy())

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.NoError(t, err)
		require.Equal(t, "one two", result.Draft)
		require.Empty(t, result.SubmissionID)
	})

	t.Run("should return the partial draft when the stream fails", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			chunks := make(chan domain.StreamChunk, 2)
			chunks <- domain.StreamChunk{Delta: "partial"}
			chunks <- domain.StreamChunk{Error: errors.New("connection reset")}
			close(chunks)
			return chunks, nil
		}}
		store := &memoryStore{}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, store, nil, fastPolicy())

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.Error(t, err)
		require.Contains(t, err.Error(), "draft stream interrupted")
		require.Equal(t, "partial", result.Draft)
		require.Empty(t, store.subs)
	})

	t.Run("should stop invoking the callback once the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		chunks := make(chan domain.StreamChunk)
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return chunks, nil
		}}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, nil, fastPolicy())

		go func() {
			chunks <- domain.StreamChunk{Delta: "first"}
		}()

		var received []string
		result, err := svc.Generate(ctx, &domain.DraftRequest{Description: validDescription}, func(tok string) {
			received = append(received, tok)
			cancel()
		})

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, []string{"first"}, received)
		require.Equal(t, "first", result.Draft)
	})

	t.Run("should drop buffered tokens once the context is cancelled", func(t *testing.T) {
		for range 50 {
			ctx, cancel := context.WithCancel(context.Background())

			source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
				chunks := make(chan domain.StreamChunk, 16)
				for i := range 10 {
					chunks <- domain.StreamChunk{Delta: fmt.Sprintf("t%d ", i)}
				}
				return chunks, nil
			}}
			store := &memoryStore{}
			svc := domain.NewDraftService(&stubBuilder{}, source, nil, store, nil, fastPolicy())

			callbacks := 0
			result, err := svc.Generate(ctx, &domain.DraftRequest{Description: validDescription}, func(string) {
				callbacks++
				cancel()
			})
			cancel()

			require.ErrorIs(t, err, context.Canceled)
			require.Equal(t, 1, callbacks)
			require.Equal(t, "t0 ", result.Draft)
			require.Empty(t, store.subs)
		}
	})

	t.Run("should not fail the draft when persisting fails", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return tokenStream("done"), nil
		}}
		store := &memoryStore{saveErr: errors.New("disk full")}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, store, nil, fastPolicy())

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.NoError(t, err)
		require.Equal(t, "done", result.Draft)
		require.Empty(t, result.SubmissionID)
	})
}

func TestDraftService_Generate_Retry(t *testing.T) {
	t.Run("should back off linearly on 429 and return the successful stream", func(t *testing.T) {
		policy := fastPolicy()
		source := &mockSource{streamFn: func(_ context.Context, call int) (<-chan domain.StreamChunk, error) {
			if call < 3 {
				return nil, &domain.UpstreamError{StatusCode: http.StatusTooManyRequests}
			}
			return tokenStream("granted"), nil
		}}
		events := &recordingPublisher{}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, events, policy)

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.NoError(t, err)
		require.Equal(t, "granted", result.Draft)
		require.Len(t, source.calls, 3)
		require.GreaterOrEqual(t, source.calls[1].Sub(source.calls[0]), policy.BaseDelay)
		require.GreaterOrEqual(t, source.calls[2].Sub(source.calls[1]), 2*policy.BaseDelay)

		require.Equal(t, []domain.State{
			domain.StateValidating,
			domain.StateRequesting,
			domain.StateRetrying,
			domain.StateRequesting,
			domain.StateRetrying,
			domain.StateRequesting,
			domain.StateStreaming,
			domain.StateFinalizing,
			domain.StateDone,
		}, events.states)
	})

	t.Run("should return the service unavailable message after exactly three retries", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return nil, &domain.UpstreamError{StatusCode: http.StatusInternalServerError}
		}}
		events := &recordingPublisher{}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, events, fastPolicy())

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.NoError(t, err)
		require.True(t, result.Unavailable)
		require.Equal(t, domain.ServiceUnavailableMessage, result.Draft)
		require.Equal(t, 4, source.callCount())
		require.Equal(t, domain.StateFailed, events.states[len(events.states)-1])
	})

	t.Run("should not retry non-retryable statuses", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return nil, &domain.UpstreamError{StatusCode: http.StatusNotFound}
		}}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, nil, fastPolicy())

		result, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.Error(t, err)
		require.Nil(t, result)
		require.Equal(t, 1, source.callCount())
		require.Equal(t, domain.NotFoundMessage, domain.UserMessage(err))
	})

	t.Run("should surface transport errors without retrying", func(t *testing.T) {
		source := &mockSource{streamFn: func(_ context.Context, _ int) (<-chan domain.StreamChunk, error) {
			return nil, &domain.TransportError{Err: errors.New("dial tcp: connection refused")}
		}}
		svc := domain.NewDraftService(&stubBuilder{}, source, nil, nil, nil, fastPolicy())

		_, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		require.Error(t, err)
		require.Equal(t, 1, source.callCount())
		require.Equal(t, domain.NetworkErrorMessage, domain.UserMessage(err))
	})

	t.Run("should report a configuration error without a stream source", func(t *testing.T) {
		svc := domain.NewDraftService(&stubBuilder{}, nil, nil, nil, nil, fastPolicy())

		_, err := svc.Generate(context.Background(), &domain.DraftRequest{Description: validDescription}, nil)

		var configErr *domain.ConfigurationError
		require.ErrorAs(t, err, &configErr)
	})
}

func TestDraftService_Complete(t *testing.T) {
	t.Run("should format and persist the completion", func(t *testing.T) {
		completer := &mockCompleter{completeFn: func(_ int) (string, error) {
			return "```json\n{}\n```Claim 1. A device. Claim 2. The device of claim 1 wherein it glows.", nil
		}}
		store := &memoryStore{}
		events := &recordingPublisher{}
		svc := domain.NewDraftService(&stubBuilder{}, nil, completer, store, events, fastPolicy())

		result, err := svc.Complete(context.Background(), &domain.DraftRequest{Description: validDescription})

		require.NoError(t, err)
		require.False(t, result.Unavailable)
		require.Equal(t, []domain.State{
			domain.StateValidating,
			domain.StateRequesting,
			domain.StateStreaming,
			domain.StateFinalizing,
			domain.StateDone,
		}, events.states)
		for i := 1; i < len(events.states); i++ {
			require.True(t, events.states[i-1].CanTransition(events.states[i]))
		}
		require.NotContains(t, result.Draft, "```")
		require.True(t, strings.HasPrefix(result.Draft, "Claim 1."))
		require.Contains(t, result.Draft, "\n\nClaim 2.")
		require.NotEmpty(t, result.SubmissionID)

		sub, err := svc.Submission(context.Background(), result.SubmissionID)
		require.NoError(t, err)
		require.Equal(t, domain.ModeComplete, sub.Mode)
		require.Equal(t, result.Draft, sub.Draft)
	})

	t.Run("should retry 503 responses and then give up", func(t *testing.T) {
		completer := &mockCompleter{completeFn: func(_ int) (string, error) {
			return "", &domain.UpstreamError{StatusCode: http.StatusServiceUnavailable}
		}}
		svc := domain.NewDraftService(&stubBuilder{}, nil, completer, nil, nil, fastPolicy())

		result, err := svc.Complete(context.Background(), &domain.DraftRequest{Description: validDescription})

		require.NoError(t, err)
		require.True(t, result.Unavailable)
		require.Equal(t, domain.ServiceUnavailableMessage, result.Draft)
		require.Equal(t, 4, completer.calls)
	})

	t.Run("should reject empty completions", func(t *testing.T) {
		completer := &mockCompleter{completeFn: func(_ int) (string, error) {
			return "   ", nil
		}}
		svc := domain.NewDraftService(&stubBuilder{}, nil, completer, nil, nil, fastPolicy())

		result, err := svc.Complete(context.Background(), &domain.DraftRequest{Description: validDescription})

		require.Error(t, err)
		require.Nil(t, result)
	})

	t.Run("should report a configuration error without a completer", func(t *testing.T) {
		svc := domain.NewDraftService(&stubBuilder{}, nil, nil, nil, nil, fastPolicy())

		_, err := svc.Complete(context.Background(), &domain.DraftRequest{Description: validDescription})

		var configErr *domain.ConfigurationError
		require.ErrorAs(t, err, &configErr)
	})
}

func TestDraftService_Submissions(t *testing.T) {
	t.Run("should report a missing store", func(t *testing.T) {
		svc := domain.NewDraftService(&stubBuilder{}, nil, nil, nil, nil, fastPolicy())

		_, err := svc.RecentSubmissions(context.Background(), 10)
		require.ErrorIs(t, err, domain.ErrStoreNotConfigured)

		_, err = svc.Submission(context.Background(), "abc")
		require.ErrorIs(t, err, domain.ErrStoreNotConfigured)
	})

	t.Run("should list newest first", func(t *testing.T) {
		store := &memoryStore{}
		for i := range 3 {
			require.NoError(t, store.Save(context.Background(), &domain.Submission{ID: fmt.Sprintf("id-%d", i)}))
		}
		svc := domain.NewDraftService(&stubBuilder{}, nil, nil, store, nil, fastPolicy())

		subs, err := svc.RecentSubmissions(context.Background(), 2)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		require.Equal(t, "id-2", subs[0].ID)
		require.Equal(t, "id-1", subs[1].ID)

		_, err = svc.RecentSubmissions(context.Background(), 0)
		require.Error(t, err)
	})
}
