package domain

import "context"

// StreamSource opens a token stream for a chat payload.
type StreamSource interface {
	// Stream sends the payload and returns a channel of parsed chunks. Errors
	// returned here happen before any token was read and may be retried.
	Stream(ctx context.Context, payload ChatPayload) (<-chan StreamChunk, error)
}

// Completer performs a single non-streaming chat completion.
type Completer interface {
	// Complete returns the full assistant message content.
	Complete(ctx context.Context, payload ChatPayload) (string, error)
}

// PayloadBuilder turns a validated request into an upstream payload.
type PayloadBuilder interface {
	// Build returns the upstream payload for the request.
	Build(req *DraftRequest) (ChatPayload, error)
}

// SubmissionStore persists generated drafts.
type SubmissionStore interface {
	// Save stores a submission.
	Save(ctx context.Context, sub *Submission) error

	// Get retrieves a submission by ID.
	Get(ctx context.Context, id string) (*Submission, error)

	// ListRecent returns the newest submissions first.
	ListRecent(ctx context.Context, limit int) ([]*Submission, error)

	// Close releases underlying resources.
	Close() error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
