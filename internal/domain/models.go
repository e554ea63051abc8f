package domain

import "time"

// Default values for optional DraftRequest fields.
const (
	DefaultInventionType = "device"
	DefaultTechField     = "Technology Field"
	DefaultKeyFeatures   = "Key features not specified"
)

// Message roles accepted by the upstream chat-completion API.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// DraftRequest is the user's invention description as submitted by a form.
type DraftRequest struct {
	Description   string `json:"description"`
	InventionType string `json:"inventionType,omitempty"`
	TechField     string `json:"techField,omitempty"`
	KeyFeatures   string `json:"keyFeatures,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user
	Content string `json:"content"`
}

// ChatPayload is the upstream chat-completion request body. It is built once
// per DraftRequest and handed around by value.
type ChatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
	Stream      bool      `json:"stream"`
}

// StreamChunk represents a single parsed unit of the upstream stream.
type StreamChunk struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error error  `json:"error,omitempty"`
}

// Submission mode values.
const (
	ModeStream   = "stream"
	ModeComplete = "complete"
)

// Submission is a persisted draft generation result.
type Submission struct {
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	InventionType string    `json:"inventionType"`
	TechField     string    `json:"techField"`
	KeyFeatures   string    `json:"keyFeatures"`
	Draft         string    `json:"draft"`
	Mode          string    `json:"mode"`
	CreatedAt     time.Time `json:"createdAt"`
}
