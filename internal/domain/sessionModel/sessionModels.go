package sessionModel

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TranscriptStore persists whole transcripts keyed by session id.
// Implementations need not serialize access; the session manager does.
type TranscriptStore interface {
	Load(ctx context.Context, sessionID string) ([]Message, bool, error)
	Save(ctx context.Context, sessionID string, transcript []Message) error
	Delete(ctx context.Context, sessionID string) (bool, error)
}
