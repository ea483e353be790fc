package session

import (
	"context"
	"slices"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// CompleteFunc sends a whole transcript to the completion service.
type CompleteFunc func(ctx context.Context, messages []sessionModel.Message) (string, error)

// Manager owns the per-session transcripts. Every read-modify-write of one
// session runs under that session's lock; different sessions never wait on
// each other.
type Manager struct {
	store        sessionModel.TranscriptStore
	locks        *keyedMutex
	systemPrompt string
	maxMessages  int
	keepMessages int
	logger       *logger_i.Logger
}

type Option func(*Manager)

// WithLimits prunes a transcript longer than max down to the system message
// plus the last keep messages.
func WithLimits(max, keep int) Option {
	return func(m *Manager) {
		m.maxMessages = max
		m.keepMessages = keep
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(m *Manager) { m.systemPrompt = prompt }
}

func NewManager(store sessionModel.TranscriptStore, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		locks:        newKeyedMutex(),
		systemPrompt: config.ModelContext,
		maxMessages:  config.DefaultSessionMaxMessages,
		keepMessages: config.DefaultSessionKeepMessages,
		logger:       logger_i.NewLogger("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Converse sends the transcript with groundedPrompt as the newest user turn.
// On success the stored turn holds only the bare question, followed by the
// reply. A failed completion leaves the stored transcript as it was.
func (m *Manager) Converse(ctx context.Context, sessionID, question, groundedPrompt string, complete CompleteFunc) (string, error) {
	if sessionID == "" {
		sessionID = config.DefaultSessionID
	}
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	log := m.logger.WithTrace(ctx).With("sessionId", sessionID)

	transcript, err := m.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	turn := len(transcript)
	transcript = append(transcript, sessionModel.Message{Role: sessionModel.RoleUser, Content: groundedPrompt})

	reply, err := complete(ctx, transcript)
	if err != nil {
		log.Warn("completion failed, transcript unchanged", "error", err)
		return "", err
	}

	transcript[turn].Content = question
	transcript = append(transcript, sessionModel.Message{Role: sessionModel.RoleAssistant, Content: reply})
	if pruned := m.prune(transcript); len(pruned) != len(transcript) {
		log.Debug("pruned transcript", "from", len(transcript), "to", len(pruned))
		transcript = pruned
	}

	if err := m.store.Save(ctx, sessionID, transcript); err != nil {
		// the reply is still returned; only the history is lost
		log.Error("saving transcript failed", "error", err)
	}
	return reply, nil
}

// Reset deletes the transcript and reports whether one existed.
func (m *Manager) Reset(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		sessionID = config.DefaultSessionID
	}
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	existed, err := m.store.Delete(ctx, sessionID)
	if err != nil {
		return false, ragErrors.New(ragErrors.ErrStorageWrite, "session.reset", err)
	}
	m.logger.WithTrace(ctx).Info("session reset", "sessionId", sessionID, "existed", existed)
	return existed, nil
}

// Transcript returns a copy of the stored transcript, or nil when the session is absent.
func (m *Manager) Transcript(ctx context.Context, sessionID string) ([]sessionModel.Message, error) {
	if sessionID == "" {
		sessionID = config.DefaultSessionID
	}
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	transcript, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "session.transcript", err)
	}
	if !ok {
		return nil, nil
	}
	return slices.Clone(transcript), nil
}

func (m *Manager) load(ctx context.Context, sessionID string) ([]sessionModel.Message, error) {
	transcript, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "session.load", err)
	}
	if !ok || len(transcript) == 0 {
		return []sessionModel.Message{{Role: sessionModel.RoleSystem, Content: m.systemPrompt}}, nil
	}
	return slices.Clone(transcript), nil
}

func (m *Manager) prune(transcript []sessionModel.Message) []sessionModel.Message {
	if len(transcript) <= m.maxMessages {
		return transcript
	}
	pruned := make([]sessionModel.Message, 0, m.keepMessages+1)
	pruned = append(pruned, transcript[0])
	return append(pruned, transcript[len(transcript)-m.keepMessages:]...)
}
