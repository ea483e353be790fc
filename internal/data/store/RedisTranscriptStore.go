package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/redisStore"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

const transcriptKeyPrefix = "session:"

// RedisTranscriptStore keeps each transcript as one JSON value that expires
// config.RedisMessageStoreTTL after its last write. Transcripts outlive the
// process: a restarted server picks a session up again until the TTL runs out.
type RedisTranscriptStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisTranscriptStore(ctx context.Context, cfg config.RedisConfig) (*RedisTranscriptStore, error) {
	s, err := redisStore.GetRedisStore(ctx, cfg, config.RedisMessageStore)
	if err != nil {
		return nil, err
	}
	return NewRedisTranscriptStore(s), nil
}

func NewRedisTranscriptStore(s *redisStore.Store) *RedisTranscriptStore {
	return &RedisTranscriptStore{
		store:  s,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisTranscriptStore) Load(ctx context.Context, sessionID string) ([]sessionModel.Message, bool, error) {
	val, err := s.store.Get(ctx, transcriptKeyPrefix+sessionID)
	if s.store.IsNil(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	var transcript []sessionModel.Message
	if err := json.Unmarshal([]byte(val), &transcript); err != nil {
		return nil, false, fmt.Errorf("decoding transcript %s: %w", sessionID, err)
	}
	return transcript, true, nil
}

func (s *RedisTranscriptStore) Save(ctx context.Context, sessionID string, transcript []sessionModel.Message) error {
	data, err := json.Marshal(transcript)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, transcriptKeyPrefix+sessionID, data, config.RedisMessageStoreTTL); err != nil {
		return err
	}
	s.logger.WithTrace(ctx).Debug("Saved transcript", "sessionId", sessionID, "messages", len(transcript))
	return nil
}

func (s *RedisTranscriptStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.store.Del(ctx, transcriptKeyPrefix+sessionID)
	return n > 0, err
}
