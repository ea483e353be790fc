package store

import (
	"context"
	"slices"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/patrickmn/go-cache"
)

// CacheTranscriptStore forgets a session config.SessionCacheExpiry after its last write.
type CacheTranscriptStore struct {
	cache *cache.Cache
}

func NewCacheTranscriptStore() *CacheTranscriptStore {
	return &CacheTranscriptStore{cache: cache.New(config.SessionCacheExpiry, config.SessionCacheCleanup)}
}

func (s *CacheTranscriptStore) Load(_ context.Context, sessionID string) ([]sessionModel.Message, bool, error) {
	val, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val.([]sessionModel.Message)), true, nil
}

func (s *CacheTranscriptStore) Save(_ context.Context, sessionID string, transcript []sessionModel.Message) error {
	s.cache.SetDefault(sessionID, slices.Clone(transcript))
	return nil
}

func (s *CacheTranscriptStore) Delete(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.cache.Get(sessionID)
	s.cache.Delete(sessionID)
	return ok, nil
}
