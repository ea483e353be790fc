package store

import (
	"context"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
)

// NewTranscriptStore builds the store named by SESSION_STORE.
func NewTranscriptStore(ctx context.Context, cfg config.SessionConfig, redisCfg config.RedisConfig) (sessionModel.TranscriptStore, error) {
	switch cfg.Store {
	case config.SessionStoreRedis:
		return GetRedisTranscriptStore(ctx, redisCfg)
	case config.SessionStoreCache:
		return NewCacheTranscriptStore(), nil
	case config.SessionStoreMemory, "":
		return InitTranscriptStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
