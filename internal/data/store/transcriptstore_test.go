package store_test

import (
	"context"
	"testing"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptStores(t *testing.T) {
	stores := map[string]func(t *testing.T) sessionModel.TranscriptStore{
		"memory": func(*testing.T) sessionModel.TranscriptStore { return store.InitTranscriptStore() },
		"cache":  func(*testing.T) sessionModel.TranscriptStore { return store.NewCacheTranscriptStore() },
		"redis": func(t *testing.T) sessionModel.TranscriptStore {
			_, s := newRedisStore(t)
			return store.NewRedisTranscriptStore(s)
		},
	}

	transcript := []sessionModel.Message{
		{Role: sessionModel.RoleSystem, Content: "ground rules"},
		{Role: sessionModel.RoleUser, Content: "JPEGとは？"},
		{Role: sessionModel.RoleAssistant, Content: "画像の圧縮形式だよ"},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, ok, err := s.Load(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save(ctx, "s1", transcript))
			got, ok, err := s.Load(ctx, "s1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, transcript, got)

			// callers mutating a loaded transcript must not touch the stored one
			got[0].Content = "changed"
			again, _, err := s.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "ground rules", again[0].Content)

			existed, err := s.Delete(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, existed)

			existed, err = s.Delete(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, existed)
		})
	}
}

func TestRedisTranscriptStore_TTL(t *testing.T) {
	mr, s := newRedisStore(t)
	ts := store.NewRedisTranscriptStore(s)

	require.NoError(t, ts.Save(context.Background(), "abc", []sessionModel.Message{{Role: sessionModel.RoleSystem, Content: "x"}}))
	assert.Equal(t, config.RedisMessageStoreTTL, mr.TTL("session:abc"))
}

func TestRedisTranscriptStore_OutlivesStoreUntilTTL(t *testing.T) {
	ctx := context.Background()
	mr, s := newRedisStore(t)
	transcript := []sessionModel.Message{{Role: sessionModel.RoleUser, Content: "what is entropy?"}}
	require.NoError(t, store.NewRedisTranscriptStore(s).Save(ctx, "abc", transcript))

	// a fresh store over the same server stands in for a restarted process
	mr.FastForward(config.RedisMessageStoreTTL / 2)
	restarted := store.NewRedisTranscriptStore(s)
	got, ok, err := restarted.Load(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, transcript, got)

	require.NoError(t, restarted.Save(ctx, "abc", transcript))
	assert.Equal(t, config.RedisMessageStoreTTL, mr.TTL("session:abc"))

	mr.FastForward(config.RedisMessageStoreTTL)
	_, ok, err = restarted.Load(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewTranscriptStore(t *testing.T) {
	ctx := context.Background()

	s, err := store.NewTranscriptStore(ctx, config.SessionConfig{Store: config.SessionStoreMemory}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &store.InMemoryTranscriptStore{}, s)

	s, err = store.NewTranscriptStore(ctx, config.SessionConfig{Store: config.SessionStoreCache}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &store.CacheTranscriptStore{}, s)

	_, err = store.NewTranscriptStore(ctx, config.SessionConfig{Store: "etcd"}, config.RedisConfig{})
	assert.Error(t, err)
}
