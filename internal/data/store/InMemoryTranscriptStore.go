package store

import (
	"context"
	"slices"
	"sync"

	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
)

type InMemoryTranscriptStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]sessionModel.Message
}

func InitTranscriptStore() *InMemoryTranscriptStore {
	return &InMemoryTranscriptStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]sessionModel.Message),
	}
}

func (store *InMemoryTranscriptStore) Load(_ context.Context, sessionID string) ([]sessionModel.Message, bool, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	transcript, ok := store.chatMap[sessionID]
	return slices.Clone(transcript), ok, nil
}

func (store *InMemoryTranscriptStore) Save(_ context.Context, sessionID string, transcript []sessionModel.Message) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[sessionID] = slices.Clone(transcript)
	return nil
}

func (store *InMemoryTranscriptStore) Delete(_ context.Context, sessionID string) (bool, error) {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	_, ok := store.chatMap[sessionID]
	delete(store.chatMap, sessionID)
	return ok, nil
}
