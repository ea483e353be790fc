package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(reply string) CompleteFunc {
	return func(context.Context, []sessionModel.Message) (string, error) { return reply, nil }
}

func TestConverse_FirstTurnCreatesTranscript(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore(), WithSystemPrompt("be kind"))

	var sent []sessionModel.Message
	reply, err := m.Converse(ctx, "s1", "what is RGB?", "context...\nwhat is RGB?",
		func(_ context.Context, msgs []sessionModel.Message) (string, error) {
			sent = append(sent, msgs...)
			return "three channels", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "three channels", reply)

	assert.Equal(t, []sessionModel.Message{
		{Role: sessionModel.RoleSystem, Content: "be kind"},
		{Role: sessionModel.RoleUser, Content: "context...\nwhat is RGB?"},
	}, sent)

	transcript, err := m.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []sessionModel.Message{
		{Role: sessionModel.RoleSystem, Content: "be kind"},
		{Role: sessionModel.RoleUser, Content: "what is RGB?"},
		{Role: sessionModel.RoleAssistant, Content: "three channels"},
	}, transcript)
}

func TestConverse_PrunesToSystemPlusTail(t *testing.T) {
	ctx := context.Background()
	transcripts := store.InitTranscriptStore()

	seed := []sessionModel.Message{{Role: sessionModel.RoleSystem, Content: config.ModelContext}}
	for i := 0; i < 22; i++ {
		role := sessionModel.RoleUser
		if i%2 == 1 {
			role = sessionModel.RoleAssistant
		}
		seed = append(seed, sessionModel.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	require.NoError(t, transcripts.Save(ctx, "long", seed))

	m := NewManager(transcripts)
	_, err := m.Converse(ctx, "long", "q", "grounded q", echo("a"))
	require.NoError(t, err)

	got, err := m.Transcript(ctx, "long")
	require.NoError(t, err)
	require.Len(t, got, config.DefaultSessionMaxMessages)
	assert.Equal(t, sessionModel.RoleSystem, got[0].Role)
	assert.Equal(t, config.ModelContext, got[0].Content)
	// 25 messages before pruning; the four oldest after the system message are gone
	assert.Equal(t, "m4", got[1].Content)
	assert.Equal(t, sessionModel.Message{Role: sessionModel.RoleUser, Content: "q"}, got[19])
	assert.Equal(t, sessionModel.Message{Role: sessionModel.RoleAssistant, Content: "a"}, got[20])
}

func TestConverse_CustomLimits(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore(), WithLimits(5, 2))
	for i := 0; i < 4; i++ {
		_, err := m.Converse(ctx, "s", fmt.Sprintf("q%d", i), "g", echo(fmt.Sprintf("a%d", i)))
		require.NoError(t, err)
	}
	got, err := m.Transcript(ctx, "s")
	require.NoError(t, err)
	// the third turn prunes 7 messages to 3, the fourth brings it back to 5
	require.Len(t, got, 5)
	assert.Equal(t, sessionModel.RoleSystem, got[0].Role)
	assert.Equal(t, "a3", got[4].Content)
}

func TestConverse_FailedCompletionLeavesTranscript(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore())
	_, err := m.Converse(ctx, "s", "first", "g", echo("ok"))
	require.NoError(t, err)
	before, err := m.Transcript(ctx, "s")
	require.NoError(t, err)

	failure := ragErrors.New(ragErrors.ErrCompletionService, "complete", errors.New("timeout"))
	_, err = m.Converse(ctx, "s", "second", "g", func(context.Context, []sessionModel.Message) (string, error) {
		return "", failure
	})
	assert.ErrorIs(t, err, ragErrors.ErrCompletionService)

	after, err := m.Transcript(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore())

	existed, err := m.Reset(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = m.Converse(ctx, "", "q", "g", echo("a"))
	require.NoError(t, err)

	existed, err = m.Reset(ctx, config.DefaultSessionID)
	require.NoError(t, err)
	assert.True(t, existed)

	got, err := m.Transcript(ctx, config.DefaultSessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConverse_SerializesOneSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore(), WithLimits(1000, 999))

	const turns = 30
	var inFlight, maxInFlight int
	var mu sync.Mutex
	complete := func(context.Context, []sessionModel.Message) (string, error) {
		mu.Lock()
		inFlight++
		maxInFlight = max(maxInFlight, inFlight)
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return "a", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Converse(ctx, "shared", fmt.Sprintf("q%d", i), "g", complete)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight)
	got, err := m.Transcript(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got, 1+2*turns, "no turn may be lost")
	assert.Zero(t, m.locks.size())
}

func TestConverse_SessionsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.InitTranscriptStore())

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = m.Converse(ctx, "slow", "q", "g", func(context.Context, []sessionModel.Message) (string, error) {
			close(started)
			<-release
			return "a", nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_, err := m.Converse(ctx, "fast", "q", "g", echo("a"))
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent session waited on another session's lock")
	}
	close(release)
}
