package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	calls          int
	OnGetEmbedding func(ctx context.Context, text string, call int) ([]float32, error)
}

func (m *mockProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	return m.OnGetEmbedding(ctx, text, m.calls)
}

func fastGateway(p Embedder, opts ...Option) *Gateway {
	base := []Option{WithBackoff(time.Millisecond, 4*time.Millisecond), WithTimeout(time.Second)}
	return NewGateway("mock", p, append(base, opts...)...)
}

func TestGateway_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		onCall    func(ctx context.Context, text string, call int) ([]float32, error)
		opts      []Option
		want      []float32
		wantCalls int
		wantKind  error
	}{
		{
			name: "success on first call",
			onCall: func(ctx context.Context, text string, call int) ([]float32, error) {
				return []float32{1, 2, 3}, nil
			},
			want:      []float32{1, 2, 3},
			wantCalls: 1,
		},
		{
			name: "transient failure then success",
			onCall: func(ctx context.Context, text string, call int) ([]float32, error) {
				if call < 3 {
					return nil, errors.New("503 from provider")
				}
				return []float32{0.5}, nil
			},
			want:      []float32{0.5},
			wantCalls: 3,
		},
		{
			name: "retries exhausted",
			onCall: func(ctx context.Context, text string, call int) ([]float32, error) {
				return nil, errors.New("provider down")
			},
			opts:      []Option{WithMaxRetries(2)},
			wantCalls: 3,
			wantKind:  ragErrors.ErrEmbeddingService,
		},
		{
			name: "wrong dimension is not retried",
			onCall: func(ctx context.Context, text string, call int) ([]float32, error) {
				return []float32{1, 2}, nil
			},
			opts:      []Option{WithDimensions(3)},
			wantCalls: 1,
			wantKind:  ragErrors.ErrEmbeddingService,
		},
		{
			name: "empty vector counts as failure",
			onCall: func(ctx context.Context, text string, call int) ([]float32, error) {
				return nil, nil
			},
			opts:      []Option{WithMaxRetries(0)},
			wantCalls: 1,
			wantKind:  ragErrors.ErrEmbeddingService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{OnGetEmbedding: tt.onCall}
			g := fastGateway(p, tt.opts...)

			got, err := g.GetEmbedding(context.Background(), "what is a subnet mask?")
			assert.Equal(t, tt.wantCalls, p.calls)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateway_EmptyTextIsInvalid(t *testing.T) {
	p := &mockProvider{}
	_, err := fastGateway(p).GetEmbedding(context.Background(), "  \n")
	assert.ErrorIs(t, err, ragErrors.ErrInvalidInput)
	assert.Zero(t, p.calls)
}

func TestGateway_TimeoutBoundsEachCall(t *testing.T) {
	p := &mockProvider{OnGetEmbedding: func(ctx context.Context, text string, call int) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g := fastGateway(p, WithTimeout(10*time.Millisecond), WithMaxRetries(1))

	_, err := g.GetEmbedding(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrEmbeddingService)
	assert.True(t, ragErrors.IsTimeout(err))
	assert.Equal(t, 2, p.calls)
}

func TestGateway_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &mockProvider{OnGetEmbedding: func(_ context.Context, text string, call int) ([]float32, error) {
		cancel()
		return nil, errors.New("boom")
	}}

	_, err := fastGateway(p).GetEmbedding(ctx, "question")
	assert.ErrorIs(t, err, ragErrors.ErrEmbeddingService)
	assert.Equal(t, 1, p.calls)
}

func TestGateway_Backoff(t *testing.T) {
	g := NewGateway("mock", &mockProvider{}, WithBackoff(200*time.Millisecond, time.Second))
	assert.Equal(t, 200*time.Millisecond, g.backoff(1))
	assert.Equal(t, 400*time.Millisecond, g.backoff(2))
	assert.Equal(t, 800*time.Millisecond, g.backoff(3))
	assert.Equal(t, time.Second, g.backoff(4))
	assert.Equal(t, time.Second, g.backoff(40))
}
