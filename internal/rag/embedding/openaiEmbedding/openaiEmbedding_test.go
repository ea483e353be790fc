package openaiEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmbedding_ConvertsVector(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}],
			"usage":{"prompt_tokens":3,"total_tokens":3}}`))
	}))
	defer srv.Close()

	e, err := New("test-key", "text-embedding-3-small", 0, option.WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	vector, err := e.GetEmbedding(context.Background(), "TCPとは何ですか")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vector)
	assert.Equal(t, "TCPとは何ですか", gotBody["input"])
	assert.Equal(t, "text-embedding-3-small", gotBody["model"])
	assert.NotContains(t, gotBody, "dimensions")
}

func TestGetEmbedding_ServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	e, err := New("test-key", "text-embedding-3-small", 256, option.WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	_, err = e.GetEmbedding(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "sdk retries must be disabled")
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("", "text-embedding-3-small", 0)
	assert.Error(t, err)
}
