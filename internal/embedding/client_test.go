package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_Embed(t *testing.T) {
	var gotAuth, gotModel string
	var gotInput []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		gotInput = req.Input

		// out of order on purpose
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}],"model":"m"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.Equal(t, 0, client.Dimension())

	vectors, err := client.Embed(context.Background(), []string{"glass", "paper"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "text-embedding-3-small", gotModel)
	assert.Equal(t, []string{"glass", "paper"}, gotInput)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vectors)
	assert.Equal(t, 3, client.Dimension())
}

func TestClient_Embed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.EmbedSingle(context.Background(), "glass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestClient_Embed_MissingVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input 1")
}

func TestEmbedBatch_ReportsProgress(t *testing.T) {
	mock := NewMockClient(8)
	var progress []int

	vectors, err := EmbedBatch(context.Background(), mock, []string{"a", "b", "c", "d", "e"}, 2, func(done int) {
		progress = append(progress, done)
	})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, []int{2, 4, 5}, progress)
}

func TestMockClient_DeterministicUnitVectors(t *testing.T) {
	mock := NewMockClient(16)

	a, err := mock.EmbedSingle(context.Background(), "battery recycling")
	require.NoError(t, err)
	b, err := mock.EmbedSingle(context.Background(), "battery recycling")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)

	var sum float64
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestNormalize_ZeroVector(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
}
