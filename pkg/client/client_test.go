package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, Request{Material: "Battery", Location: "Albany, NY", Condition: "used"}, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"regulations":"Take batteries to the HHW site.","sources":["https://albanyny.gov/hhw"]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"})
	resp := c.Query(context.Background(), Request{Material: "Battery", Location: "Albany, NY", Condition: "used"})

	require.NotNil(t, resp)
	assert.Equal(t, "Take batteries to the HHW site.", resp.Regulations)
	assert.Equal(t, []string{"https://albanyny.gov/hhw"}, resp.Sources)
}

func TestClient_EmptyAnswerIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"regulations":"","sources":null}`))
	}))
	defer srv.Close()

	resp := New(Config{BaseURL: srv.URL}).Query(context.Background(), Request{Material: "Glass", Location: "Boston"})

	require.NotNil(t, resp)
	assert.Empty(t, resp.Regulations)
	assert.NotNil(t, resp.Sources)
}

func TestClient_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"validation error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			assert.Nil(t, New(Config{BaseURL: srv.URL}).Query(context.Background(), Request{Material: "x", Location: "y"}))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	assert.Nil(t, c.Query(context.Background(), Request{Material: "x", Location: "y"}))
}

func TestClient_NotConfigured(t *testing.T) {
	c := New(Config{BaseURL: "  "})
	assert.False(t, c.Configured())
	assert.Nil(t, c.Query(context.Background(), Request{Material: "x", Location: "y"}))
}

func TestClient_Unreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	assert.Nil(t, c.Query(context.Background(), Request{Material: "x", Location: "y"}))
}
