package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsRequest(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "https://example.test", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Protege", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"4"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "key-1", Model: "m-1", Referer: "https://example.test", Title: "Protege"})
	reply, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "2+2"}})
	require.NoError(t, err)
	assert.Equal(t, "4", reply)
	assert.Equal(t, "m-1", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
}

func TestCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{URL: srv.URL, APIKey: "k"}).Complete(context.Background(), nil)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindStatus, pe.Kind)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	_, err := c.Complete(context.Background(), nil)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindTimeout, pe.Kind)
}

func TestCompleteWithoutKey(t *testing.T) {
	_, err := NewClient(ClientConfig{URL: "http://127.0.0.1:1"}).Complete(context.Background(), nil)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindOther, pe.Kind)
}
