package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/team/add/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "prload-test", r.Header.Get("User-Agent"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"team_name":"t"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL+"/api/"),
		WithTimeout(5*time.Second),
		WithHeader("User-Agent", "prload-test"),
	)

	resp, err := client.PostJSON(context.Background(), "/team/add/", map[string]string{"team_name": "t"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.True(t, resp.IsExpected())
	assert.Equal(t, `{"ok":true}`, resp.BodyString())

	var decoded map[string]bool
	require.NoError(t, resp.DecodeJSON(&decoded))
	assert.True(t, decoded["ok"])

	assert.Greater(t, resp.Timing.TotalTime, time.Duration(0))
	assert.False(t, resp.Timing.StartTime.IsZero())
}

func TestClient_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.PostJSON(context.Background(), "pullRequest/create/", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, resp.IsExpected())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, client.Timeout())

	_, err := client.PostJSON(context.Background(), "/slow", nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.GreaterOrEqual(t, transportErr.Timing.TotalTime, 50*time.Millisecond)
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithBaseURL(server.URL)).PostJSON(ctx, "/", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_Build(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://localhost:8081", "/team/add/", "http://localhost:8081/team/add/"},
		{"http://localhost:8081/", "team/add/", "http://localhost:8081/team/add/"},
		{"http://host/v1", "/pullRequest/create/", "http://host/v1/pullRequest/create/"},
	}

	for _, tt := range tests {
		req, err := NewRequest(http.MethodPost, tt.path).Build(context.Background(), tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, req.URL.String())
	}

	_, err := NewRequest(http.MethodPost, "/").WithJSON(func() {}).Build(context.Background(), "http://h")
	assert.Error(t, err)

	_, err = NewRequest(http.MethodPost, "/").Build(context.Background(), "://bad")
	assert.Error(t, err)
}
