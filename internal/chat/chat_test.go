package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.False(t, req.Stream)
		require.Contains(t, req.Prompt, "hello")

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "**Hi there**\nHow can I help?"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model", 5*time.Second)

	got, err := c.Generate(context.Background(), "user: hello\nassistant:\n")
	require.NoError(t, err)
	require.Equal(t, "Hi there How can I help?", got)
}

func TestOllamaClient_Generate_Non200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model", 5*time.Second)

	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestOllamaClient_Generate_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model", 5*time.Second)

	got, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "No response from AI", got)
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", "   "},
		{"plain", "plain"},
		{"**bold** and ### header", "bold and  header"},
		{"line1\r\nline2\nline3", "line1 line2 line3"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, CleanText(tc.in), "input %q", tc.in)
	}
}
