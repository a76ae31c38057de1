package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete_Text(t *testing.T) {
	var gotReq map[string]any
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		require.Equal(t, apiVersion, r.Header.Get("Anthropic-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "hello from the model"}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "test-model", "test-api-key", testServer.Client())

	completion, err := client.Complete(context.Background(), CompletionRequest{
		System:   "be helpful",
		Messages: []Message{{Role: "user", Content: "say hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", completion)
	assert.Equal(t, "test-model", gotReq["model"])
	assert.Equal(t, "be helpful", gotReq["system"])
}

func TestClient_Complete_ToolUse(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req["tools"])
		require.NotEmpty(t, req["tool_choice"])
		_, _ = w.Write([]byte(`{
			"content": [{
				"type": "tool_use",
				"name": "set_exercise_tags",
				"input": {"tags": ["quads", "compound", "lower body"]}
			}],
			"stop_reason": "tool_use"
		}`))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "test-model", "test-api-key", testServer.Client())

	tags, err := client.GenerateExerciseTags(context.Background(), "Back Squat", "barbell squat", "strength")
	require.NoError(t, err)
	assert.Equal(t, []string{"quads", "compound", "lower body"}, tags)
}

func TestClient_Complete_APIError(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{
			"error": {"type": "rate_limit_error", "message": "slow down"}
		}`))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "test-model", "test-api-key", testServer.Client())

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestClient_Complete_NoCompletion(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "stop_reason": "end_turn"}`))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "test-model", "test-api-key", testServer.Client())

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrNoCompletion)
}

func TestClient_Disabled(t *testing.T) {
	client := NewClient("", "", "", http.DefaultClient)
	assert.False(t, client.Enabled())

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err)
}
