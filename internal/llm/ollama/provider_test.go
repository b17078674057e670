package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/chatdesk/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "hi", req.Prompt)
		assert.Equal(t, "be brief", req.System)
		assert.False(t, req.Stream)
		assert.EqualValues(t, 64, req.Options["num_predict"])

		json.NewEncoder(w).Encode(generateResponse{Response: "Greeting", EvalCount: 3})
	}))
	defer server.Close()

	p := NewProvider(server.URL+"/", "")
	resp, err := p.Generate(context.Background(), llm.Request{System: "be brief", Prompt: "hi", MaxTokens: 64}, "")
	require.NoError(t, err)
	assert.Equal(t, "Greeting", resp.Text)
	assert.Equal(t, "llama3", resp.Model)
	assert.Equal(t, 3, resp.TokensUsed)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"mistral\" not found"}`))
	}))
	defer server.Close()

	_, err := NewProvider(server.URL, "mistral").Generate(context.Background(), llm.Request{Prompt: "hi"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `model "mistral" not found`)
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewProvider("", "").IsConfigured())
	assert.True(t, NewProvider("http://localhost:11434", "").IsConfigured())
}
