package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(GeminiConfig{APIKey: "k-123", Model: "test-model", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "be brief", "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, "/models/test-model:generateContent", gotPath)
	assert.Equal(t, "k-123", gotKey)
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "be brief", gotBody.SystemInstruction.Parts[0].Text)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "say hi", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(GeminiConfig{APIKey: "secret-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestGeminiClient_EmptyAndBlocked(t *testing.T) {
	responses := []string{
		`{"candidates":[]}`,
		`{"promptFeedback":{"blockReason":"SAFETY"}}`,
	}
	for _, body := range responses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		client, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "", "prompt")
		assert.Error(t, err, body)
		srv.Close()
	}
}

func TestGeminiClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{APIKey: " "})
	assert.Error(t, err)
}
