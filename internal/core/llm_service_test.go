package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/prompt-history/internal/config"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *capturedRequest) {
	t.Helper()
	var calls atomic.Int32
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(captured)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, captured
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "Hello back"}, "finish_reason": "stop"},
    {"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
  ]
}`

func TestOpenAIService_Complete(t *testing.T) {
	srv, calls, captured := newOpenAIServer(t, http.StatusOK, completionBody)
	svc := NewOpenAIService("sk-test", "gpt-3.5-turbo", srv.URL+"/")

	reply, err := svc.Complete(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello back", reply)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "Hello", captured.Messages[0].Content)
}

func TestOpenAIService_ErrorIsNotRetried(t *testing.T) {
	srv, calls, _ := newOpenAIServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`)
	svc := NewOpenAIService("sk-test", "gpt-3.5-turbo", srv.URL+"/")

	_, err := svc.Complete(context.Background(), "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIService_NoChoices(t *testing.T) {
	srv, _, _ := newOpenAIServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	svc := NewOpenAIService("sk-test", "gpt-3.5-turbo", srv.URL+"/")

	_, err := svc.Complete(context.Background(), "Hello")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter(context.Background(), &config.Config{
		CompletionProvider: config.ProviderOpenAI,
		OpenAIAPIKey:       "sk-test",
		OpenAIModel:        "gpt-3.5-turbo",
	})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIService{}, c)

	g, err := NewCompleter(context.Background(), &config.Config{
		CompletionProvider: config.ProviderGemini,
		GeminiAPIKey:       "test-key",
		GeminiModel:        "gemini-1.5-flash-latest",
	})
	require.NoError(t, err)
	require.IsType(t, &GeminiService{}, g)
	assert.NoError(t, g.(*GeminiService).Close())

	_, err = NewCompleter(context.Background(), &config.Config{CompletionProvider: "nope"})
	assert.Error(t, err)
}

func TestCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		content *genai.Content
		want    string
	}{
		{
			name:    "single text part",
			content: &genai.Content{Parts: []genai.Part{genai.Text("Hello back")}},
			want:    "Hello back",
		},
		{
			name: "text parts are concatenated",
			content: &genai.Content{Parts: []genai.Part{
				genai.Text("Hello "),
				genai.Text("back"),
			}},
			want: "Hello back",
		},
		{
			name: "non-text parts are skipped",
			content: &genai.Content{Parts: []genai.Part{
				genai.Text("see "),
				genai.Blob{MIMEType: "image/png", Data: []byte{0x89}},
				genai.Text("attached"),
			}},
			want: "see attached",
		},
		{
			name:    "no parts",
			content: &genai.Content{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candidateText(tt.content))
		})
	}
}

func TestFirstCandidateText(t *testing.T) {
	got, err := firstCandidateText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("first")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("second")}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	empty := map[string]*genai.GenerateContentResponse{
		"nil response":    nil,
		"no candidates":   {},
		"nil candidate":   {Candidates: []*genai.Candidate{nil}},
		"missing content": {Candidates: []*genai.Candidate{{}}},
	}
	for name, resp := range empty {
		t.Run(name, func(t *testing.T) {
			_, err := firstCandidateText(resp)
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}
