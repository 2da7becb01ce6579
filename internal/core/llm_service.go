package core

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"gwi.com/prompt-history/internal/config"
)

// ErrUpstream matches every failure of the remote completion API.
var ErrUpstream = errors.New("completion api error")

// Completer turns a single user prompt into the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type upstreamError struct {
	provider string
	err      error
}

func (e *upstreamError) Error() string { return e.provider + " completion failed: " + e.err.Error() }

func (e *upstreamError) Unwrap() error { return e.err }

func (e *upstreamError) Is(target error) bool { return target == ErrUpstream }

// NewCompleter builds the client for the configured provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case config.ProviderGemini:
		return NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, errors.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}

type OpenAIService struct {
	client openai.Client
	model  string
}

// NewOpenAIService creates a chat-completions client. The SDK's automatic
// retries are turned off; a failed call fails the request.
func NewOpenAIService(apiKey, model, baseURL string) *OpenAIService {
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, oaioption.WithBaseURL(baseURL))
	}
	return &OpenAIService{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (s *OpenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	res, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: s.model,
	})
	if err != nil {
		return "", &upstreamError{provider: "openai", err: err}
	}
	if len(res.Choices) == 0 {
		return "", &upstreamError{provider: "openai", err: errors.New("response contained no choices")}
	}
	return res.Choices[0].Message.Content, nil
}

type GeminiService struct {
	client *genai.Client
	model  string
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return &GeminiService{client: client, model: model}, nil
}

func (s *GeminiService) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return errors.Wrap(err, "close genai client")
	}
	log.Debug().Msg("genai client closed")
	return nil
}

func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &upstreamError{provider: "gemini", err: err}
	}
	return firstCandidateText(resp)
}

// firstCandidateText returns the text of the first candidate, or an upstream
// error when the response has none.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", &upstreamError{provider: "gemini", err: errors.New("response contained no candidates")}
	}
	return candidateText(resp.Candidates[0].Content), nil
}

func candidateText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		} else {
			log.Debug().Type("type", part).Msg("skipping non-text gemini part")
		}
	}
	return b.String()
}
