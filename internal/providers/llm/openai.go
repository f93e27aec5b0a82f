package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sashabaranov/go-openai"
)

type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

// OpenAI talks to any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			headers: opts.ExtraHeaders,
		},
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// Complete sends the conversation so far as a system message followed by the
// user's text and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, promptContext, userText string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if promptContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: promptContext,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", describe("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) ListModels(ctx context.Context) ([]core.Model, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, describe("list models", err)
	}

	models := make([]core.Model, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, core.Model{
			ID:   m.ID,
			Name: m.ID,
		})
	}
	return models, nil
}

func describe(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: http %d: %s", op, apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", core.TuskUserAgent)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
