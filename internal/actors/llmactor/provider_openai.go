package llmactor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"
)

const openAIDefaultModel = "gpt-3.5-turbo"

func init() { registerProvider("openai", newOpenAIProvider) }

type openAIProvider struct {
	client *openai.Client
	model  atomic.Value
}

func newOpenAIProvider(cfg Config) (CoreLLM, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		if err := validateBaseURL(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.RequestTimeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	p := &openAIProvider{client: openai.NewClientWithConfig(clientConfig)}
	p.model.Store(model)
	return p, nil
}

func (p *openAIProvider) GetModel() string { return p.model.Load().(string) }
func (p *openAIProvider) SetModel(m string) { p.model.Store(m) }

func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system, ok := opts["system"].(string); ok && system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:     p.GetModel(),
		Messages:  messages,
		MaxTokens: extractMaxTokens(opts, 0),
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, ErrNoResponseChoice
	}

	return resp.Choices[0].Message.Content, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil
}

func (p *openAIProvider) handleError(err error) error {
	classifier := &ErrorClassifier{Provider: "openai"}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifier.ClassifyContextError(err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifier.ClassifyHTTPError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	return NewProviderError("openai", ErrorTypeNetwork, 0, "request failed", err)
}
