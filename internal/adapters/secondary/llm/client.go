package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifecode-app/lifecode-server/internal/ports/service"
	openai "github.com/sashabaranov/go-openai"
)

// Client клиент OpenAI-совместимого chat completion API
type Client struct {
	client *openai.Client
	cfg    *Config
	log    *slog.Logger
}

func NewClient(cfg *Config, log *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.ApiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		log:    log,
	}
}

// Model модель по умолчанию из конфига
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete выполняет chat completion и возвращает сырой текст ответа.
// Генерация отчёта длинная, таймаут задаётся конфигом (минуты).
func (c *Client) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout())
	defer cancel()

	completionReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.JSONMode {
		completionReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return "", fmt.Errorf("llm completion failed [model=%s]: %w", model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices [model=%s]", model)
	}

	choice := resp.Choices[0]
	c.log.Debug("llm completion received",
		"model", model,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return choice.Message.Content, nil
}
