package service

import "context"

// CompletionRequest запрос chat completion к LLM-провайдеру
// (OpenAI-совместимый API)
type CompletionRequest struct {
	SystemPrompt string
	UserMessage  string
	Model        string // пустая строка - модель по умолчанию из конфига
	Temperature  float32
	MaxTokens    int
	JSONMode     bool // response_format: json_object
}

// ILLMService клиент LLM-провайдера. Возвращает сырой текст ответа,
// который дальше проходит через pipeline починки/валидации.
type ILLMService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}
