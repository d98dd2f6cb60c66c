package storage

import (
	"context"

	"github.com/google/uuid"
)

// IObjectStore архив сырых ответов LLM в объектном хранилище.
// Складываем необработанный текст completion до pipeline починки:
// при ошибке парсинга/схемы есть что разбирать. Опционален.
type IObjectStore interface {
	PutRawResponse(ctx context.Context, jobID uuid.UUID, body []byte) error
}
