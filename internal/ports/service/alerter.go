package service

import "context"

// IAlerterService отправка операционных алертов (финальные ошибки
// генерации, ошибки платёжных вебхуков)
type IAlerterService interface {
	SendAlert(ctx context.Context, message string) error
}
