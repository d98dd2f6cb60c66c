package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookAlerter отправляет операционные алерты POST-запросом на
// настроенный webhook (Slack-совместимый формат {"text": ...})
type WebhookAlerter struct {
	cfg    *Config
	client *resty.Client
	log    *slog.Logger
}

func NewWebhookAlerter(cfg *Config, log *slog.Logger) *WebhookAlerter {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &WebhookAlerter{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

// SendAlert отправляет сообщение. Ошибка доставки логируется и
// возвращается, но не должна ронять основной сценарий вызывающего.
func (a *WebhookAlerter) SendAlert(ctx context.Context, message string) error {
	payload := map[string]string{
		"text": fmt.Sprintf("[%s] %s", a.cfg.AppName, message),
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(a.cfg.WebhookURL)
	if err != nil {
		a.log.Warn("alert delivery failed", "error", err)
		return fmt.Errorf("alert delivery failed: %w", err)
	}

	if resp.IsError() {
		a.log.Warn("alert webhook returned error status",
			"status_code", resp.StatusCode(),
		)
		return fmt.Errorf("alert webhook error [status=%d]", resp.StatusCode())
	}

	return nil
}
