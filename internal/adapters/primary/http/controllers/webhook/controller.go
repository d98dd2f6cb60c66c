package webhookController

import (
	"errors"
	"io"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lifecode-app/lifecode-server/internal/usecases/payment"
)

type WebhookController struct {
	paymentService *payment.Service
	log            *slog.Logger
}

func New(paymentService *payment.Service, log *slog.Logger) *WebhookController {
	return &WebhookController{
		paymentService: paymentService,
		log:            log,
	}
}

func (c *WebhookController) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/webhooks/stripe", c.stripe)
}

// stripe вход подписанных событий. Ошибки отдаются как 400/500,
// чтобы провайдер повторил доставку.
func (c *WebhookController) stripe(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := ctx.GetHeader("Stripe-Signature")
	if err := c.paymentService.HandleWebhook(ctx.Request.Context(), payload, signature); err != nil {
		// подпись/формат -> 400, всё остальное -> 500
		status := http.StatusInternalServerError
		if errors.Is(err, payment.ErrWebhookVerification) {
			status = http.StatusBadRequest
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
