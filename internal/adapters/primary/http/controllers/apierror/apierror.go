// Package apierror единая трансляция ошибок use case в HTTP-ответы
// с машиночитаемым полем code.
package apierror

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// statusFor сопоставляет код бизнес-ошибки HTTP-статусу
func statusFor(code string) int {
	switch code {
	case "insufficient_energy":
		return http.StatusPaymentRequired
	case "job_running", "report_exists", "job_terminal":
		return http.StatusConflict
	case "invalid_code":
		return http.StatusBadRequest
	}
	return http.StatusConflict
}

// Respond пишет ошибку в ответ: 404 для отсутствующих сущностей,
// 402/409/400 для бизнес-правил, 500 для всего остального
func Respond(c *gin.Context, log *slog.Logger, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
			"code":  "not_found",
		})
		return
	}

	if code := domain.BusinessCode(err); code != "" {
		c.JSON(statusFor(code), gin.H{
			"error": err.Error(),
			"code":  code,
		})
		return
	}

	log.Error("request failed",
		"error", err,
		"path", c.FullPath(),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
		"code":  "internal",
	})
}

// BadRequest ошибка валидации входных данных
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "validation",
	})
}
