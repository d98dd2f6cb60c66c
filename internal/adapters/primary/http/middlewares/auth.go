package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
)

const (
	// CtxUserID ключ user id в контексте gin
	CtxUserID = "user_id"
	// CtxIsAdmin ключ признака администратора
	CtxIsAdmin = "is_admin"
)

// Auth проверяет Bearer-токен внутренней сессии и кладёт user id
// в контекст запроса
func Auth(authService *auth.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
				"code":  "unauthorized",
			})
			return
		}

		userID, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
				"code":  "unauthorized",
			})
			return
		}

		user, err := authService.GetUser(c.Request.Context(), userID)
		if err != nil {
			log.Warn("session user lookup failed", "error", err, "user_id", userID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unknown user",
				"code":  "unauthorized",
			})
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxIsAdmin, user.IsAdmin)
		c.Next()
	}
}

// AdminOnly пропускает только администраторов; вешается после Auth
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
				"code":  "forbidden",
			})
			return
		}
		c.Next()
	}
}

// WorkerAuth статический секрет воркера, сравнение за константное время
func WorkerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid worker secret",
				"code":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// UserID достаёт user id, положенный Auth middleware
func UserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(uuid.UUID)
	return id
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
