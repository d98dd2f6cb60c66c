package authController

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/apierror"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
)

type AuthController struct {
	authService *auth.Service
	log         *slog.Logger
}

func New(authService *auth.Service, log *slog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		log:         log,
	}
}

func (c *AuthController) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/auth/otp", c.sendOTP)
	r.POST("/api/auth/session", c.createSession)
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// sendOTP отправляет одноразовый код на email
func (c *AuthController) sendOTP(ctx *gin.Context) {
	var req otpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	if err := c.authService.SendOTP(ctx.Request.Context(), req.Email); err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"sent": true})
}

type sessionRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// createSession обменивает код на внутреннюю сессию
func (c *AuthController) createSession(ctx *gin.Context) {
	var req sessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	session, err := c.authService.VerifyAndCreateSession(ctx.Request.Context(), req.Email, req.Code)
	if err != nil {
		c.log.Warn("session creation failed", "error", err)
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"error": "otp verification failed",
			"code":  "unauthorized",
		})
		return
	}

	ctx.JSON(http.StatusOK, session)
}
