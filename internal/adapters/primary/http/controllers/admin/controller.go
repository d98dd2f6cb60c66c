package adminController

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/apierror"
	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/middlewares"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
	"github.com/lifecode-app/lifecode-server/internal/usecases/energy"
)

type AdminController struct {
	energyService *energy.Service
	authService   *auth.Service
	log           *slog.Logger
}

func New(energyService *energy.Service, authService *auth.Service, log *slog.Logger) *AdminController {
	return &AdminController{
		energyService: energyService,
		authService:   authService,
		log:           log,
	}
}

func (c *AdminController) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/api/admin",
		middlewares.Auth(c.authService, c.log),
		middlewares.AdminOnly())
	group.GET("/codes", c.listCodes)
	group.POST("/codes", c.createCode)
	group.DELETE("/codes/:id", c.deleteCode)
	group.POST("/energy/adjust", c.adjustEnergy)
}

func (c *AdminController) listCodes(ctx *gin.Context) {
	codes, err := c.energyService.ListCodes(ctx.Request.Context())
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"codes": codes})
}

type createCodeRequest struct {
	Code      string `json:"code" binding:"required"`
	Energy    int64  `json:"energy" binding:"required,gt=0"`
	MaxUses   int    `json:"max_uses"`
	ExpiresAt string `json:"expires_at"` // RFC3339, опционально
}

func (c *AdminController) createCode(ctx *gin.Context) {
	var req createCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			apierror.BadRequest(ctx, err)
			return
		}
		expiresAt = &t
	}

	code, err := c.energyService.CreateCode(ctx.Request.Context(), req.Code, req.Energy, req.MaxUses, expiresAt)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, code)
}

func (c *AdminController) deleteCode(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	if err := c.energyService.DeleteCode(ctx.Request.Context(), id); err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

type adjustRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Delta       int64  `json:"delta" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (c *AdminController) adjustEnergy(ctx *gin.Context) {
	var req adjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	userID := uuid.MustParse(req.UserID)
	if err := c.energyService.AdminAdjust(ctx.Request.Context(), userID, req.Delta, req.Description); err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"adjusted": true})
}
