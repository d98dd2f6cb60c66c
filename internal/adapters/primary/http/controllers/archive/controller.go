package archiveController

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/apierror"
	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/middlewares"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/usecases/archive"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
)

type ArchiveController struct {
	archiveService *archive.Service
	authService    *auth.Service
	log            *slog.Logger
}

func New(archiveService *archive.Service, authService *auth.Service, log *slog.Logger) *ArchiveController {
	return &ArchiveController{
		archiveService: archiveService,
		authService:    authService,
		log:            log,
	}
}

func (c *ArchiveController) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/api/archives", middlewares.Auth(c.authService, c.log))
	group.GET("", c.list)
	group.POST("", c.create)
	group.GET("/:id", c.get)
	group.DELETE("/:id", c.delete)
}

type createRequest struct {
	Name      string `json:"name" binding:"required"`
	Gender    string `json:"gender" binding:"required,oneof=male female"`
	Calendar  string `json:"calendar" binding:"required,oneof=solar lunar"`
	BirthTime string `json:"birth_time"` // RFC3339, для calendar=solar
	LunarDate string `json:"lunar_date"` // "Y-M-D", для calendar=lunar
	LeapMonth bool   `json:"leap_month"`
	TimeMode  string `json:"time_mode" binding:"required,oneof=exact slot"`
	SlotIndex int    `json:"slot_index"`
	Location  string `json:"location"`
}

func (c *ArchiveController) create(ctx *gin.Context) {
	var req createRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	record := domain.BirthRecord{
		Gender:    domain.Gender(req.Gender),
		Calendar:  domain.Calendar(req.Calendar),
		LunarDate: req.LunarDate,
		LeapMonth: req.LeapMonth,
		TimeMode:  domain.TimeMode(req.TimeMode),
		SlotIndex: req.SlotIndex,
		Location:  req.Location,
	}
	if req.BirthTime != "" {
		t, err := time.Parse(time.RFC3339, req.BirthTime)
		if err != nil {
			apierror.BadRequest(ctx, err)
			return
		}
		record.BirthTime = t
	}

	result, err := c.archiveService.Create(ctx.Request.Context(), middlewares.UserID(ctx), archive.CreateInput{
		Name:   req.Name,
		Record: record,
	})
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

func (c *ArchiveController) list(ctx *gin.Context) {
	archives, err := c.archiveService.List(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	if archives == nil {
		archives = []domain.Archive{}
	}
	ctx.JSON(http.StatusOK, gin.H{"archives": archives})
}

func (c *ArchiveController) get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	result, err := c.archiveService.Get(ctx.Request.Context(), middlewares.UserID(ctx), id)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *ArchiveController) delete(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	if err := c.archiveService.Delete(ctx.Request.Context(), middlewares.UserID(ctx), id); err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
