package reportController

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/apierror"
	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/middlewares"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
	"github.com/lifecode-app/lifecode-server/internal/usecases/report"
)

// Config секрет воркера для worker-маршрутов
type Config struct {
	WorkerSecret string `envconfig:"SECRET"`
}

type ReportController struct {
	cfg           *Config
	reportService *report.Service
	authService   *auth.Service
	log           *slog.Logger
}

func New(cfg *Config, reportService *report.Service, authService *auth.Service, log *slog.Logger) *ReportController {
	return &ReportController{
		cfg:           cfg,
		reportService: reportService,
		authService:   authService,
		log:           log,
	}
}

func (c *ReportController) RegisterRoutes(r *gin.Engine) {
	authed := r.Group("/api/report", middlewares.Auth(c.authService, c.log))
	authed.POST("/generate", c.generateMain)
	authed.GET("/status/:jobId", c.status)
	authed.POST("/deep/generate", c.generateDeep)
	authed.GET("/deep/status/:jobId", c.status)
	authed.GET("/:archiveId/:type", c.getReport)

	worker := r.Group("/api/report", middlewares.WorkerAuth(c.cfg.WorkerSecret))
	worker.GET("/next-job", c.nextJob)
	worker.PATCH("/job/:jobId", c.patchJob)
}

type generateRequest struct {
	ArchiveID  string `json:"archive_id" binding:"required,uuid"`
	ReportType string `json:"report_type"`
	Retry      bool   `json:"retry"`
}

// generateMain создаёт джобу основного отчёта
func (c *ReportController) generateMain(ctx *gin.Context) {
	c.generate(ctx, domain.ReportTypeMain, false)
}

// generateDeep создаёт джобу тематического отчёта
func (c *ReportController) generateDeep(ctx *gin.Context) {
	c.generate(ctx, "", true)
}

func (c *ReportController) generate(ctx *gin.Context, fixedType domain.ReportType, deep bool) {
	var req generateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	reportType := fixedType
	if deep {
		reportType = domain.ReportType(req.ReportType)
		if !reportType.IsDeep() {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error": "report_type must be one of career, wealth, love, health",
				"code":  "validation",
			})
			return
		}
	}

	archiveID := uuid.MustParse(req.ArchiveID)
	job, err := c.reportService.Generate(ctx.Request.Context(), middlewares.UserID(ctx), archiveID, reportType, req.Retry)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"job": job})
}

// status статус джобы; для завершённой добавляется отчёт
func (c *ReportController) status(ctx *gin.Context) {
	jobID, err := uuid.Parse(ctx.Param("jobId"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	job, rep, err := c.reportService.JobStatus(ctx.Request.Context(), middlewares.UserID(ctx), jobID)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}

	resp := gin.H{"job": job}
	if rep != nil {
		resp["report"] = rep
	}
	ctx.JSON(http.StatusOK, resp)
}

// getReport сохранённый отчёт архива
func (c *ReportController) getReport(ctx *gin.Context) {
	archiveID, err := uuid.Parse(ctx.Param("archiveId"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}
	reportType := domain.ReportType(ctx.Param("type"))
	if !reportType.IsValid() {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown report type",
			"code":  "validation",
		})
		return
	}

	rep, err := c.reportService.GetReport(ctx.Request.Context(), middlewares.UserID(ctx), archiveID, reportType)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, rep)
}

// nextJob выдаёт воркеру следующую джобу, 204 когда работы нет
func (c *ReportController) nextJob(ctx *gin.Context) {
	claimed, err := c.reportService.ClaimNext(ctx.Request.Context())
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	if claimed == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.JSON(http.StatusOK, claimed)
}

type patchJobRequest struct {
	Status    string  `json:"status" binding:"required,oneof=completed failed"`
	RawOutput string  `json:"raw_output"`
	Model     string  `json:"model"`
	Error     *string `json:"error"`
}

// patchJob принимает терминальный результат воркера
func (c *ReportController) patchJob(ctx *gin.Context) {
	jobID, err := uuid.Parse(ctx.Param("jobId"))
	if err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	var req patchJobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	job, err := c.reportService.CompleteFromWorker(ctx.Request.Context(), jobID,
		domain.JobStatus(req.Status), req.RawOutput, req.Model, req.Error)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job": job})
}
