package energyController

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/apierror"
	"github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/middlewares"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
	"github.com/lifecode-app/lifecode-server/internal/usecases/energy"
	"github.com/lifecode-app/lifecode-server/internal/usecases/payment"
)

type EnergyController struct {
	energyService  *energy.Service
	paymentService *payment.Service
	authService    *auth.Service
	log            *slog.Logger
}

func New(
	energyService *energy.Service,
	paymentService *payment.Service,
	authService *auth.Service,
	log *slog.Logger,
) *EnergyController {
	return &EnergyController{
		energyService:  energyService,
		paymentService: paymentService,
		authService:    authService,
		log:            log,
	}
}

func (c *EnergyController) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/api/energy", middlewares.Auth(c.authService, c.log))
	group.GET("/balance", c.balance)
	group.GET("/transactions", c.transactions)
	group.GET("/packages", c.packages)
	group.POST("/checkout", c.checkout)
	group.POST("/redeem", c.redeem)
}

func (c *EnergyController) balance(ctx *gin.Context) {
	balance, err := c.energyService.Balance(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"energy": balance})
}

func (c *EnergyController) transactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	transactions, err := c.energyService.Transactions(ctx.Request.Context(), middlewares.UserID(ctx), limit)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

func (c *EnergyController) packages(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"packages": payment.Packages})
}

type checkoutRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

// checkout создаёт платёжную сессию и возвращает redirect URL
func (c *EnergyController) checkout(ctx *gin.Context) {
	var req checkoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	session, err := c.paymentService.CreateCheckout(ctx.Request.Context(), middlewares.UserID(ctx), req.PackageID)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, session)
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

func (c *EnergyController) redeem(ctx *gin.Context) {
	var req redeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(ctx, err)
		return
	}

	credited, err := c.energyService.Redeem(ctx.Request.Context(), middlewares.UserID(ctx), req.Code)
	if err != nil {
		apierror.Respond(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"credited": credited})
}
