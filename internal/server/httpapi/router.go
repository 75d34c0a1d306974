// Package httpapi exposes the public HTTP surface: the webhook receiver, the
// manual deploy trigger, the health probe, and the account/admin API.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astepanovs/gatehouse/internal/logging"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/deploy"
	"github.com/astepanovs/gatehouse/internal/server/services"
	"github.com/astepanovs/gatehouse/internal/server/webhook"
)

// Handler wires the services into gin routes.
type Handler struct {
	logger        logging.Logger
	users         *services.UserService
	codes         *services.CodeService
	gatekeeper    *webhook.Gatekeeper
	trigger       *deploy.Trigger
	webhookSecret []byte
	jwtSecret     []byte
	startedAt     time.Time
}

func NewHandler(
	logger logging.Logger,
	cfg *config.Config,
	users *services.UserService,
	codes *services.CodeService,
	gatekeeper *webhook.Gatekeeper,
	trigger *deploy.Trigger,
) *Handler {
	return &Handler{
		logger:        logger.With("component", "httpapi"),
		users:         users,
		codes:         codes,
		gatekeeper:    gatekeeper,
		trigger:       trigger,
		webhookSecret: []byte(cfg.WebhookSecret),
		jwtSecret:     []byte(cfg.SecretKey),
		startedAt:     time.Now(),
	}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/webhook", h.handleWebhook)
	r.POST("/deploy", h.handleDeploy)
	r.GET("/health", h.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/register", h.handleRegister)
		api.POST("/login", h.handleLogin)

		admin := api.Group("/admin", h.adminAuth())
		{
			admin.GET("/registration-codes", h.handleListCodes)
			admin.POST("/registration-codes", h.handleGenerateCodes)
			admin.PUT("/registration-codes/:code", h.handleSetCodeStatus)
			admin.DELETE("/registration-codes/:code", h.handleDeleteCode)
		}
	}

	return r
}
