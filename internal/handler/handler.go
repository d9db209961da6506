package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"email-agent-go/internal/inbox"
	"email-agent-go/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	agent    *service.AgentService
	syncer   *inbox.Syncer
	gatherer prometheus.Gatherer
}

// NewHandlers creates new HTTP handlers. syncer may be nil when the inbox
// is a static document.
func NewHandlers(agent *service.AgentService, syncer *inbox.Syncer, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		agent:    agent,
		syncer:   syncer,
		gatherer: gatherer,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	router.GET("/inbox", h.GetInbox)
	router.POST("/process/:emailId", h.ProcessEmail)
	router.GET("/processed", h.GetProcessed)
	router.POST("/agent/query", h.AgentQuery)

	router.GET("/prompts", h.GetPrompts)
	router.POST("/prompts", h.SavePrompts)

	drafts := router.Group("/drafts")
	{
		drafts.POST("", h.CreateDraft)
		drafts.GET("", h.ListDrafts)
		drafts.GET("/:id", h.GetDraft)
		drafts.PUT("/:id", h.UpdateDraft)
		drafts.DELETE("/:id", h.DeleteDraft)
		drafts.POST("/:id/send", h.SendDraft)
	}

	sync := router.Group("/sync")
	{
		sync.POST("/start", h.StartSync)
		sync.POST("/stop", h.StopSync)
		sync.POST("/run-once", h.RunSyncOnce)
		sync.GET("/status", h.GetSyncStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Backend:   h.agent.Backend(),
		Storage:   "ok",
		Sending:   "disabled",
		Details:   make(map[string]string),
	}

	if _, err := h.agent.Prompts(c.Request.Context()); err != nil {
		response.Status = "error"
		response.Storage = "error"
		logrus.Errorf("Storage health check failed: %v", err)
	}

	response.Details["backend"] = "ok"
	if err := h.agent.BackendHealth(c.Request.Context()); err != nil {
		response.Details["backend"] = "unreachable"
		logrus.Warnf("Generation backend health check failed: %v", err)
	}

	if h.agent.SendingEnabled() {
		response.Sending = "enabled"
	}

	switch {
	case h.syncer == nil:
		response.Details["syncer"] = "disabled"
	case h.syncer.IsRunning():
		response.Details["syncer"] = "running"
		response.Details["next_run"] = h.syncer.GetNextRun().Format(time.RFC3339)
	default:
		response.Details["syncer"] = "stopped"
	}
	if h.syncer != nil {
		if last := h.syncer.GetLastRun(); !last.IsZero() {
			response.Details["last_run"] = last.Format(time.RFC3339)
		}
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

func respondStorageError(c *gin.Context, message string, err error) {
	logrus.WithField("path", c.FullPath()).Errorf("%s: %v", message, err)
	respondError(c, http.StatusInternalServerError, "storage_error", message)
}
