package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *Handlers) requireSyncer(c *gin.Context) bool {
	if h.syncer == nil {
		respondError(c, http.StatusServiceUnavailable, "sync_disabled", "Inbox sync is not configured")
		return false
	}
	return true
}

// StartSync starts the inbox syncer
func (h *Handlers) StartSync(c *gin.Context) {
	if !h.requireSyncer(c) {
		return
	}
	if err := h.syncer.Start(); err != nil {
		logrus.Warnf("Failed to start syncer: %v", err)
		respondError(c, http.StatusConflict, "sync_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Syncer started successfully",
		"status":  "running",
	})
}

// StopSync stops the inbox syncer
func (h *Handlers) StopSync(c *gin.Context) {
	if !h.requireSyncer(c) {
		return
	}
	if err := h.syncer.Stop(); err != nil {
		respondError(c, http.StatusInternalServerError, "sync_error", "Failed to stop syncer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Syncer stopped successfully",
		"status":  "stopped",
	})
}

// RunSyncOnce runs one sync cycle immediately
func (h *Handlers) RunSyncOnce(c *gin.Context) {
	if !h.requireSyncer(c) {
		return
	}
	added, err := h.syncer.RunOnce(c.Request.Context())
	if err != nil {
		logrus.Errorf("Manual inbox sync failed: %v", err)
		respondError(c, http.StatusBadGateway, "sync_error", "Failed to sync inbox")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Inbox sync completed successfully",
		"added":   len(added),
	})
}

// GetSyncStatus returns the current syncer status
func (h *Handlers) GetSyncStatus(c *gin.Context) {
	if !h.requireSyncer(c) {
		return
	}
	c.JSON(http.StatusOK, h.syncer.Status())
}
