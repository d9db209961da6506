package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"email-agent-go/internal/model"
)

// GetPrompts returns the current prompt template set
func (h *Handlers) GetPrompts(c *gin.Context) {
	prompts, err := h.agent.Prompts(c.Request.Context())
	if err != nil {
		respondStorageError(c, "Failed to read prompts", err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

// SavePrompts replaces the prompt template set
func (h *Handlers) SavePrompts(c *gin.Context) {
	var prompts model.PromptSet
	if err := c.ShouldBindJSON(&prompts); err != nil || prompts == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Prompts must be a JSON object of strings")
		return
	}

	if err := h.agent.SavePrompts(c.Request.Context(), prompts); err != nil {
		respondStorageError(c, "Failed to save prompts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
