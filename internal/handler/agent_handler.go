package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"email-agent-go/internal/service"
)

// GetInbox returns every inbox email
func (h *Handlers) GetInbox(c *gin.Context) {
	emails, err := h.agent.Inbox(c.Request.Context())
	if err != nil {
		respondStorageError(c, "Failed to read inbox", err)
		return
	}
	c.JSON(http.StatusOK, emails)
}

// ProcessEmail categorizes an email and extracts its action items
func (h *Handlers) ProcessEmail(c *gin.Context) {
	emailID, err := strconv.Atoi(c.Param("emailId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Email id must be an integer")
		return
	}

	if _, err := h.agent.ProcessEmail(c.Request.Context(), emailID); err != nil {
		h.respondAgentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProcessResponse{Status: "processed", EmailID: emailID})
}

// GetProcessed returns all processed records keyed by email id
func (h *Handlers) GetProcessed(c *gin.Context) {
	processed, err := h.agent.Processed(c.Request.Context())
	if err != nil {
		respondStorageError(c, "Failed to read processed records", err)
		return
	}
	c.JSON(http.StatusOK, processed)
}

// AgentQuery runs a prompt template against one email
func (h *Handlers) AgentQuery(c *gin.Context) {
	var req AgentQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	result, err := h.agent.Query(c.Request.Context(), service.QueryRequest{
		EmailID:         *req.EmailID,
		PromptType:      req.PromptType,
		UserInstruction: req.UserInstruction,
	})
	if err != nil {
		h.respondAgentError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondAgentError maps processing and query errors to responses
func (h *Handlers) respondAgentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmailNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Email not found")
	case errors.Is(err, service.ErrUnknownPromptType):
		respondError(c, http.StatusBadRequest, "invalid_prompt_type", "Unknown prompt_type")
	case errors.Is(err, service.ErrPromptMissing):
		respondError(c, http.StatusInternalServerError, "prompt_missing", err.Error())
	default:
		respondStorageError(c, "Failed to process request", err)
	}
}
