package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"email-agent-go/internal/model"
	"email-agent-go/internal/repository"
	"email-agent-go/internal/sender"
	"email-agent-go/internal/service"
)

// CreateDraft stores a new draft
func (h *Handlers) CreateDraft(c *gin.Context) {
	var input model.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	draft, err := h.agent.CreateDraft(c.Request.Context(), input)
	if err != nil {
		respondStorageError(c, "Failed to create draft", err)
		return
	}

	c.JSON(http.StatusOK, DraftResponse{Status: "ok", Draft: draft})
}

// ListDrafts returns all drafts
func (h *Handlers) ListDrafts(c *gin.Context) {
	drafts, err := h.agent.ListDrafts(c.Request.Context())
	if err != nil {
		respondStorageError(c, "Failed to list drafts", err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// GetDraft returns one draft
func (h *Handlers) GetDraft(c *gin.Context) {
	draft, err := h.agent.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDraftError(c, err, "Failed to fetch draft")
		return
	}
	c.JSON(http.StatusOK, draft)
}

// UpdateDraft applies the fields present in the body to a draft
func (h *Handlers) UpdateDraft(c *gin.Context) {
	var patch model.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	draft, err := h.agent.UpdateDraft(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondDraftError(c, err, "Failed to update draft")
		return
	}

	c.JSON(http.StatusOK, DraftResponse{Status: "ok", Draft: draft})
}

// DeleteDraft removes a draft
func (h *Handlers) DeleteDraft(c *gin.Context) {
	id := c.Param("id")
	if err := h.agent.DeleteDraft(c.Request.Context(), id); err != nil {
		respondDraftError(c, err, "Failed to delete draft")
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Status: "deleted", ID: id})
}

// SendDraft sends a draft as a reply to its source email's sender
func (h *Handlers) SendDraft(c *gin.Context) {
	result, err := h.agent.SendDraft(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, SendResponse{
			Status:    "sent",
			DraftID:   result.DraftID,
			MessageID: result.MessageID,
			To:        result.To,
		})
	case errors.Is(err, service.ErrSendingDisabled):
		respondError(c, http.StatusServiceUnavailable, "sending_disabled", "Draft sending is not configured")
	case errors.Is(err, service.ErrEmailNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Source email not found")
	case errors.Is(err, sender.ErrNoRecipient):
		respondError(c, http.StatusBadRequest, "validation_error", "Draft has no recipient")
	case errors.Is(err, repository.ErrDraftNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Draft not found")
	default:
		respondError(c, http.StatusBadGateway, "send_error", "Failed to send draft")
	}
}

func respondDraftError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrDraftNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "Draft not found")
		return
	}
	respondStorageError(c, message, err)
}
