package api

import (
	"net/http"
	"strconv"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReactionHandler struct {
	reactions repository.ReactionRepository
	messages  repository.MessageRepository
	logger    *zap.Logger
}

func NewReactionHandler(reactions repository.ReactionRepository, messages repository.MessageRepository, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, messages: messages, logger: logger}
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *ReactionHandler) messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return 0, false
	}
	return id, true
}

// Toggle handles POST /v1/messages/:id/reactions. Reacting with the same
// emoji twice removes the reaction; the response reports the final state.
func (h *ReactionHandler) Toggle(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, ok := h.messageID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	msg, err := h.messages.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to react"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	active, err := h.reactions.Toggle(c.Request.Context(), id, userID, req.Emoji)
	if err != nil {
		h.logger.Error("failed to toggle reaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to react"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": active})
}

// Remove handles DELETE /v1/messages/:id/reactions?emoji=. Removing a
// reaction that is not there is a no-op.
func (h *ReactionHandler) Remove(c *gin.Context) {
	emoji := c.Query("emoji")
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'emoji' parameter"})
		return
	}
	id, ok := h.messageID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.reactions.Remove(c.Request.Context(), id, userID, emoji); err != nil {
		h.logger.Error("failed to remove reaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove reaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// List handles GET /v1/messages/:id/reactions — raw rows; clients group
// by emoji themselves.
func (h *ReactionHandler) List(c *gin.Context) {
	id, ok := h.messageID(c)
	if !ok {
		return
	}

	reactions, err := h.reactions.ListByMessage(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list reactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reactions"})
		return
	}

	c.JSON(http.StatusOK, reactions)
}
