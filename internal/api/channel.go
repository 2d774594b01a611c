package api

import (
	"fmt"
	"net/http"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChannelHandler struct {
	channels       repository.ChannelRepository
	channelMembers repository.ChannelMemberRepository
	memberships    repository.MembershipRepository
	logger         *zap.Logger
}

func NewChannelHandler(
	channels repository.ChannelRepository,
	channelMembers repository.ChannelMemberRepository,
	memberships repository.MembershipRepository,
	logger *zap.Logger,
) *ChannelHandler {
	return &ChannelHandler{
		channels:       channels,
		channelMembers: channelMembers,
		memberships:    memberships,
		logger:         logger,
	}
}

type createChannelRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"is_private"`
}

// Create handles POST /v1/workspaces/:id/channels. Workspace members only;
// the creator joins the channel automatically.
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace ID"})
		return
	}
	userID := middleware.GetUserID(c)

	member, err := h.memberships.IsMember(c.Request.Context(), workspaceID, userID)
	if err != nil {
		h.logger.Error("failed to check membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this workspace"})
		return
	}

	ch, err := h.channels.Create(c.Request.Context(), workspaceID, req.Name, req.IsPrivate, userID)
	if err != nil {
		h.logger.Error("failed to create channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}
	if err := h.channelMembers.Add(c.Request.Context(), ch.ID, userID); err != nil {
		h.logger.Error("failed to add channel creator", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// List handles GET /v1/workspaces/:id/channels
func (h *ChannelHandler) List(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace ID"})
		return
	}

	channels, err := h.channels.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to list channels", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channels"})
		return
	}

	c.JSON(http.StatusOK, channels)
}

// Join handles POST /v1/channels/:id/join. Public non-DM channels only;
// private channels and DMs gain members through creation.
func (h *ChannelHandler) Join(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}
	userID := middleware.GetUserID(c)

	ch, err := h.channels.GetByID(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to get channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join channel"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	if ch.IsPrivate || ch.IsDM {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot join a private channel"})
		return
	}

	if err := h.channelMembers.Add(c.Request.Context(), channelID, userID); err != nil {
		h.logger.Error("failed to join channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

type createDMRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// dmKey is the canonical identity of a DM pair: the two user ids in byte
// order, joined with a colon. Both orderings of the same pair produce the
// same key.
func dmKey(a, b uuid.UUID) string {
	if a.String() > b.String() {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s", a, b)
}

// CreateDM handles POST /v1/workspaces/:id/dms. Idempotent: asking for an
// existing DM returns the existing channel.
func (h *ChannelHandler) CreateDM(c *gin.Context) {
	var req createDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace ID"})
		return
	}
	userID := middleware.GetUserID(c)

	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a direct message with yourself"})
		return
	}

	member, err := h.memberships.IsMember(c.Request.Context(), workspaceID, userID)
	if err != nil {
		h.logger.Error("failed to check membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct message"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this workspace"})
		return
	}

	ch, err := h.channels.EnsureDM(c.Request.Context(), workspaceID, dmKey(userID, req.UserID), userID)
	if err != nil {
		h.logger.Error("failed to create direct message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct message"})
		return
	}
	for _, id := range []uuid.UUID{userID, req.UserID} {
		if err := h.channelMembers.Add(c.Request.Context(), ch.ID, id); err != nil {
			h.logger.Error("failed to add direct message member", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct message"})
			return
		}
	}

	c.JSON(http.StatusOK, ch)
}
