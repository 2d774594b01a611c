package api

import (
	"net/http"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The default workspace every user lands in. The slug is the stable handle;
// the display name is what clients render.
const (
	defaultWorkspaceName = "General"
	defaultWorkspaceSlug = "general"
)

type WorkspaceHandler struct {
	workspaces     repository.WorkspaceRepository
	memberships    repository.MembershipRepository
	channels       repository.ChannelRepository
	channelMembers repository.ChannelMemberRepository
	logger         *zap.Logger
}

func NewWorkspaceHandler(
	workspaces repository.WorkspaceRepository,
	memberships repository.MembershipRepository,
	channels repository.ChannelRepository,
	channelMembers repository.ChannelMemberRepository,
	logger *zap.Logger,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces:     workspaces,
		memberships:    memberships,
		channels:       channels,
		channelMembers: channelMembers,
		logger:         logger,
	}
}

type createWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /v1/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	ws, err := h.workspaces.Create(c.Request.Context(), req.Name, userID)
	if err != nil {
		h.logger.Error("failed to create workspace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create workspace"})
		return
	}
	if err := h.memberships.Add(c.Request.Context(), ws.ID, userID, []string{"owner"}); err != nil {
		h.logger.Error("failed to add owner membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, ws)
}

// List handles GET /v1/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.workspaces.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list workspaces", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workspaces"})
		return
	}

	c.JSON(http.StatusOK, workspaces)
}

// Join handles POST /v1/workspaces/:id/join. Joining twice is a no-op.
func (h *WorkspaceHandler) Join(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace ID"})
		return
	}
	userID := middleware.GetUserID(c)

	ws, err := h.workspaces.GetByID(c.Request.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to get workspace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join workspace"})
		return
	}
	if ws == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}

	if err := h.memberships.Add(c.Request.Context(), workspaceID, userID, []string{"member"}); err != nil {
		h.logger.Error("failed to join workspace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join workspace"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

// Bootstrap handles POST /v1/chat/bootstrap
//
// Lands the caller in the default workspace and its #general channel,
// creating both on first use. All four steps are conditional inserts, so
// concurrent first calls converge on the same rows.
func (h *WorkspaceHandler) Bootstrap(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	ws, err := h.workspaces.EnsureDefault(ctx, defaultWorkspaceName, defaultWorkspaceSlug, userID)
	if err != nil {
		h.logger.Error("failed to ensure default workspace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bootstrap chat"})
		return
	}
	if err := h.memberships.Add(ctx, ws.ID, userID, []string{"member"}); err != nil {
		h.logger.Error("failed to join default workspace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bootstrap chat"})
		return
	}

	general, err := h.channels.EnsureGeneral(ctx, ws.ID, userID)
	if err != nil {
		h.logger.Error("failed to ensure general channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bootstrap chat"})
		return
	}
	if err := h.channelMembers.Add(ctx, general.ID, userID); err != nil {
		h.logger.Error("failed to join general channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bootstrap chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": ws, "channel": general})
}
