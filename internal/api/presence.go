package api

import (
	"net/http"
	"time"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// A user counts as online while their last heartbeat is within this window.
const onlineWindow = 5 * time.Minute

type PresenceHandler struct {
	presence repository.PresenceRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

func NewPresenceHandler(presence repository.PresenceRepository, users repository.UserRepository, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{presence: presence, users: users, logger: logger}
}

type heartbeatRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
}

// Heartbeat handles POST /v1/chat/presence
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.presence.Heartbeat(c.Request.Context(), req.WorkspaceID, userID); err != nil {
		h.logger.Error("failed to record heartbeat", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Online handles GET /v1/chat/presence?workspace_id=
//
// Online is derived, never pushed: anyone whose heartbeat is older than
// the window simply stops appearing.
func (h *PresenceHandler) Online(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'workspace_id' parameter"})
		return
	}

	since := time.Now().Add(-onlineWindow)
	rows, err := h.presence.ListSince(c.Request.Context(), workspaceID, since)
	if err != nil {
		h.logger.Error("failed to list presence", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list presence"})
		return
	}

	online := make([]models.UserSummary, 0, len(rows))
	if len(rows) > 0 {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, p := range rows {
			ids = append(ids, p.UserID)
		}
		users, err := h.users.GetMany(c.Request.Context(), ids)
		if err != nil {
			h.logger.Error("failed to resolve online users", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list presence"})
			return
		}
		for _, u := range users {
			online = append(online, models.UserSummary{
				ID:    u.ID,
				Name:  displayName(u),
				Email: u.Email,
			})
		}
	}

	c.JSON(http.StatusOK, online)
}
