package api

import (
	"net/http"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/fellowsabroad/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	hub            *ws.Hub
	channels       repository.ChannelRepository
	channelMembers repository.ChannelMemberRepository
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

func NewWSHandler(hub *ws.Hub, channels repository.ChannelRepository, channelMembers repository.ChannelMemberRepository, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:            hub,
		channels:       channels,
		channelMembers: channelMembers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth is the Bearer token, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe handles GET /v1/ws?channel_id= — upgrades the connection and
// streams every event in the channel until the client disconnects.
func (h *WSHandler) Subscribe(c *gin.Context) {
	channelID, err := uuid.Parse(c.Query("channel_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'channel_id' parameter"})
		return
	}
	userID := middleware.GetUserID(c)

	ch, err := h.channels.GetByID(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to get channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	if ch.IsPrivate {
		member, err := h.channelMembers.IsMember(c.Request.Context(), channelID, userID)
		if err != nil {
			h.logger.Error("failed to check channel membership", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this channel"})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	ws.Serve(h.hub, conn, channelID)
}
