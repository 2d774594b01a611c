package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/fellowsabroad/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages       repository.MessageRepository
	channels       repository.ChannelRepository
	channelMembers repository.ChannelMemberRepository
	files          repository.FileRepository
	users          repository.UserRepository
	hub            *ws.Hub
	logger         *zap.Logger
}

func NewMessageHandler(
	messages repository.MessageRepository,
	channels repository.ChannelRepository,
	channelMembers repository.ChannelMemberRepository,
	files repository.FileRepository,
	users repository.UserRepository,
	hub *ws.Hub,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		messages:       messages,
		channels:       channels,
		channelMembers: channelMembers,
		files:          files,
		users:          users,
		hub:            hub,
		logger:         logger,
	}
}

type attachmentRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
	Filename   string `json:"filename" binding:"required"`
	Size       int64  `json:"size"`
}

type createMessageRequest struct {
	Text     string              `json:"text" binding:"required"`
	ParentID *int64              `json:"parent_id"`
	Files    []attachmentRequest `json:"files"`
}

// wsEvent is the JSON frame pushed to channel subscribers.
type wsEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

func (h *MessageHandler) notify(channelID uuid.UUID, eventType string, m *models.Message) {
	payload, err := json.Marshal(wsEvent{Type: eventType, Message: m})
	if err != nil {
		h.logger.Error("failed to encode ws event", zap.Error(err))
		return
	}
	h.hub.Broadcast(channelID, payload)
}

// canAccess reports whether the user may read or post in the channel.
// Public channels are open to every authenticated user; private channels
// and DMs require channel membership.
func (h *MessageHandler) canAccess(c *gin.Context, ch *models.Channel, userID uuid.UUID) (bool, error) {
	if !ch.IsPrivate {
		return true, nil
	}
	return h.channelMembers.IsMember(c.Request.Context(), ch.ID, userID)
}

// Create handles POST /v1/channels/:id/messages. Threading is single
// level: the parent must itself be a top-level message in the same channel.
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}
	userID := middleware.GetUserID(c)

	ch, err := h.channels.GetByID(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to get channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	ok, err := h.canAccess(c, ch, userID)
	if err != nil {
		h.logger.Error("failed to check channel membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this channel"})
		return
	}

	if req.ParentID != nil {
		parent, err := h.messages.GetByID(c.Request.Context(), *req.ParentID)
		if err != nil {
			h.logger.Error("failed to get parent message", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
			return
		}
		if parent == nil || parent.ChannelID != channelID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent message not found in this channel"})
			return
		}
		if parent.ParentID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot reply to a reply"})
			return
		}
	}

	msg, err := h.messages.Create(c.Request.Context(), channelID, userID, req.Text, req.ParentID)
	if err != nil {
		h.logger.Error("failed to create message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	for _, f := range req.Files {
		if _, err := h.files.Attach(c.Request.Context(), msg.ID, f.StorageKey, f.Filename, f.Size); err != nil {
			h.logger.Error("failed to attach file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach file"})
			return
		}
	}

	h.notify(channelID, "message.created", msg)
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /v1/channels/:id/messages?parent_id=
//
// Messages come back in ascending creation order, soft-deleted rows
// included; clients render tombstones and rebuild threads from parent ids.
// The optional parent_id filter narrows the result to one thread.
func (h *MessageHandler) List(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}
	userID := middleware.GetUserID(c)

	ch, err := h.channels.GetByID(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to get channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	ok, err := h.canAccess(c, ch, userID)
	if err != nil {
		h.logger.Error("failed to check channel membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this channel"})
		return
	}

	messages, err := h.messages.ListByChannel(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	if p := c.Query("parent_id"); p != "" {
		parentID, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'parent_id' parameter"})
			return
		}
		replies := make([]models.Message, 0)
		for _, m := range messages {
			if m.ParentID != nil && *m.ParentID == parentID {
				replies = append(replies, m)
			}
		}
		messages = replies
	}

	c.JSON(http.StatusOK, messages)
}

type updateMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Update handles PUT /v1/messages/:id. Author only.
func (h *MessageHandler) Update(c *gin.Context) {
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}
	userID := middleware.GetUserID(c)

	msg, err := h.messages.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can edit a message"})
		return
	}

	if err := h.messages.UpdateText(c.Request.Context(), id, req.Text); err != nil {
		h.logger.Error("failed to edit message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
		return
	}

	updated, err := h.messages.GetByID(c.Request.Context(), id)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
		return
	}

	h.notify(updated.ChannelID, "message.updated", updated)
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/messages/:id. Author only; the row survives
// with its text intact and the deleted flag set.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}
	userID := middleware.GetUserID(c)

	msg, err := h.messages.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete a message"})
		return
	}

	if err := h.messages.SoftDelete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	msg.Deleted = true
	h.notify(msg.ChannelID, "message.deleted", msg)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ListFiles handles GET /v1/messages/:id/files
func (h *MessageHandler) ListFiles(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	files, err := h.files.ListByMessage(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list attachments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}

	c.JSON(http.StatusOK, files)
}

// ChannelUsers handles GET /v1/channels/:id/users — everyone who has
// posted in the channel, keyed by id, for rendering message authors.
func (h *MessageHandler) ChannelUsers(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}

	authorIDs, err := h.messages.ListAuthorIDs(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to list channel authors", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channel users"})
		return
	}

	roster := make(map[string]models.UserSummary, len(authorIDs))
	if len(authorIDs) > 0 {
		users, err := h.users.GetMany(c.Request.Context(), authorIDs)
		if err != nil {
			h.logger.Error("failed to resolve channel authors", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channel users"})
			return
		}
		for _, u := range users {
			roster[u.ID.String()] = models.UserSummary{
				ID:    u.ID,
				Name:  displayName(u),
				Email: u.Email,
			}
		}
	}

	c.JSON(http.StatusOK, roster)
}

// displayName picks the best label for a user: the profile name, then the
// email, then a suffix of the id as a last resort.
func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	id := u.ID.String()
	return "User " + id[len(id)-4:]
}
