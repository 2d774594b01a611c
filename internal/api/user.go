package api

import (
	"net/http"
	"strconv"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const notificationFeedLimit = 20

type UserHandler struct {
	users         repository.UserRepository
	profiles      repository.ProfileRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewUserHandler(users repository.UserRepository, profiles repository.ProfileRepository, notifications repository.NotificationRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, profiles: profiles, notifications: notifications, logger: logger}
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	profile, err := h.profiles.GetByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type updateProfileRequest struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	DateOfBirth       string `json:"date_of_birth"`
	Nationality       string `json:"nationality"`
	Address           string `json:"address"`
	ProfilePictureKey string `json:"profile_picture_key"`
}

// UpdateProfile handles PUT /v1/users/me/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	profile, err := h.profiles.Upsert(c.Request.Context(), models.UserProfile{
		UserID:            userID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		DateOfBirth:       req.DateOfBirth,
		Nationality:       req.Nationality,
		Address:           req.Address,
		ProfilePictureKey: req.ProfilePictureKey,
	})
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListNotifications handles GET /v1/notifications
func (h *UserHandler) ListNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)

	notifications, err := h.notifications.ListByUser(c.Request.Context(), userID, notificationFeedLimit)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead handles POST /v1/notifications/:id/read
func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}
	userID := middleware.GetUserID(c)

	n, err := h.notifications.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get notification"})
		return
	}
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if n.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your notification"})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to mark notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}
