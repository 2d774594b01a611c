package api

import (
	"net/http"
	"strconv"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentHandler struct {
	comments repository.CommentRepository
	blogs    repository.BlogRepository
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewCommentHandler(
	comments repository.CommentRepository,
	blogs repository.BlogRepository,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{comments: comments, blogs: blogs, users: users, profiles: profiles, logger: logger}
}

type commentView struct {
	models.Comment
	Author models.AuthorSummary `json:"author"`
}

// List handles GET /v1/blogs/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	blogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog ID"})
		return
	}

	comments, err := h.comments.ListByBlog(c.Request.Context(), blogID)
	if err != nil {
		h.logger.Error("failed to list comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list comments"})
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, commentView{Comment: cm, Author: authorSummary(c, h.users, h.profiles, cm.AuthorID)})
	}

	c.JSON(http.StatusOK, views)
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create handles POST /v1/blogs/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	blogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog ID"})
		return
	}
	userID := middleware.GetUserID(c)

	blog, err := h.blogs.GetByID(c.Request.Context(), blogID)
	if err != nil {
		h.logger.Error("failed to get blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to comment"})
		return
	}
	if blog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), blogID, userID, req.Content)
	if err != nil {
		h.logger.Error("failed to create comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// loadEditable enforces author-or-admin access to a comment.
func (h *CommentHandler) loadEditable(c *gin.Context) *models.Comment {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment ID"})
		return nil
	}
	userID := middleware.GetUserID(c)

	comment, err := h.comments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get comment"})
		return nil
	}
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return nil
	}
	if comment.AuthorID == userID {
		return comment
	}

	admin, err := h.profiles.IsAdmin(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get comment"})
		return nil
	}
	if admin {
		return comment
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})
	return nil
}

// Update handles PUT /v1/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment := h.loadEditable(c)
	if comment == nil {
		return
	}

	if err := h.comments.Update(c.Request.Context(), comment.ID, req.Content); err != nil {
		h.logger.Error("failed to update comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// Delete handles DELETE /v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	comment := h.loadEditable(c)
	if comment == nil {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), comment.ID); err != nil {
		h.logger.Error("failed to delete comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
