package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const excerptLength = 200

type BlogHandler struct {
	blogs    repository.BlogRepository
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewBlogHandler(blogs repository.BlogRepository, users repository.UserRepository, profiles repository.ProfileRepository, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{blogs: blogs, users: users, profiles: profiles, logger: logger}
}

// makeExcerpt derives the list-view teaser from the content. The cut is
// at 200 characters, not bytes, so multi-byte text is never split
// mid-rune.
func makeExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}

type blogView struct {
	models.Blog
	Author models.AuthorSummary `json:"author"`
}

// authorSummary resolves a display name: profile name first, then the
// local part of the email, then "Anonymous".
func authorSummary(c *gin.Context, users repository.UserRepository, profiles repository.ProfileRepository, authorID uuid.UUID) models.AuthorSummary {
	summary := models.AuthorSummary{Name: "Anonymous"}

	user, err := users.GetByID(c.Request.Context(), authorID)
	if err != nil || user == nil {
		return summary
	}
	summary.Email = user.Email

	profile, err := profiles.GetByUser(c.Request.Context(), authorID)
	if err == nil && profile != nil && (profile.FirstName != "" || profile.LastName != "") {
		summary.Name = strings.TrimSpace(profile.FirstName + " " + profile.LastName)
		return summary
	}
	if user.Email != "" {
		summary.Name = strings.SplitN(user.Email, "@", 2)[0]
	}
	return summary
}

// List handles GET /v1/blogs?tag=&search=&limit=
func (h *BlogHandler) List(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
	}

	blogs, err := h.blogs.ListPublished(c.Request.Context(), c.Query("tag"), c.Query("search"), limit)
	if err != nil {
		h.logger.Error("failed to list blogs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list blogs"})
		return
	}

	views := make([]blogView, 0, len(blogs))
	for _, b := range blogs {
		views = append(views, blogView{Blog: b, Author: authorSummary(c, h.users, h.profiles, b.AuthorID)})
	}

	c.JSON(http.StatusOK, views)
}

// Get handles GET /v1/blogs/:id
func (h *BlogHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog ID"})
		return
	}

	blog, err := h.blogs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get blog"})
		return
	}
	if blog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
		return
	}

	c.JSON(http.StatusOK, blogView{Blog: *blog, Author: authorSummary(c, h.users, h.profiles, blog.AuthorID)})
}

// Tags handles GET /v1/blogs/tags
func (h *BlogHandler) Tags(c *gin.Context) {
	tags, err := h.blogs.Tags(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list tags", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// Mine handles GET /v1/blogs/mine — the caller's posts, drafts included.
func (h *BlogHandler) Mine(c *gin.Context) {
	userID := middleware.GetUserID(c)

	blogs, err := h.blogs.ListByAuthor(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list blogs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list blogs"})
		return
	}

	c.JSON(http.StatusOK, blogs)
}

type blogRequest struct {
	Title       string   `json:"title" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
	IsPublished bool     `json:"is_published"`
}

// Create handles POST /v1/blogs
func (h *BlogHandler) Create(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	blog := models.Blog{
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     makeExcerpt(req.Content),
		AuthorID:    userID,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
	}
	if req.IsPublished {
		now := time.Now()
		blog.PublishedAt = &now
	}

	created, err := h.blogs.Create(c.Request.Context(), blog)
	if err != nil {
		h.logger.Error("failed to create blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create blog"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// loadEditable enforces author-or-admin access to a post.
func (h *BlogHandler) loadEditable(c *gin.Context) *models.Blog {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog ID"})
		return nil
	}
	userID := middleware.GetUserID(c)

	blog, err := h.blogs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get blog"})
		return nil
	}
	if blog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
		return nil
	}
	if blog.AuthorID == userID {
		return blog
	}

	admin, err := h.profiles.IsAdmin(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get blog"})
		return nil
	}
	if admin {
		return blog
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "not your blog"})
	return nil
}

// Update handles PUT /v1/blogs/:id. PublishedAt is set the first time the
// post goes public and never reset.
func (h *BlogHandler) Update(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	blog := h.loadEditable(c)
	if blog == nil {
		return
	}

	blog.Title = req.Title
	blog.Content = req.Content
	blog.Excerpt = makeExcerpt(req.Content)
	blog.Tags = req.Tags
	blog.ImageURL = req.ImageURL
	if req.IsPublished && blog.PublishedAt == nil {
		now := time.Now()
		blog.PublishedAt = &now
	}
	blog.IsPublished = req.IsPublished

	if err := h.blogs.Update(c.Request.Context(), *blog); err != nil {
		h.logger.Error("failed to update blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update blog"})
		return
	}

	c.JSON(http.StatusOK, blog)
}

// Delete handles DELETE /v1/blogs/:id. Comments go with the post.
func (h *BlogHandler) Delete(c *gin.Context) {
	blog := h.loadEditable(c)
	if blog == nil {
		return
	}

	if err := h.blogs.Delete(c.Request.Context(), blog.ID); err != nil {
		h.logger.Error("failed to delete blog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete blog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
