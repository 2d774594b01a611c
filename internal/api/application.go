package api

import (
	"net/http"

	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	applications repository.ApplicationRepository
	programs     repository.ProgramRepository
	profiles     repository.ProfileRepository
	users        repository.UserRepository
	logger       *zap.Logger
}

func NewApplicationHandler(
	applications repository.ApplicationRepository,
	programs repository.ProgramRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		programs:     programs,
		profiles:     profiles,
		users:        users,
		logger:       logger,
	}
}

// applicationView joins an application with its program for list and
// detail responses.
type applicationView struct {
	models.Application
	Program *models.Program `json:"program,omitempty"`
	User    *models.User    `json:"user,omitempty"`
}

func (h *ApplicationHandler) withProgram(c *gin.Context, app models.Application) applicationView {
	view := applicationView{Application: app}
	program, err := h.programs.GetByID(c.Request.Context(), app.ProgramID)
	if err != nil {
		h.logger.Warn("failed to resolve program for application", zap.Error(err))
		return view
	}
	view.Program = program
	return view
}

// ListMine handles GET /v1/applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)

	apps, err := h.applications.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}

	views := make([]applicationView, 0, len(apps))
	for _, app := range apps {
		views = append(views, h.withProgram(c, app))
	}

	c.JSON(http.StatusOK, views)
}

// loadOwned fetches the application and enforces owner-or-admin access.
// Returns nil after writing the response when access is denied.
func (h *ApplicationHandler) loadOwned(c *gin.Context, allowAdmin bool) *models.Application {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application ID"})
		return nil
	}
	userID := middleware.GetUserID(c)

	app, err := h.applications.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get application"})
		return nil
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return nil
	}
	if app.UserID == userID {
		return app
	}

	if allowAdmin {
		admin, err := h.profiles.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			h.logger.Error("failed to check admin", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get application"})
			return nil
		}
		if admin {
			return app
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "not your application"})
	return nil
}

// Get handles GET /v1/applications/:id. Owner or admin.
func (h *ApplicationHandler) Get(c *gin.Context) {
	app := h.loadOwned(c, true)
	if app == nil {
		return
	}

	c.JSON(http.StatusOK, h.withProgram(c, *app))
}

type createApplicationRequest struct {
	ProgramID uuid.UUID `json:"program_id" binding:"required"`
}

// Create handles POST /v1/applications. One application per program per
// user; the personal-info section is seeded from the account email.
// Capacity is not checked: a full program still accepts applications.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	program, err := h.programs.GetByID(c.Request.Context(), req.ProgramID)
	if err != nil {
		h.logger.Error("failed to get program", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create application"})
		return
	}
	if program == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "program not found"})
		return
	}

	seed := models.PersonalInfo{Email: middleware.GetEmail(c)}
	app, err := h.applications.Create(c.Request.Context(), userID, req.ProgramID, seed)
	if err != nil {
		h.logger.Error("failed to create application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create application"})
		return
	}
	if app == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an application for this program"})
		return
	}

	c.JSON(http.StatusCreated, app)
}

// UpdatePersonalInfo handles PUT /v1/applications/:id/personal-info
func (h *ApplicationHandler) UpdatePersonalInfo(c *gin.Context) {
	var info models.PersonalInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app := h.loadOwned(c, false)
	if app == nil {
		return
	}

	if err := h.applications.UpdatePersonalInfo(c.Request.Context(), app.ID, info); err != nil {
		h.logger.Error("failed to update personal info", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// UpdateAcademicInfo handles PUT /v1/applications/:id/academic-info
func (h *ApplicationHandler) UpdateAcademicInfo(c *gin.Context) {
	var info models.AcademicInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app := h.loadOwned(c, false)
	if app == nil {
		return
	}

	if err := h.applications.UpdateAcademicInfo(c.Request.Context(), app.ID, info); err != nil {
		h.logger.Error("failed to update academic info", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// UpdateEssays handles PUT /v1/applications/:id/essays
func (h *ApplicationHandler) UpdateEssays(c *gin.Context) {
	var essays models.Essays
	if err := c.ShouldBindJSON(&essays); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app := h.loadOwned(c, false)
	if app == nil {
		return
	}

	if err := h.applications.UpdateEssays(c.Request.Context(), app.ID, essays); err != nil {
		h.logger.Error("failed to update essays", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// UpdateDocuments handles PUT /v1/applications/:id/documents. The body
// carries storage keys from the upload endpoint, never file contents.
func (h *ApplicationHandler) UpdateDocuments(c *gin.Context) {
	var docs models.Documents
	if err := c.ShouldBindJSON(&docs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	app := h.loadOwned(c, false)
	if app == nil {
		return
	}

	if err := h.applications.UpdateDocuments(c.Request.Context(), app.ID, docs); err != nil {
		h.logger.Error("failed to update documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// Submit handles POST /v1/applications/:id/submit. Only a draft can be
// submitted; anything else conflicts.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	app := h.loadOwned(c, false)
	if app == nil {
		return
	}

	ok, err := h.applications.Submit(c.Request.Context(), app.ID)
	if err != nil {
		h.logger.Error("failed to submit application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit application"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Application has already been submitted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "submitted"})
}

// requireAdmin writes a response and returns false unless the caller is
// an admin.
func (h *ApplicationHandler) requireAdmin(c *gin.Context) bool {
	userID := middleware.GetUserID(c)
	admin, err := h.profiles.IsAdmin(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
		return false
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return false
	}
	return true
}

// AdminList handles GET /v1/admin/applications?status=
func (h *ApplicationHandler) AdminList(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	apps, err := h.applications.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.logger.Error("failed to list applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}

	views := make([]applicationView, 0, len(apps))
	for _, app := range apps {
		view := h.withProgram(c, app)
		user, err := h.users.GetByID(c.Request.Context(), app.UserID)
		if err != nil {
			h.logger.Warn("failed to resolve applicant", zap.Error(err))
		} else {
			view.User = user
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, views)
}

var reviewStatuses = map[string]bool{
	models.StatusUnderReview: true,
	models.StatusAccepted:    true,
	models.StatusRejected:    true,
	models.StatusWaitlisted:  true,
}

type updateStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	ReviewerNotes string `json:"reviewer_notes"`
}

// AdminUpdateStatus handles PUT /v1/admin/applications/:id/status
func (h *ApplicationHandler) AdminUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !reviewStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application ID"})
		return
	}
	if !h.requireAdmin(c) {
		return
	}

	app, err := h.applications.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	if err := h.applications.UpdateStatus(c.Request.Context(), id, req.Status, req.ReviewerNotes); err != nil {
		h.logger.Error("failed to update status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
