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

type ProgramHandler struct {
	programs repository.ProgramRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewProgramHandler(programs repository.ProgramRepository, profiles repository.ProfileRepository, logger *zap.Logger) *ProgramHandler {
	return &ProgramHandler{programs: programs, profiles: profiles, logger: logger}
}

// List handles GET /v1/programs?country=
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.programs.List(c.Request.Context(), c.Query("country"))
	if err != nil {
		h.logger.Error("failed to list programs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list programs"})
		return
	}

	c.JSON(http.StatusOK, programs)
}

// Get handles GET /v1/programs/:id
func (h *ProgramHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid program ID"})
		return
	}

	program, err := h.programs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get program", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get program"})
		return
	}
	if program == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "program not found"})
		return
	}

	c.JSON(http.StatusOK, program)
}

// Countries handles GET /v1/programs/countries
func (h *ProgramHandler) Countries(c *gin.Context) {
	countries, err := h.programs.Countries(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list countries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list countries"})
		return
	}

	c.JSON(http.StatusOK, countries)
}

type createProgramRequest struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description" binding:"required"`
	University          string   `json:"university" binding:"required"`
	Country             string   `json:"country" binding:"required"`
	Degree              string   `json:"degree" binding:"required"`
	Duration            string   `json:"duration"`
	ApplicationDeadline string   `json:"application_deadline"`
	Requirements        []string `json:"requirements"`
	Benefits            []string `json:"benefits"`
	Eligibility         []string `json:"eligibility"`
	ImageURL            string   `json:"image_url"`
	MaxApplicants       int      `json:"max_applicants"`
}

// Create handles POST /v1/programs. Admin only. New programs start active
// with zero applicants.
func (h *ProgramHandler) Create(c *gin.Context) {
	var req createProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	admin, err := h.profiles.IsAdmin(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create program"})
		return
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	program, err := h.programs.Create(c.Request.Context(), models.Program{
		Title:               req.Title,
		Description:         req.Description,
		University:          req.University,
		Country:             req.Country,
		Degree:              req.Degree,
		Duration:            req.Duration,
		ApplicationDeadline: req.ApplicationDeadline,
		Requirements:        req.Requirements,
		Benefits:            req.Benefits,
		Eligibility:         req.Eligibility,
		ImageURL:            req.ImageURL,
		MaxApplicants:       req.MaxApplicants,
	})
	if err != nil {
		h.logger.Error("failed to create program", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create program"})
		return
	}

	c.JSON(http.StatusCreated, program)
}
