package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fellowsabroad/backend/internal/auth"
	"github.com/fellowsabroad/backend/internal/mailer"
	"github.com/fellowsabroad/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users  repository.UserRepository
	otp    *auth.OTPStore
	mailer mailer.Mailer
	secret string
	logger *zap.Logger
}

func NewAuthHandler(users repository.UserRepository, otp *auth.OTPStore, m mailer.Mailer, secret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, otp: otp, mailer: m, secret: secret, logger: logger}
}

type requestCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestCode handles POST /v1/auth/otp/request
//
// The code is stored before the email goes out; a delivery failure aborts
// the sign-in so the user is never left waiting on a code that was never
// sent.
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	code, err := auth.GenerateCode()
	if err != nil {
		h.logger.Error("failed to generate sign-in code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate sign-in code"})
		return
	}
	if err := h.otp.Put(c.Request.Context(), email, code); err != nil {
		h.logger.Error("failed to store sign-in code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store sign-in code"})
		return
	}
	if err := h.mailer.SendSignInCode(email, code); err != nil {
		h.logger.Error("failed to send sign-in code", zap.Error(err), zap.String("email", email))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send sign-in code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "sign-in code sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyCode handles POST /v1/auth/otp/verify
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.otp.Consume(c.Request.Context(), email, req.Code); err != nil {
		if errors.Is(err, auth.ErrCodeMismatch) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		h.logger.Error("failed to verify sign-in code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify sign-in code"})
		return
	}

	user, err := h.users.FindOrCreateByEmail(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("failed to upsert user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.secret, tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
