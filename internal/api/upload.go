package api

import (
	"net/http"

	"github.com/fellowsabroad/backend/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UploadHandler struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewUploadHandler(store *storage.Store, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// PresignPut handles POST /v1/uploads. The client PUTs the file straight
// to the returned URL and then references the key in the relevant record.
func (h *UploadHandler) PresignPut(c *gin.Context) {
	key, url, err := h.store.PresignPut(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to presign upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

// PresignGet handles GET /v1/uploads/url?key=
func (h *UploadHandler) PresignGet(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'key' parameter"})
		return
	}

	url, err := h.store.PresignGet(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("failed to presign download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign download"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
