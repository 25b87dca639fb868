// internal/api/handlers/image_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

// presignTTL is the default validity window for a presigned blob URL
// (spec §6).
const presignTTL = 3600 * time.Second

// ImageHandler serves GET /api/v1/images/:id.
type ImageHandler struct {
	imageRepo interfaces.ImageRepository
	blobStore storage.BlobStore
	logger    *zap.Logger
}

// NewImageHandler creates a new ImageHandler instance.
func NewImageHandler(imageRepo interfaces.ImageRepository, blobStore storage.BlobStore, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageRepo: imageRepo,
		blobStore: blobStore,
		logger:    logger.Named("ImageHandler"),
	}
}

// GetImage handles GET /api/v1/images/:id?type=original|processed.
func (h *ImageHandler) GetImage(c *gin.Context) {
	const operation = "ImageHandler.GetImage"
	requestID := utils.GetRequestID(c.Request.Context())

	if err := utils.ValidateUUID(c.Param("id")); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid image id")
		return
	}
	id, _ := uuid.Parse(c.Param("id"))

	variant := c.DefaultQuery("type", "original")
	if variant != "original" && variant != "processed" {
		utils.RespondWithError(c, http.StatusBadRequest, "type must be original or processed")
		return
	}

	image, err := h.imageRepo.GetImageByID(c.Request.Context(), id)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			h.logger.Error("image lookup failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		}
		respondDomainError(c, err)
		return
	}

	var blobURL string
	switch variant {
	case "original":
		blobURL = image.OriginalURL
	case "processed":
		if image.ProcessedURL == nil {
			utils.RespondWithError(c, http.StatusNotFound, "processed variant not available")
			return
		}
		blobURL = *image.ProcessedURL
	}

	url, err := h.blobStore.Presign(c.Request.Context(), keyFromBlobURL(blobURL), presignTTL)
	if err != nil {
		h.logger.Error("presign failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		respondDomainError(c, err)
		return
	}

	utils.RespondWithJSON(c, http.StatusOK, gin.H{
		"imageId": image.ID,
		"type":    variant,
		"url":     url,
	})
}

// keyFromBlobURL extracts the opaque object key from a blob://bucket/key URL.
func keyFromBlobURL(blobURL string) string {
	trimmed := strings.TrimPrefix(blobURL, "blob://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return trimmed
	}
	return parts[1]
}
