// internal/api/handlers/recognition_handler.go
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

// RecognitionHandler serves the ingest and read-back endpoints for receipt
// recognitions: uploadImage and the Recognition projection (spec §6).
type RecognitionHandler struct {
	ingest          *services.IngestService
	recognitionRepo interfaces.RecognitionRepository
	logger          *zap.Logger
}

// NewRecognitionHandler creates a new RecognitionHandler instance.
func NewRecognitionHandler(ingest *services.IngestService, recognitionRepo interfaces.RecognitionRepository, logger *zap.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		ingest:          ingest,
		recognitionRepo: recognitionRepo,
		logger:          logger.Named("RecognitionHandler"),
	}
}

// Recognize handles POST /api/v1/recognize.
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	const operation = "RecognitionHandler.Recognize"
	requestID := utils.GetRequestID(c.Request.Context())

	fileHeader, err := c.FormFile("image")
	if err != nil {
		h.logger.Warn("image field missing from upload", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		utils.RespondWithError(c, http.StatusBadRequest, "image file is required")
		return
	}

	mimeType, ok := resolveMimeType(fileHeader.Header.Get("Content-Type"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "unsupported MIME type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read uploaded file", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	meta := services.UploadMetadata{}
	if v := c.PostForm("sourceService"); v != "" {
		meta.SourceService = &v
	}
	if v := c.PostForm("sourceReference"); v != "" {
		meta.SourceReference = &v
	}
	if v := c.PostForm("acceptedQrFormats"); v != "" {
		for _, tok := range strings.Split(v, ",") {
			meta.AcceptedQRFormats = append(meta.AcceptedQRFormats, entities.QRFormat(strings.TrimSpace(tok)))
		}
	}

	result, err := h.ingest.UploadImage(c.Request.Context(), data, mimeType, meta)
	if err != nil {
		h.logger.Error("upload failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		respondDomainError(c, err)
		return
	}

	utils.RespondWithJSON(c, http.StatusAccepted, gin.H{
		"imageId":       result.ImageID,
		"recognitionId": result.RecognitionID,
		"status":        result.Status,
	})
}

var mimeByContentType = map[string]entities.MimeType{
	"image/jpeg": entities.MimeTypeJPEG,
	"image/jpg":  entities.MimeTypeJPEG,
	"image/png":  entities.MimeTypePNG,
	"image/webp": entities.MimeTypeWebP,
}

func resolveMimeType(contentType string) (entities.MimeType, bool) {
	base := strings.TrimSpace(strings.Split(contentType, ";")[0])
	mt, ok := mimeByContentType[strings.ToLower(base)]
	return mt, ok
}

// GetRecognition handles GET /api/v1/recognitions/:id.
func (h *RecognitionHandler) GetRecognition(c *gin.Context) {
	const operation = "RecognitionHandler.GetRecognition"
	requestID := utils.GetRequestID(c.Request.Context())

	if err := utils.ValidateUUID(c.Param("id")); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid recognition id")
		return
	}
	id, _ := uuid.Parse(c.Param("id"))

	recognition, err := h.recognitionRepo.GetRecognitionByID(c.Request.Context(), id)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			h.logger.Error("recognition lookup failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		}
		respondDomainError(c, err)
		return
	}

	utils.RespondWithJSON(c, http.StatusOK, recognitionProjection(recognition))
}

func recognitionProjection(r *entities.Recognition) gin.H {
	projection := gin.H{
		"recognitionId":  r.ID,
		"imageId":        r.ImageID,
		"status":         r.Status,
		"resultType":     r.ResultType,
		"rawText":        r.RawText,
		"confidence":     r.Confidence,
		"engine":         r.Engine,
		"aligned":        r.Aligned,
		"qrData":         r.QRData,
		"qrFormat":       r.QRFormat,
		"qrLocation":     r.QRLocation,
		"processingTime": r.ProcessingTime,
		"queueWaitTime":  r.QueueWaitTime,
		"attemptNumber":  r.AttemptNumber,
		"error":          r.Error,
		"createdAt":      r.CreatedAt,
		"completedAt":    r.CompletedAt,
	}
	return projection
}
