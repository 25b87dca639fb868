// internal/domain/services/ingest_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

// UploadResult is the response uploadImage returns to the HTTP edge.
type UploadResult struct {
	ImageID       uuid.UUID
	RecognitionID uuid.UUID
	Status        entities.RecognitionStatus
}

// UploadMetadata carries the optional fields a caller may attach to an
// upload (spec §4.4). Tags are enforced by IngestService.validate before
// any blob or metadata write.
type UploadMetadata struct {
	SourceService     *string              `validate:"omitempty,max=255"`
	SourceReference   *string              `validate:"omitempty,max=255"`
	AcceptedQRFormats []entities.QRFormat  `validate:"dive,oneof=fiscal url unknown"`
}

// IngestService implements C4: validates an upload, writes the blob, seeds
// records, enqueues the recognition job and publishes ocr.queued.
type IngestService struct {
	blobStore     storage.BlobStore
	cache         cache.Cache
	imageRepo     interfaces.ImageRepository
	recognitionRepo interfaces.RecognitionRepository
	queue         queue.Producer
	publisher     events.Publisher
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewIngestService creates a new IngestService instance.
func NewIngestService(
	blobStore storage.BlobStore,
	c cache.Cache,
	imageRepo interfaces.ImageRepository,
	recognitionRepo interfaces.RecognitionRepository,
	q queue.Producer,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		blobStore:       blobStore,
		cache:           c,
		imageRepo:       imageRepo,
		recognitionRepo: recognitionRepo,
		queue:           q,
		publisher:       publisher,
		validate:        validate,
		logger:          logger.Named("IngestService"),
	}
}

var mimeExtensions = map[entities.MimeType]string{
	entities.MimeTypeJPEG: "jpg",
	entities.MimeTypePNG:  "png",
	entities.MimeTypeWebP: "webp",
}

// UploadImage implements uploadImage (spec §4.4).
func (s *IngestService) UploadImage(ctx context.Context, data []byte, mimeType entities.MimeType, meta UploadMetadata) (*UploadResult, error) {
	const operation = "IngestService.UploadImage"
	requestID := utils.GetRequestID(ctx)

	// Validation (fail-fast): MIME and size, before any blob or metadata
	// write (spec §8 property 7).
	if _, ok := entities.AllowedMimeTypes[mimeType]; !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported MIME type: %s", mimeType))
	}
	if int64(len(data)) > entities.MaxImageBytes {
		return nil, domain.NewValidationError(fmt.Sprintf("image exceeds maximum size of %d bytes", entities.MaxImageBytes))
	}
	if err := s.validate.Struct(meta); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid upload metadata: %v", err))
	}

	// 1. Generate opaque key.
	nanoid, err := utils.GenerateNanoID(21)
	if err != nil {
		return nil, domain.NewInternalError("failed to generate image key", err)
	}
	key := fmt.Sprintf("%s-original.%s", nanoid, mimeExtensions[mimeType])

	// 2. Write bytes to blob store.
	originalURL, err := s.blobStore.Put(ctx, key, bytes.NewReader(data), string(mimeType))
	if err != nil {
		s.logger.Error("blob write failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	imageID := uuid.New()
	recognitionID := uuid.New()

	// 3. Seed cache with the bytes, TTL 1h.
	if err := s.cache.SetBinary(ctx, cache.ImageBytesKey(imageID.String()), data, cache.DefaultTTL); err != nil {
		s.logger.Warn("cache seed failed, continuing", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
	}

	// 4. Insert Image and Recognition records.
	image := &entities.Image{
		ID:              imageID,
		OriginalURL:     originalURL,
		FileSize:        int64(len(data)),
		MimeType:        mimeType,
		SourceService:   meta.SourceService,
		SourceReference: meta.SourceReference,
		UploadedAt:      time.Now().UTC(),
	}
	if err := s.imageRepo.CreateImage(ctx, image); err != nil {
		s.logger.Error("image insert failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	recognition := &entities.Recognition{
		ID:            recognitionID,
		ImageID:       imageID,
		Status:        entities.StatusQueued,
		AttemptNumber: 1,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.recognitionRepo.CreateRecognition(ctx, recognition); err != nil {
		s.logger.Error("recognition insert failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	// 5. Enqueue the job.
	job := entities.Job{
		ImageID:           imageID,
		RecognitionID:     recognitionID,
		SourceService:      meta.SourceService,
		SourceReference:   meta.SourceReference,
		AcceptedQRFormats: meta.AcceptedQRFormats,
		EnqueuedAt:        time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, domain.NewInternalError("failed to marshal job envelope", err)
	}
	if err := s.queue.Enqueue(ctx, queue.JobsQueue, queue.Envelope{Payload: payload, ProducedAt: job.EnqueuedAt}); err != nil {
		s.logger.Error("enqueue failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, domain.NewInternalError("failed to enqueue recognition job", err)
	}

	// 6. Publish ocr.queued with the current waiting count.
	position, err := s.waitingPosition(ctx)
	if err != nil {
		s.logger.Warn("failed to read queue length for ocr.queued", zap.String("operation", operation), zap.Error(err))
	}
	s.publisher.Publish(ctx, events.NewQueuedEvent(&job, position))

	s.logger.Info("image ingested", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("image_id", imageID.String()), zap.String("recognition_id", recognitionID.String()))

	return &UploadResult{ImageID: imageID, RecognitionID: recognitionID, Status: entities.StatusQueued}, nil
}

func (s *IngestService) waitingPosition(ctx context.Context) (int, error) {
	ql, ok := s.queue.(interface {
		QueueLength(ctx context.Context, queue string) (int64, error)
	})
	if !ok {
		return 0, nil
	}
	n, err := ql.QueueLength(ctx, queue.JobsQueue)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
