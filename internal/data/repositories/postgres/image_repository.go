// internal/data/repositories/postgres/image_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

var _ interfaces.ImageRepository = (*ImageRepository)(nil)

// ImageRepository implements interfaces.ImageRepository directly over
// pgx/v5 — the teacher's referenced sqlc Querier package is absent from
// the retrieved source tree, so queries are hand-written here instead.
type ImageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewImageRepository creates a new ImageRepository instance.
func NewImageRepository(db *pgxpool.Pool, logger *zap.Logger) *ImageRepository {
	return &ImageRepository{db: db, logger: logger.Named("ImageRepository")}
}

// CreateImage implements interfaces.ImageRepository.
func (r *ImageRepository) CreateImage(ctx context.Context, image *entities.Image) error {
	const operation = "postgres.ImageRepository.CreateImage"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("image_id", image.ID.String()), zap.String("request_id", requestID))

	const query = `
		INSERT INTO images
			(id, original_url, processed_url, file_size, mime_type, width, height, source_service, source_reference, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		image.ID, image.OriginalURL, image.ProcessedURL, image.FileSize, image.MimeType,
		image.Width, image.Height, image.SourceService, image.SourceReference, image.UploadedAt,
	)
	if err != nil {
		r.logger.Error("DB error in CreateImage", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return domain.NewInternalError(fmt.Sprintf("%s: INSERT INTO images (id=%s)", operation, image.ID), err)
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("image_id", image.ID.String()), zap.String("request_id", requestID))
	return nil
}

// GetImageByID implements interfaces.ImageRepository.
func (r *ImageRepository) GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error) {
	const operation = "postgres.ImageRepository.GetImageByID"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))

	const query = `
		SELECT id, original_url, processed_url, file_size, mime_type, width, height, source_service, source_reference, uploaded_at
		FROM images WHERE id = $1`

	var img entities.Image
	err := r.db.QueryRow(ctx, query, imageID).Scan(
		&img.ID, &img.OriginalURL, &img.ProcessedURL, &img.FileSize, &img.MimeType,
		&img.Width, &img.Height, &img.SourceService, &img.SourceReference, &img.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("image not found", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))
			return nil, domain.NewNotFoundError("image", imageID.String())
		}
		r.logger.Error("DB error in GetImageByID", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, domain.NewInternalError(fmt.Sprintf("%s: SELECT FROM images (id=%s)", operation, imageID), err)
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))
	return &img, nil
}

// UpdateImage implements interfaces.ImageRepository. The only field C5 ever
// sets after creation is ProcessedURL (spec §3 ownership rule).
func (r *ImageRepository) UpdateImage(ctx context.Context, imageID uuid.UUID, patch interfaces.ImagePatch) error {
	const operation = "postgres.ImageRepository.UpdateImage"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))

	const query = `UPDATE images SET processed_url = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, imageID, patch.ProcessedURL)
	if err != nil {
		r.logger.Error("DB error in UpdateImage", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return domain.NewInternalError(fmt.Sprintf("%s: UPDATE images (id=%s)", operation, imageID), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("image", imageID.String())
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))
	return nil
}

// DeleteImage implements interfaces.ImageRepository.
func (r *ImageRepository) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	const operation = "postgres.ImageRepository.DeleteImage"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))

	_, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, imageID)
	if err != nil {
		r.logger.Error("DB error in DeleteImage", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return domain.NewInternalError(fmt.Sprintf("%s: DELETE FROM images (id=%s)", operation, imageID), err)
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("image_id", imageID.String()), zap.String("request_id", requestID))
	return nil
}

// BeginTx implements interfaces.Repository.
func (r *ImageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}
