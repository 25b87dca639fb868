// internal/data/repositories/postgres/recognition_repository.go
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

var _ interfaces.RecognitionRepository = (*RecognitionRepository)(nil)

// RecognitionRepository implements interfaces.RecognitionRepository
// directly over pgx/v5, in the same style as ImageRepository.
type RecognitionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewRecognitionRepository creates a new RecognitionRepository instance.
func NewRecognitionRepository(db *pgxpool.Pool, logger *zap.Logger) *RecognitionRepository {
	return &RecognitionRepository{db: db, logger: logger.Named("RecognitionRepository")}
}

// CreateRecognition implements interfaces.RecognitionRepository. C4 always
// creates a Recognition with status=queued (spec §4.4 step 4).
func (r *RecognitionRepository) CreateRecognition(ctx context.Context, rec *entities.Recognition) error {
	const operation = "postgres.RecognitionRepository.CreateRecognition"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("recognition_id", rec.ID.String()), zap.String("request_id", requestID))

	const query = `
		INSERT INTO recognition_results
			(id, image_id, status, attempt_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, rec.ID, rec.ImageID, rec.Status, rec.AttemptNumber, rec.CreatedAt)
	if err != nil {
		r.logger.Error("DB error in CreateRecognition", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return domain.NewInternalError(fmt.Sprintf("%s: INSERT INTO recognition_results (id=%s)", operation, rec.ID), err)
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("recognition_id", rec.ID.String()), zap.String("request_id", requestID))
	return nil
}

// GetRecognitionByID implements interfaces.RecognitionRepository.
func (r *RecognitionRepository) GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error) {
	const operation = "postgres.RecognitionRepository.GetRecognitionByID"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("recognition_id", recognitionID.String()), zap.String("request_id", requestID))

	const query = `
		SELECT id, image_id, status, result_type, raw_text, confidence, engine, aligned,
		       qr_data, qr_format, qr_x, qr_y, qr_width, qr_height,
		       processing_time, queue_wait_time, attempt_number, error, created_at, completed_at
		FROM recognition_results WHERE id = $1`

	var rec entities.Recognition
	var qrX, qrY, qrW, qrH *int
	err := r.db.QueryRow(ctx, query, recognitionID).Scan(
		&rec.ID, &rec.ImageID, &rec.Status, &rec.ResultType, &rec.RawText, &rec.Confidence, &rec.Engine, &rec.Aligned,
		&rec.QRData, &rec.QRFormat, &qrX, &qrY, &qrW, &qrH,
		&rec.ProcessingTime, &rec.QueueWaitTime, &rec.AttemptNumber, &rec.Error, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("recognition not found", zap.String("operation", operation), zap.String("recognition_id", recognitionID.String()), zap.String("request_id", requestID))
			return nil, domain.NewNotFoundError("recognition", recognitionID.String())
		}
		r.logger.Error("DB error in GetRecognitionByID", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return nil, domain.NewInternalError(fmt.Sprintf("%s: SELECT FROM recognition_results (id=%s)", operation, recognitionID), err)
	}
	if qrX != nil && qrY != nil && qrW != nil && qrH != nil {
		rec.QRLocation = &entities.QRLocation{X: *qrX, Y: *qrY, Width: *qrW, Height: *qrH}
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("recognition_id", recognitionID.String()), zap.String("request_id", requestID))
	return &rec, nil
}

// UpdateRecognition implements interfaces.RecognitionRepository. This is
// the sole mutation path for a Recognition after creation; because it is a
// plain column overwrite keyed by id, applying the same terminal patch
// twice (a queue retry re-delivering a job already written to a terminal
// state) is safe — spec §5's idempotence requirement.
func (r *RecognitionRepository) UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch interfaces.RecognitionPatch) error {
	const operation = "postgres.RecognitionRepository.UpdateRecognition"
	requestID := utils.GetRequestID(ctx)
	r.logger.Debug("starting DB operation", zap.String("operation", operation), zap.String("recognition_id", recognitionID.String()), zap.String("request_id", requestID))

	var qrX, qrY, qrW, qrH *int
	if patch.QRLocation != nil {
		qrX, qrY, qrW, qrH = &patch.QRLocation.X, &patch.QRLocation.Y, &patch.QRLocation.Width, &patch.QRLocation.Height
	}

	const query = `
		UPDATE recognition_results SET
			status = $2, result_type = $3, raw_text = $4, confidence = $5, engine = $6, aligned = $7,
			qr_data = $8, qr_format = $9, qr_x = $10, qr_y = $11, qr_width = $12, qr_height = $13,
			processing_time = $14, queue_wait_time = $15, attempt_number = COALESCE($16, attempt_number),
			error = $17, completed_at = CASE WHEN $18 THEN now() ELSE completed_at END
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		recognitionID, patch.Status, patch.ResultType, patch.RawText, patch.Confidence, patch.Engine, patch.Aligned,
		patch.QRData, patch.QRFormat, qrX, qrY, qrW, qrH,
		patch.ProcessingTime, patch.QueueWaitTime, patch.AttemptNumber,
		patch.Error, patch.CompletedAt,
	)
	if err != nil {
		r.logger.Error("DB error in UpdateRecognition", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return domain.NewInternalError(fmt.Sprintf("%s: UPDATE recognition_results (id=%s)", operation, recognitionID), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("recognition", recognitionID.String())
	}

	r.logger.Debug("DB operation completed", zap.String("operation", operation), zap.String("recognition_id", recognitionID.String()), zap.String("request_id", requestID))
	return nil
}

// BeginTx implements interfaces.Repository.
func (r *RecognitionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}
