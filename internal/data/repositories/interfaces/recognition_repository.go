// internal/data/repositories/interfaces/recognition_repository.go
package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
)

// RecognitionPatch carries the fields a processor transition may set.
// Status is always present; the remaining fields are populated according
// to which transition is being applied (processing / completed / failed).
type RecognitionPatch struct {
	Status RecognitionStatusPatch

	ResultType *entities.ResultType

	RawText    *string
	Confidence *float64
	Engine     *entities.Engine
	Aligned    *bool

	QRData     *string
	QRFormat   *entities.QRFormat
	QRLocation *entities.QRLocation

	ProcessingTime *int64
	QueueWaitTime  *int64
	AttemptNumber  *int

	Error *string

	CompletedAt bool // if true, set completed_at = now() in the same write
}

// RecognitionStatusPatch is a type alias of entities.RecognitionStatus
// (the same type); its zero value ("") is not one of the real statuses.
type RecognitionStatusPatch = entities.RecognitionStatus

// RecognitionRepository defines read/write access to the
// recognition_results table. The Recognition Processor is the only
// mutator of a row after CreateRecognition; repeated terminal writes for
// the same id (queue retries) must be idempotent, which UpdateRecognition
// achieves by being a plain column overwrite keyed by id.
type RecognitionRepository interface {
	Repository

	CreateRecognition(ctx context.Context, recognition *entities.Recognition) error
	GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error)
	UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch RecognitionPatch) error
}
