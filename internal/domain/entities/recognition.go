// internal/domain/entities/recognition.go
package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecognitionStatus is the state machine driven exclusively by the
// Recognition Processor: queued -> processing -> {completed | failed}.
type RecognitionStatus string

const (
	StatusQueued     RecognitionStatus = "queued"
	StatusProcessing RecognitionStatus = "processing"
	StatusCompleted  RecognitionStatus = "completed"
	StatusFailed     RecognitionStatus = "failed"
)

// ResultType distinguishes a QR decode from an OCR text result. Nil until
// a Recognition reaches status=completed.
type ResultType string

const (
	ResultTypeText ResultType = "text"
	ResultTypeQR   ResultType = "qr"
)

// Engine identifies which OCR backend produced a text result.
type Engine string

const (
	EngineTesseract  Engine = "tesseract"
	EnginePaddleOCR  Engine = "paddleocr"
)

// QRFormat classifies a decoded QR payload.
type QRFormat string

const (
	QRFormatFiscal  QRFormat = "fiscal"
	QRFormatURL     QRFormat = "url"
	QRFormatUnknown QRFormat = "unknown"
)

// QRLocation is the pixel bounding box a QR code was decoded from.
type QRLocation struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Recognition is the persistent record of one recognition attempt against
// one Image. Only the Recognition Processor mutates a row after creation;
// the queue's at-least-once delivery means the same terminal write may be
// applied more than once, which must be (and is) idempotent.
type Recognition struct {
	ID     uuid.UUID
	ImageID uuid.UUID

	Status RecognitionStatus

	ResultType *ResultType

	// Text result fields, set iff ResultType == ResultTypeText.
	RawText    *string
	Confidence *float64
	Engine     *Engine
	Aligned    *bool

	// QR result fields, set iff ResultType == ResultTypeQR.
	QRData     *string
	QRFormat   *QRFormat
	QRLocation *QRLocation

	ProcessingTime *int64 // ms, dequeue to terminal transition
	QueueWaitTime  *int64 // ms, enqueue to dequeue
	AttemptNumber  int

	Error *string

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// IsTerminal reports whether status is a terminal state of the machine.
func (r *Recognition) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Job is the enqueued envelope referencing one Recognition attempt. It is
// not persisted by the processor — the queue owns its lifecycle.
type Job struct {
	ImageID          uuid.UUID
	RecognitionID    uuid.UUID
	SourceService    *string
	SourceReference  *string
	AcceptedQRFormats []QRFormat
	EnqueuedAt       time.Time
}
