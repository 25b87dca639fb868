// internal/events/events.go
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
)

// Channel is the named pub/sub channel C3 publishes on (spec §6).
const Channel = "ocr:events"

// Kind tags the closed union of lifecycle event payloads.
type Kind string

const (
	KindQueued     Kind = "ocr.queued"
	KindProcessing Kind = "ocr.processing"
	KindCompleted  Kind = "ocr.completed"
	KindFailed     Kind = "ocr.failed"
)

// Event is the envelope published on Channel. Only the fields relevant to
// Kind are populated; the rest are left at their zero value.
type Event struct {
	Kind      Kind      `json:"event"`
	Timestamp int64     `json:"timestamp"` // unix ms

	ImageID         uuid.UUID `json:"imageId"`
	RecognitionID   uuid.UUID `json:"recognitionId"`
	SourceService   *string   `json:"sourceService,omitempty"`
	SourceReference *string   `json:"sourceReference,omitempty"`

	// ocr.queued only.
	Position      int `json:"position,omitempty"`
	EstimatedWait int `json:"estimatedWait,omitempty"` // seconds

	// ocr.completed only.
	ResultType     *entities.ResultType `json:"resultType,omitempty"`
	Text           *string              `json:"text,omitempty"`
	QR             *QRPayload           `json:"qr,omitempty"`
	ProcessingTime *int64               `json:"processingTime,omitempty"`

	// ocr.failed only.
	Error string `json:"error,omitempty"`
}

// QRPayload is the nested qr object on a completed event with resultType=qr.
type QRPayload struct {
	Data     string                `json:"data"`
	Format   entities.QRFormat     `json:"format"`
	Location *entities.QRLocation `json:"location,omitempty"`
}

// NewQueuedEvent builds an ocr.queued event. estimatedWait is position x 15s
// per spec §4.3.
func NewQueuedEvent(job *entities.Job, position int) *Event {
	return &Event{
		Kind:            KindQueued,
		Timestamp:       nowMillis(),
		ImageID:         job.ImageID,
		RecognitionID:   job.RecognitionID,
		SourceService:   job.SourceService,
		SourceReference: job.SourceReference,
		Position:        position,
		EstimatedWait:   position * 15,
	}
}

// NewProcessingEvent builds an ocr.processing event emitted on dequeue.
func NewProcessingEvent(job *entities.Job) *Event {
	return &Event{
		Kind:            KindProcessing,
		Timestamp:       nowMillis(),
		ImageID:         job.ImageID,
		RecognitionID:   job.RecognitionID,
		SourceService:   job.SourceService,
		SourceReference: job.SourceReference,
	}
}

// NewCompletedEvent builds an ocr.completed event from a terminal Recognition.
func NewCompletedEvent(rec *entities.Recognition) *Event {
	ev := &Event{
		Kind:           KindCompleted,
		Timestamp:      nowMillis(),
		ImageID:        rec.ImageID,
		RecognitionID:  rec.ID,
		ResultType:     rec.ResultType,
		ProcessingTime: rec.ProcessingTime,
	}
	if rec.ResultType != nil && *rec.ResultType == entities.ResultTypeText {
		ev.Text = rec.RawText
	}
	if rec.ResultType != nil && *rec.ResultType == entities.ResultTypeQR && rec.QRFormat != nil {
		ev.QR = &QRPayload{Data: derefStr(rec.QRData), Format: *rec.QRFormat, Location: rec.QRLocation}
	}
	return ev
}

// NewFailedEvent builds an ocr.failed event from a failed Recognition.
func NewFailedEvent(rec *entities.Recognition) *Event {
	return &Event{
		Kind:          KindFailed,
		Timestamp:     nowMillis(),
		ImageID:       rec.ImageID,
		RecognitionID: rec.ID,
		Error:         derefStr(rec.Error),
	}
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
