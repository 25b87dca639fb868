// internal/events/events_test.go
package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
)

func sampleJob() *entities.Job {
	svc := "pos-terminal-7"
	ref := "txn-42"
	return &entities.Job{
		ImageID:         uuid.New(),
		RecognitionID:   uuid.New(),
		SourceService:   &svc,
		SourceReference: &ref,
		EnqueuedAt:      time.Now(),
	}
}

func TestNewQueuedEvent(t *testing.T) {
	job := sampleJob()
	ev := NewQueuedEvent(job, 3)

	if ev.Kind != KindQueued {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindQueued)
	}
	if ev.Position != 3 {
		t.Errorf("Position = %d, want 3", ev.Position)
	}
	if ev.EstimatedWait != 45 {
		t.Errorf("EstimatedWait = %d, want 45 (position*15)", ev.EstimatedWait)
	}
	if ev.ImageID != job.ImageID || ev.RecognitionID != job.RecognitionID {
		t.Error("queued event did not carry over image/recognition ids")
	}
}

func TestNewProcessingEvent(t *testing.T) {
	job := sampleJob()
	ev := NewProcessingEvent(job)

	if ev.Kind != KindProcessing {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindProcessing)
	}
	if ev.RecognitionID != job.RecognitionID {
		t.Error("processing event lost recognition id")
	}
}

func TestNewCompletedEvent_TextResult(t *testing.T) {
	text := "TOTAL 12.34"
	resultType := entities.ResultTypeText
	pt := int64(842)
	rec := &entities.Recognition{
		ID:             uuid.New(),
		ImageID:        uuid.New(),
		ResultType:     &resultType,
		RawText:        &text,
		ProcessingTime: &pt,
	}

	ev := NewCompletedEvent(rec)
	if ev.Kind != KindCompleted {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindCompleted)
	}
	if ev.Text == nil || *ev.Text != text {
		t.Errorf("Text = %v, want %q", ev.Text, text)
	}
	if ev.QR != nil {
		t.Error("text result should not populate QR")
	}
	if ev.ProcessingTime == nil || *ev.ProcessingTime != pt {
		t.Errorf("ProcessingTime = %v, want %d", ev.ProcessingTime, pt)
	}
}

func TestNewCompletedEvent_QRResult(t *testing.T) {
	qrData := "https://example.com/r/9"
	format := entities.QRFormatURL
	resultType := entities.ResultTypeQR
	rec := &entities.Recognition{
		ID:         uuid.New(),
		ImageID:    uuid.New(),
		ResultType: &resultType,
		QRData:     &qrData,
		QRFormat:   &format,
	}

	ev := NewCompletedEvent(rec)
	if ev.QR == nil {
		t.Fatal("qr result should populate QR")
	}
	if ev.QR.Data != qrData || ev.QR.Format != format {
		t.Errorf("QR payload = %+v, want data=%q format=%q", ev.QR, qrData, format)
	}
	if ev.Text != nil {
		t.Error("qr result should not populate Text")
	}
}

func TestNewFailedEvent(t *testing.T) {
	errMsg := "backend timeout exceeded"
	rec := &entities.Recognition{
		ID:      uuid.New(),
		ImageID: uuid.New(),
		Error:   &errMsg,
	}

	ev := NewFailedEvent(rec)
	if ev.Kind != KindFailed {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindFailed)
	}
	if ev.Error != errMsg {
		t.Errorf("Error = %q, want %q", ev.Error, errMsg)
	}
}

func TestNewFailedEvent_NilError(t *testing.T) {
	rec := &entities.Recognition{ID: uuid.New(), ImageID: uuid.New()}
	ev := NewFailedEvent(rec)
	if ev.Error != "" {
		t.Errorf("Error = %q, want empty string for nil rec.Error", ev.Error)
	}
}
