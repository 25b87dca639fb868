// internal/domain/services/recognition_processor_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/engines"
	"github.com/stackvity/receipt-gateway/internal/events"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// --- additional fakes specific to the processor ---

type fakeAligner struct {
	result AlignResultOrErr
}

type AlignResultOrErr struct {
	res engines.AlignResult
	err error
}

func (f *fakeAligner) Align(ctx context.Context, buf []byte, opts engines.AlignOptions) (engines.AlignResult, error) {
	return f.result.res, f.result.err
}

type fakeRecognizer struct {
	result engines.RecognizeResult
	err    error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, buf []byte) (engines.RecognizeResult, error) {
	return f.result, f.err
}

type fakeImageRepoForProcessor struct {
	fakeImageRepo
	image *entities.Image
}

func (f *fakeImageRepoForProcessor) GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error) {
	return f.image, nil
}

type fakeRecognitionRepoForProcessor struct {
	recognition *entities.Recognition
	updateErr   error
	updated     []interfaces.RecognitionPatch
}

func (f *fakeRecognitionRepoForProcessor) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (f *fakeRecognitionRepoForProcessor) CreateRecognition(ctx context.Context, recognition *entities.Recognition) error {
	return nil
}
func (f *fakeRecognitionRepoForProcessor) GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error) {
	return f.recognition, nil
}
func (f *fakeRecognitionRepoForProcessor) UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch interfaces.RecognitionPatch) error {
	f.updated = append(f.updated, patch)
	if f.updateErr != nil {
		return f.updateErr
	}
	// simulate the store applying the patch onto the projection GetRecognitionByID returns
	if patch.Status != "" {
		f.recognition.Status = patch.Status
	}
	if patch.ResultType != nil {
		f.recognition.ResultType = patch.ResultType
	}
	if patch.RawText != nil {
		f.recognition.RawText = patch.RawText
	}
	if patch.Confidence != nil {
		f.recognition.Confidence = patch.Confidence
	}
	if patch.Engine != nil {
		f.recognition.Engine = patch.Engine
	}
	if patch.QRData != nil {
		f.recognition.QRData = patch.QRData
	}
	if patch.QRFormat != nil {
		f.recognition.QRFormat = patch.QRFormat
	}
	if patch.Error != nil {
		f.recognition.Error = patch.Error
	}
	return nil
}

func newTestProcessor(aligner engines.ImageAligner, tesseract, paddleocr engines.TextRecognizer, imageRepo interfaces.ImageRepository, recRepo interfaces.RecognitionRepository) (*RecognitionProcessor, *fakeCache, *fakeBlobStore, *fakePublisher) {
	c := &fakeCache{}
	blob := &fakeBlobStore{}
	pub := &fakePublisher{}
	limiter := rate.NewLimiter(rate.Inf, 1)
	p := NewRecognitionProcessor(imageRepo, recRepo, blob, c, aligner, tesseract, paddleocr, pub, limiter, 0.9, 0.6, zap.NewNop())
	return p, c, blob, pub
}

func sampleImage() *entities.Image {
	return &entities.Image{ID: uuid.New(), OriginalURL: "blob://receipts/abc-original.jpg", MimeType: entities.MimeTypeJPEG}
}

func sampleJobForProcessor(image *entities.Image) *entities.Job {
	return &entities.Job{ImageID: image.ID, RecognitionID: uuid.New(), EnqueuedAt: time.Now()}
}

func TestProcessJob_TesseractHighConfidence_CompletesWithText(t *testing.T) {
	image := sampleImage()
	job := sampleJobForProcessor(image)
	imageRepo := &fakeImageRepoForProcessor{image: image}
	recRepo := &fakeRecognitionRepoForProcessor{recognition: &entities.Recognition{ID: job.RecognitionID, ImageID: image.ID, Status: entities.StatusProcessing}}

	aligner := &fakeAligner{result: AlignResultOrErr{err: errors.New("aligner unreachable")}}
	tesseract := &fakeRecognizer{result: engines.RecognizeResult{Text: "TOTAL 9.99", Confidence: 0.95}}
	paddleocr := &fakeRecognizer{result: engines.RecognizeResult{Text: "should not be reached", Confidence: 0.99}}

	p, c, _, pub := newTestProcessor(aligner, tesseract, paddleocr, imageRepo, recRepo)
	c.setErr = nil

	err := p.ProcessJob(context.Background(), job, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recRepo.recognition.Status != entities.StatusCompleted {
		t.Errorf("Status = %q, want completed", recRepo.recognition.Status)
	}
	if recRepo.recognition.Engine == nil || *recRepo.recognition.Engine != entities.EngineTesseract {
		t.Errorf("expected tesseract to win on first high-confidence hit, got %v", recRepo.recognition.Engine)
	}
	if len(pub.published) == 0 || pub.published[len(pub.published)-1].Kind != events.KindCompleted {
		t.Error("expected a final ocr.completed publish")
	}
}

func TestProcessJob_TesseractLowConfidence_FallsBackToPaddleOCR(t *testing.T) {
	image := sampleImage()
	job := sampleJobForProcessor(image)
	imageRepo := &fakeImageRepoForProcessor{image: image}
	recRepo := &fakeRecognitionRepoForProcessor{recognition: &entities.Recognition{ID: job.RecognitionID, ImageID: image.ID}}

	aligner := &fakeAligner{result: AlignResultOrErr{res: engines.AlignResult{Warped: []byte("warped"), Preprocessed: []byte("preprocessed")}}}
	tesseract := &fakeRecognizer{result: engines.RecognizeResult{Text: "blurry", Confidence: 0.2}}
	paddleocr := &fakeRecognizer{result: engines.RecognizeResult{Text: "TOTAL 9.99", Confidence: 0.8}}

	p, _, _, _ := newTestProcessor(aligner, tesseract, paddleocr, imageRepo, recRepo)

	if err := p.ProcessJob(context.Background(), job, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recRepo.recognition.Engine == nil || *recRepo.recognition.Engine != entities.EnginePaddleOCR {
		t.Errorf("expected paddleocr to win after tesseract's low confidence, got %v", recRepo.recognition.Engine)
	}
}

func TestProcessJob_AllEnginesFail_FailsJob(t *testing.T) {
	image := sampleImage()
	job := sampleJobForProcessor(image)
	imageRepo := &fakeImageRepoForProcessor{image: image}
	recRepo := &fakeRecognitionRepoForProcessor{recognition: &entities.Recognition{ID: job.RecognitionID, ImageID: image.ID}}

	aligner := &fakeAligner{result: AlignResultOrErr{res: engines.AlignResult{Warped: []byte("warped"), Preprocessed: []byte("preprocessed")}}}
	tesseract := &fakeRecognizer{err: errors.New("tesseract down")}
	paddleocr := &fakeRecognizer{err: errors.New("paddleocr down")}

	p, _, _, pub := newTestProcessor(aligner, tesseract, paddleocr, imageRepo, recRepo)

	err := p.ProcessJob(context.Background(), job, 0)
	if err == nil {
		t.Fatal("expected an error when every OCR engine fails")
	}
	if recRepo.recognition.Status != entities.StatusFailed {
		t.Errorf("Status = %q, want failed", recRepo.recognition.Status)
	}
	if len(pub.published) == 0 || pub.published[len(pub.published)-1].Kind != events.KindFailed {
		t.Error("expected a final ocr.failed publish")
	}
}

func TestProcessJob_LowConfidenceAllAttempts_UsesLastResult(t *testing.T) {
	image := sampleImage()
	job := sampleJobForProcessor(image)
	imageRepo := &fakeImageRepoForProcessor{image: image}
	recRepo := &fakeRecognitionRepoForProcessor{recognition: &entities.Recognition{ID: job.RecognitionID, ImageID: image.ID}}

	aligner := &fakeAligner{result: AlignResultOrErr{res: engines.AlignResult{Warped: []byte("warped"), Preprocessed: []byte("preprocessed")}}}
	tesseract := &fakeRecognizer{result: engines.RecognizeResult{Text: "weak", Confidence: 0.1}}
	paddleocr := &fakeRecognizer{result: engines.RecognizeResult{Text: "still weak", Confidence: 0.3}}

	p, _, _, _ := newTestProcessor(aligner, tesseract, paddleocr, imageRepo, recRepo)

	if err := p.ProcessJob(context.Background(), job, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// three attempts run (preprocessed/tesseract, preprocessed/paddleocr,
	// warped/paddleocr); the last one tried (paddleocr on warped) should be
	// the retained result since none clears confidenceLow.
	if recRepo.recognition.Status != entities.StatusCompleted {
		t.Errorf("Status = %q, want completed (best-effort on exhausted chain)", recRepo.recognition.Status)
	}
	if recRepo.recognition.RawText == nil || *recRepo.recognition.RawText != "still weak" {
		t.Errorf("RawText = %v, want the last attempted engine's text", recRepo.recognition.RawText)
	}
}
