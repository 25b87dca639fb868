// internal/domain/services/recognition_processor.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/engines"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/imaging"
	"github.com/stackvity/receipt-gateway/internal/qr"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ocrAttempt is one entry in the fixed fallback chain of spec §4.5 step 4.
type ocrAttempt struct {
	engine     entities.Engine
	buf        []byte
	recognizer engines.TextRecognizer
}

// RecognitionProcessor implements C5: the dequeue -> align -> QR ->
// OCR-fallback -> persist -> publish state machine. A single instance is
// shared across a worker process's executor goroutines; it holds no
// per-job state beyond its injected dependencies and the fleet-wide rate
// limiter.
type RecognitionProcessor struct {
	imageRepo       interfaces.ImageRepository
	recognitionRepo interfaces.RecognitionRepository
	blobStore       storage.BlobStore
	cache           cache.Cache

	aligner   engines.ImageAligner
	tesseract engines.TextRecognizer
	paddleocr engines.TextRecognizer

	publisher events.Publisher
	limiter   *rate.Limiter

	confidenceHigh float64
	confidenceLow  float64

	logger *zap.Logger
}

// NewRecognitionProcessor creates a new RecognitionProcessor instance.
// limiter is an in-process limiter shared by every executor goroutine of
// this worker process; separate worker processes each hold their own, so
// the cap is not coordinated across processes.
func NewRecognitionProcessor(
	imageRepo interfaces.ImageRepository,
	recognitionRepo interfaces.RecognitionRepository,
	blobStore storage.BlobStore,
	c cache.Cache,
	aligner engines.ImageAligner,
	tesseract engines.TextRecognizer,
	paddleocr engines.TextRecognizer,
	publisher events.Publisher,
	limiter *rate.Limiter,
	confidenceHigh, confidenceLow float64,
	logger *zap.Logger,
) *RecognitionProcessor {
	return &RecognitionProcessor{
		imageRepo:       imageRepo,
		recognitionRepo: recognitionRepo,
		blobStore:       blobStore,
		cache:           c,
		aligner:         aligner,
		tesseract:       tesseract,
		paddleocr:       paddleocr,
		publisher:       publisher,
		limiter:         limiter,
		confidenceHigh:  confidenceHigh,
		confidenceLow:   confidenceLow,
		logger:          logger.Named("RecognitionProcessor"),
	}
}

// ProcessJob drives one Job through the state machine of spec §4.5. The
// returned error, if non-nil, should be surfaced to the queue as a Nack so
// the configured retry policy applies. When the error comes from the
// pipeline (steps 1-4), failJob has already attempted to write
// status=failed and publish ocr.failed; an error from the rate limiter or
// from the processing-status write is returned without either.
func (p *RecognitionProcessor) ProcessJob(ctx context.Context, job *entities.Job, queueWaitTime time.Duration) error {
	const operation = "RecognitionProcessor.ProcessJob"
	requestID := utils.GetRequestID(ctx)
	start := time.Now()

	if err := p.limiter.Wait(ctx); err != nil {
		return domain.NewInternalError("rate limiter wait interrupted", err)
	}

	p.logger.Info("processing job", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("recognition_id", job.RecognitionID.String()))

	queueWaitMS := queueWaitTime.Milliseconds()
	if err := p.recognitionRepo.UpdateRecognition(ctx, job.RecognitionID, interfaces.RecognitionPatch{
		Status:        entities.StatusProcessing,
		QueueWaitTime: &queueWaitMS,
	}); err != nil {
		return domain.NewInternalError("failed to write processing status", err)
	}
	p.publisher.Publish(ctx, events.NewProcessingEvent(job))

	result, procErr := p.runPipeline(ctx, job, start)
	if procErr != nil {
		return p.failJob(ctx, job, start, procErr)
	}

	p.publisher.Publish(ctx, result)
	return nil
}

// runPipeline executes steps 1-4 and performs the terminal persist on
// success, returning the ocr.completed event for ProcessJob to publish.
// Any error it returns terminates the job as failed: step 1 NOT_FOUND,
// step 4 all-engines-failed, or a failure loading the original bytes or
// writing/reloading the completed record.
func (p *RecognitionProcessor) runPipeline(ctx context.Context, job *entities.Job, start time.Time) (*events.Event, error) {
	const operation = "RecognitionProcessor.runPipeline"
	requestID := utils.GetRequestID(ctx)

	// 1. Load.
	image, err := p.imageRepo.GetImageByID(ctx, job.ImageID)
	if err != nil {
		return nil, err
	}
	original, err := p.loadOriginalBytes(ctx, image)
	if err != nil {
		return nil, domain.NewInternalError("failed to load original image bytes", err)
	}

	// 2. Align (recoverable locally on failure).
	warped, preprocessed := p.align(ctx, job, image, original)

	// 3. QR attempt (silently recovered on failure).
	if decoded, ok := qr.SelectFromBuffers(warped, preprocessed); ok {
		if qrFormatAccepted(job.AcceptedQRFormats, decoded.Format) {
			return p.completeWithQR(ctx, job, start, decoded)
		}
		p.logger.Debug("QR decoded but filtered out, proceeding to OCR", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("recognition_id", job.RecognitionID.String()), zap.String("qr_format", string(decoded.Format)))
	}

	// 4. OCR fallback chain.
	chain := []ocrAttempt{
		{entities.EngineTesseract, preprocessed, p.tesseract},
		{entities.EnginePaddleOCR, preprocessed, p.paddleocr},
		{entities.EnginePaddleOCR, warped, p.paddleocr},
	}

	var lastResult *engines.RecognizeResult
	var lastEngine entities.Engine

	for _, attempt := range chain {
		res, err := attempt.recognizer.Recognize(ctx, attempt.buf)
		if err != nil {
			p.logger.Warn("OCR attempt failed, skipping", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("engine", string(attempt.engine)), zap.Error(err))
			continue
		}
		r := res
		lastResult = &r
		lastEngine = attempt.engine

		// T_low is the chain's acceptance threshold; T_high is preserved as
		// a configured knob but never raises the bar above T_low — any
		// confidence clearing T_high necessarily clears T_low too, so no
		// separate branch is needed (spec §9 open question).
		if res.Confidence >= p.confidenceLow {
			return p.completeWithText(ctx, job, start, lastEngine, res)
		}
	}

	if lastResult != nil {
		return p.completeWithText(ctx, job, start, lastEngine, *lastResult)
	}

	return nil, domain.NewInternalError("all ocr engines failed", fmt.Errorf("tesseract and paddleocr both failed for recognition %s", job.RecognitionID))
}

func (p *RecognitionProcessor) loadOriginalBytes(ctx context.Context, image *entities.Image) ([]byte, error) {
	key := cache.ImageBytesKey(image.ID.String())
	if data, ok, err := p.cache.GetBinary(ctx, key); err == nil && ok {
		return data, nil
	}
	return p.blobStore.Get(ctx, keyFromBlobURL(image.OriginalURL))
}

// align implements step 2. On aligner failure it degrades to the original
// bytes plus a locally computed preprocessed variant and leaves the
// Image's processedUrl untouched.
func (p *RecognitionProcessor) align(ctx context.Context, job *entities.Job, image *entities.Image, original []byte) (warped, preprocessed []byte) {
	const operation = "RecognitionProcessor.align"
	requestID := utils.GetRequestID(ctx)

	result, err := p.aligner.Align(ctx, original, engines.AlignOptions{Mode: engines.AlignModeClassic, ApplyOCRPrep: false})
	if err != nil {
		p.logger.Warn("aligner failed, degrading to local preprocessing", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("recognition_id", job.RecognitionID.String()), zap.Error(err))

		local, localErr := imaging.Preprocess(original)
		if localErr != nil {
			p.logger.Error("local preprocessing also failed, using original bytes", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(localErr))
			local = original
		}
		return original, local
	}

	nanoid, err := utils.GenerateNanoID(21)
	if err == nil {
		key := fmt.Sprintf("%s-processed.jpg", nanoid)
		if url, putErr := p.blobStore.Put(ctx, key, bytes.NewReader(result.Warped), "image/jpeg"); putErr == nil {
			if updateErr := p.imageRepo.UpdateImage(ctx, image.ID, interfaces.ImagePatch{ProcessedURL: &url}); updateErr != nil {
				p.logger.Warn("failed to persist processedUrl", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(updateErr))
			}
		} else {
			p.logger.Warn("failed to upload warped variant", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(putErr))
		}
	}

	return result.Warped, result.Preprocessed
}

func qrFormatAccepted(accepted []entities.QRFormat, format entities.QRFormat) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, f := range accepted {
		if f == format {
			return true
		}
	}
	return false
}

func (p *RecognitionProcessor) completeWithQR(ctx context.Context, job *entities.Job, start time.Time, decoded qr.Decoded) (*events.Event, error) {
	processingTime := time.Since(start).Milliseconds()
	resultType := entities.ResultTypeQR
	qrData := decoded.Data
	qrFormat := decoded.Format
	location := decoded.Location

	patch := interfaces.RecognitionPatch{
		Status:         entities.StatusCompleted,
		ResultType:     &resultType,
		QRData:         &qrData,
		QRFormat:       &qrFormat,
		QRLocation:     &location,
		ProcessingTime: &processingTime,
		CompletedAt:    true,
	}
	if err := p.recognitionRepo.UpdateRecognition(ctx, job.RecognitionID, patch); err != nil {
		return nil, domain.NewInternalError("failed to write completed (qr) recognition", err)
	}

	rec, err := p.recognitionRepo.GetRecognitionByID(ctx, job.RecognitionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to reload completed recognition", err)
	}
	return events.NewCompletedEvent(rec), nil
}

func (p *RecognitionProcessor) completeWithText(ctx context.Context, job *entities.Job, start time.Time, engine entities.Engine, res engines.RecognizeResult) (*events.Event, error) {
	processingTime := time.Since(start).Milliseconds()
	resultType := entities.ResultTypeText
	rawText := res.Text
	confidence := roundTo2(res.Confidence)
	aligned := true // the OCR chain always runs on an aligned/preprocessed buffer (spec §9 open question)

	patch := interfaces.RecognitionPatch{
		Status:         entities.StatusCompleted,
		ResultType:     &resultType,
		RawText:        &rawText,
		Confidence:     &confidence,
		Engine:         &engine,
		Aligned:        &aligned,
		ProcessingTime: &processingTime,
		CompletedAt:    true,
	}
	if err := p.recognitionRepo.UpdateRecognition(ctx, job.RecognitionID, patch); err != nil {
		return nil, domain.NewInternalError("failed to write completed (text) recognition", err)
	}

	rec, err := p.recognitionRepo.GetRecognitionByID(ctx, job.RecognitionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to reload completed recognition", err)
	}
	return events.NewCompletedEvent(rec), nil
}

// failJob implements step 5: write the Recognition to failed, publish
// ocr.failed, and return the original error so the caller re-raises it to
// the queue.
func (p *RecognitionProcessor) failJob(ctx context.Context, job *entities.Job, start time.Time, cause error) error {
	const operation = "RecognitionProcessor.failJob"
	requestID := utils.GetRequestID(ctx)

	processingTime := time.Since(start).Milliseconds()
	message := cause.Error()

	patch := interfaces.RecognitionPatch{
		Status:         entities.StatusFailed,
		Error:          &message,
		ProcessingTime: &processingTime,
		CompletedAt:    true,
	}
	if err := p.recognitionRepo.UpdateRecognition(ctx, job.RecognitionID, patch); err != nil {
		p.logger.Error("failed to persist failed status", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("recognition_id", job.RecognitionID.String()), zap.Error(err))
		return cause
	}

	rec, err := p.recognitionRepo.GetRecognitionByID(ctx, job.RecognitionID)
	if err != nil {
		p.logger.Error("failed to reload failed recognition for event", zap.String("operation", operation), zap.String("request_id", requestID), zap.Error(err))
		return cause
	}
	p.publisher.Publish(ctx, events.NewFailedEvent(rec))

	return cause
}

func keyFromBlobURL(url string) string {
	trimmed := strings.TrimPrefix(url, "blob://")
	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
