// internal/domain/errors.go
package domain

import (
	"fmt"

	"go.uber.org/zap"
)

// NotFoundError is returned when a requested Image or Recognition id is
// unknown to the metadata store.
type NotFoundError struct {
	Resource string
	ID       string
	logger   *zap.Logger
}

func (e *NotFoundError) Error() string {
	if e.logger != nil {
		e.logger.Debug("not found error", zap.String("resource", e.Resource), zap.String("id", e.ID))
	}
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) SetLogger(logger *zap.Logger) { e.logger = logger }

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError represents a caller-reported 4xx error: bad MIME, oversized
// image, or an unrecognized QR-format filter. No state is created for these.
type ValidationError struct {
	Message string
	logger  *zap.Logger
}

func (e *ValidationError) Error() string {
	if e.logger != nil {
		e.logger.Debug("validation error", zap.String("message", e.Message))
	}
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) SetLogger(logger *zap.Logger) { e.logger = logger }

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// BackendError wraps a failure from one of the three recognition engines
// (aligner, Tesseract, PaddleOCR). Retryable distinguishes BackendTransient
// (408/413/429/5xx, connection errors — retried by the engine client, and
// treated as a skip in the OCR chain if retries exhaust) from BackendFatal
// (non-retryable upstream rejection, handled identically once C1's retry
// budget is spent).
type BackendError struct {
	Engine    string
	Retryable bool
	Err       error
	logger    *zap.Logger
}

func (e *BackendError) Error() string {
	if e.logger != nil {
		e.logger.Debug("backend error", zap.String("engine", e.Engine), zap.Bool("retryable", e.Retryable), zap.Error(e.Err))
	}
	return fmt.Sprintf("engine %s failed (retryable=%t): %v", e.Engine, e.Retryable, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func NewBackendTransientError(engine string, err error) *BackendError {
	return &BackendError{Engine: engine, Retryable: true, Err: err}
}

func NewBackendFatalError(engine string, err error) *BackendError {
	return &BackendError{Engine: engine, Retryable: false, Err: err}
}

func (e *BackendError) SetLogger(logger *zap.Logger) { e.logger = logger }

func (e *BackendError) Is(target error) bool {
	_, ok := target.(*BackendError)
	return ok
}

// InternalError covers programmer bugs, store write failures, and
// serialization errors. Surfaces as a failed Recognition and is re-raised to
// the queue so the configured retry policy applies.
type InternalError struct {
	Message string
	Err     error
	logger  *zap.Logger
}

func (e *InternalError) Error() string {
	if e.logger != nil {
		e.logger.Debug("internal error", zap.String("message", e.Message), zap.Error(e.Err))
	}
	if e.Err != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) Unwrap() error { return e.Err }

func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

func (e *InternalError) SetLogger(logger *zap.Logger) { e.logger = logger }

func (e *InternalError) Is(target error) bool {
	_, ok := target.(*InternalError)
	return ok
}
