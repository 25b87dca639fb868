// internal/api/handlers/handler.go
package handlers

// Handler aggregates the concrete handlers the API wires into the router.
type Handler struct {
	RecognitionHandler *RecognitionHandler
	ImageHandler       *ImageHandler
	HealthHandler      *HealthHandler
}

// NewHandler creates a new Handler instance.
func NewHandler(recognitionHandler *RecognitionHandler, imageHandler *ImageHandler, healthHandler *HealthHandler) *Handler {
	return &Handler{
		RecognitionHandler: recognitionHandler,
		ImageHandler:       imageHandler,
		HealthHandler:      healthHandler,
	}
}
