// internal/api/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/stackvity/receipt-gateway/internal/api/handlers"
)

// SetupRouter wires the four HTTP edge endpoints spec §6 defines onto the
// Gin engine.
func SetupRouter(
	r *gin.Engine,
	recognitionHandler *handlers.RecognitionHandler,
	imageHandler *handlers.ImageHandler,
	healthHandler *handlers.HealthHandler,
) {
	r.GET("/health", healthHandler.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recognize", recognitionHandler.Recognize)
		v1.GET("/recognitions/:id", recognitionHandler.GetRecognition)
		v1.GET("/images/:id", imageHandler.GetImage)
	}
}
