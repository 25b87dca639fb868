// internal/data/repositories/interfaces/image_repository.go
package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
)

// ImagePatch carries the subset of Image fields C5 may update. Only
// ProcessedURL is ever mutated after creation (spec §3 ownership rule).
type ImagePatch struct {
	ProcessedURL *string
}

// ImageRepository defines read/write access to the images table. Create is
// called once by the Ingest Service; Update is called at most once per
// image by the Recognition Processor, to set ProcessedURL.
type ImageRepository interface {
	Repository

	CreateImage(ctx context.Context, image *entities.Image) error
	GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error)
	UpdateImage(ctx context.Context, imageID uuid.UUID, patch ImagePatch) error
	DeleteImage(ctx context.Context, imageID uuid.UUID) error
}
