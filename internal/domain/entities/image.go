// internal/domain/entities/image.go
package entities

import (
	"time"

	"github.com/google/uuid"
)

// MimeType enumerates the image formats the ingest service accepts.
type MimeType string

const (
	MimeTypeJPEG MimeType = "image/jpeg"
	MimeTypePNG  MimeType = "image/png"
	MimeTypeWebP MimeType = "image/webp"
)

// AllowedMimeTypes is the full set of MIME types uploadImage accepts.
var AllowedMimeTypes = map[MimeType]struct{}{
	MimeTypeJPEG: {},
	MimeTypePNG:  {},
	MimeTypeWebP: {},
}

// MaxImageBytes is the upload size ceiling enforced by the ingest service,
// checked before any blob or metadata write (spec §8 property 7).
const MaxImageBytes int64 = 10 * 1024 * 1024

// Image is the persistent record of one uploaded receipt photograph.
// OriginalURL is set at creation and is immutable; ProcessedURL is set at
// most once, by the Recognition Processor, after a successful alignment.
type Image struct {
	ID              uuid.UUID
	OriginalURL     string
	ProcessedURL    *string
	FileSize        int64
	MimeType        MimeType
	Width           *int
	Height          *int
	SourceService   *string
	SourceReference *string
	UploadedAt      time.Time
}
