// internal/domain/services/ingest_service_test.go
package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeBlobStore struct {
	putErr error
	puts   int
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	return "blob://receipts/" + key, nil
}
func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (f *fakeBlobStore) Delete(ctx context.Context, key string) error       { return nil }
func (f *fakeBlobStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://example.com/" + key, nil
}

type fakeCache struct{ setErr error }

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (f *fakeCache) GetBinary(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}
func (f *fakeCache) SetBinary(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return f.setErr
}
func (f *fakeCache) Delete(ctx context.Context, key string) error       { return nil }
func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

type fakeImageRepo struct {
	created  []*entities.Image
	createErr error
}

func (f *fakeImageRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (f *fakeImageRepo) CreateImage(ctx context.Context, image *entities.Image) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, image)
	return nil
}
func (f *fakeImageRepo) GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error) {
	return nil, domain.NewNotFoundError("image", imageID.String())
}
func (f *fakeImageRepo) UpdateImage(ctx context.Context, imageID uuid.UUID, patch interfaces.ImagePatch) error {
	return nil
}
func (f *fakeImageRepo) DeleteImage(ctx context.Context, imageID uuid.UUID) error { return nil }

type fakeRecognitionRepo struct {
	created  []*entities.Recognition
	createErr error
}

func (f *fakeRecognitionRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (f *fakeRecognitionRepo) CreateRecognition(ctx context.Context, recognition *entities.Recognition) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, recognition)
	return nil
}
func (f *fakeRecognitionRepo) GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error) {
	return nil, domain.NewNotFoundError("recognition", recognitionID.String())
}
func (f *fakeRecognitionRepo) UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch interfaces.RecognitionPatch) error {
	return nil
}

type fakeProducer struct {
	enqueued []queue.Envelope
	enqueueErr error
	length   int64
}

func (f *fakeProducer) Enqueue(ctx context.Context, q string, env queue.Envelope) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, env)
	return nil
}
func (f *fakeProducer) QueueLength(ctx context.Context, q string) (int64, error) { return f.length, nil }

type fakePublisher struct{ published []*events.Event }

func (f *fakePublisher) Publish(ctx context.Context, event *events.Event) {
	f.published = append(f.published, event)
}

func newTestIngestService() (*IngestService, *fakeBlobStore, *fakeImageRepo, *fakeRecognitionRepo, *fakeProducer, *fakePublisher) {
	blob := &fakeBlobStore{}
	c := &fakeCache{}
	imgRepo := &fakeImageRepo{}
	recRepo := &fakeRecognitionRepo{}
	producer := &fakeProducer{length: 2}
	pub := &fakePublisher{}
	svc := NewIngestService(blob, c, imgRepo, recRepo, producer, pub, validator.New(), zap.NewNop())
	return svc, blob, imgRepo, recRepo, producer, pub
}

func TestUploadImage_RejectsUnsupportedMimeType(t *testing.T) {
	svc, _, _, _, _, _ := newTestIngestService()
	_, err := svc.UploadImage(context.Background(), []byte("data"), "image/gif", UploadMetadata{})
	if !isValidation(err) {
		t.Fatalf("expected a ValidationError for unsupported mime type, got %v", err)
	}
}

func TestUploadImage_RejectsOversizedImage(t *testing.T) {
	svc, _, _, _, _, _ := newTestIngestService()
	oversized := bytes.Repeat([]byte{0xFF}, int(entities.MaxImageBytes)+1)
	_, err := svc.UploadImage(context.Background(), oversized, entities.MimeTypeJPEG, UploadMetadata{})
	if !isValidation(err) {
		t.Fatalf("expected a ValidationError for oversized image, got %v", err)
	}
}

func TestUploadImage_RejectsUnknownQRFormatFilter(t *testing.T) {
	svc, _, _, _, _, _ := newTestIngestService()
	_, err := svc.UploadImage(context.Background(), []byte("data"), entities.MimeTypeJPEG, UploadMetadata{
		AcceptedQRFormats: []entities.QRFormat{"barcode"},
	})
	if !isValidation(err) {
		t.Fatalf("expected a ValidationError for unknown QR format, got %v", err)
	}
}

func TestUploadImage_HappyPath(t *testing.T) {
	svc, blob, imgRepo, recRepo, producer, pub := newTestIngestService()

	result, err := svc.UploadImage(context.Background(), []byte("jpeg-bytes"), entities.MimeTypeJPEG, UploadMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entities.StatusQueued {
		t.Errorf("Status = %q, want %q", result.Status, entities.StatusQueued)
	}
	if blob.puts != 1 {
		t.Errorf("expected exactly one blob Put, got %d", blob.puts)
	}
	if len(imgRepo.created) != 1 || imgRepo.created[0].ID != result.ImageID {
		t.Error("expected exactly one Image row created with the returned ImageID")
	}
	if len(recRepo.created) != 1 || recRepo.created[0].ID != result.RecognitionID {
		t.Error("expected exactly one Recognition row created with the returned RecognitionID")
	}
	if len(producer.enqueued) != 1 {
		t.Fatalf("expected exactly one enqueued job, got %d", len(producer.enqueued))
	}
	if len(pub.published) != 1 || pub.published[0].Kind != events.KindQueued {
		t.Fatal("expected exactly one ocr.queued event published")
	}
	if pub.published[0].Position != 2 {
		t.Errorf("Position = %d, want queue length 2", pub.published[0].Position)
	}
}

func TestUploadImage_BlobFailurePropagatesAndSkipsPersistence(t *testing.T) {
	svc, _, imgRepo, recRepo, producer, _ := newTestIngestService()
	svc.blobStore = &fakeBlobStore{putErr: errors.New("s3 unavailable")}

	_, err := svc.UploadImage(context.Background(), []byte("data"), entities.MimeTypeJPEG, UploadMetadata{})
	if err == nil {
		t.Fatal("expected blob put failure to propagate")
	}
	if len(imgRepo.created) != 0 || len(recRepo.created) != 0 || len(producer.enqueued) != 0 {
		t.Error("blob failure must short-circuit before any metadata write or enqueue")
	}
}

func TestUploadImage_CacheSeedFailureIsNonFatal(t *testing.T) {
	svc, _, _, _, _, _ := newTestIngestService()
	svc.cache = &fakeCache{setErr: errors.New("redis down")}

	result, err := svc.UploadImage(context.Background(), []byte("data"), entities.MimeTypeJPEG, UploadMetadata{})
	if err != nil {
		t.Fatalf("a cache seed failure must not fail the upload, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a successful UploadResult despite the cache miss")
	}
}

func isValidation(err error) bool {
	_, ok := err.(*domain.ValidationError)
	return ok
}
