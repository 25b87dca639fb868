// internal/api/handlers/handlers_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes ---

type fakeImageRepo struct {
	image  *entities.Image
	getErr error
}

func (f *fakeImageRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (f *fakeImageRepo) CreateImage(ctx context.Context, image *entities.Image) error { return nil }
func (f *fakeImageRepo) GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.image, nil
}
func (f *fakeImageRepo) UpdateImage(ctx context.Context, imageID uuid.UUID, patch interfaces.ImagePatch) error {
	return nil
}
func (f *fakeImageRepo) DeleteImage(ctx context.Context, imageID uuid.UUID) error { return nil }

type fakeRecognitionRepo struct {
	recognition *entities.Recognition
	getErr      error
}

func (f *fakeRecognitionRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (f *fakeRecognitionRepo) CreateRecognition(ctx context.Context, recognition *entities.Recognition) error {
	return nil
}
func (f *fakeRecognitionRepo) GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.recognition, nil
}
func (f *fakeRecognitionRepo) UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch interfaces.RecognitionPatch) error {
	return nil
}

type fakeBlobStore struct {
	presignURL string
	presignErr error
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	return "", nil
}
func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (f *fakeBlobStore) Delete(ctx context.Context, key string) error       { return nil }
func (f *fakeBlobStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return f.presignURL, nil
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

// --- HealthHandler ---

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/health")

	h.HealthCheck(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

// --- ImageHandler ---

func TestGetImage_InvalidID(t *testing.T) {
	h := NewImageHandler(&fakeImageRepo{}, &fakeBlobStore{}, zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/api/v1/images/not-a-uuid")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetImage(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetImage_NotFound(t *testing.T) {
	imageRepo := &fakeImageRepo{getErr: domain.NewNotFoundError("image", uuid.New().String())}
	h := NewImageHandler(imageRepo, &fakeBlobStore{}, zap.NewNop())
	id := uuid.New()
	c, w := newTestContext(http.MethodGet, "/api/v1/images/"+id.String())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetImage(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetImage_ProcessedVariantMissing(t *testing.T) {
	img := &entities.Image{ID: uuid.New(), OriginalURL: "blob://receipts/a-original.jpg"}
	imageRepo := &fakeImageRepo{image: img}
	h := NewImageHandler(imageRepo, &fakeBlobStore{}, zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/api/v1/images/"+img.ID.String()+"?type=processed")
	c.Params = gin.Params{{Key: "id", Value: img.ID.String()}}
	c.Request.URL.RawQuery = "type=processed"

	h.GetImage(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when ProcessedURL is nil", w.Code)
	}
}

func TestGetImage_OriginalVariantPresigns(t *testing.T) {
	img := &entities.Image{ID: uuid.New(), OriginalURL: "blob://receipts/a-original.jpg"}
	imageRepo := &fakeImageRepo{image: img}
	blob := &fakeBlobStore{presignURL: "https://cdn.example.com/signed"}
	h := NewImageHandler(imageRepo, blob, zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/api/v1/images/"+img.ID.String())
	c.Params = gin.Params{{Key: "id", Value: img.ID.String()}}

	h.GetImage(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["url"] != blob.presignURL {
		t.Errorf("url = %v, want %q", body["url"], blob.presignURL)
	}
}

// --- RecognitionHandler.GetRecognition ---

func TestGetRecognition_InvalidID(t *testing.T) {
	h := NewRecognitionHandler(nil, &fakeRecognitionRepo{}, zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/api/v1/recognitions/bad-id")
	c.Params = gin.Params{{Key: "id", Value: "bad-id"}}

	h.GetRecognition(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetRecognition_NotFound(t *testing.T) {
	recRepo := &fakeRecognitionRepo{getErr: domain.NewNotFoundError("recognition", uuid.New().String())}
	h := NewRecognitionHandler(nil, recRepo, zap.NewNop())
	id := uuid.New()
	c, w := newTestContext(http.MethodGet, "/api/v1/recognitions/"+id.String())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetRecognition(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetRecognition_Found(t *testing.T) {
	resultType := entities.ResultTypeText
	text := "TOTAL 9.99"
	rec := &entities.Recognition{
		ID:         uuid.New(),
		ImageID:    uuid.New(),
		Status:     entities.StatusCompleted,
		ResultType: &resultType,
		RawText:    &text,
		CreatedAt:  time.Now(),
	}
	recRepo := &fakeRecognitionRepo{recognition: rec}
	h := NewRecognitionHandler(nil, recRepo, zap.NewNop())
	c, w := newTestContext(http.MethodGet, "/api/v1/recognitions/"+rec.ID.String())
	c.Params = gin.Params{{Key: "id", Value: rec.ID.String()}}

	h.GetRecognition(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["rawText"] != text {
		t.Errorf("rawText = %v, want %q", body["rawText"], text)
	}
	if body["status"] != string(entities.StatusCompleted) {
		t.Errorf("status = %v, want %q", body["status"], entities.StatusCompleted)
	}
}
