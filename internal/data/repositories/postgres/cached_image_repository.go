// internal/data/repositories/postgres/cached_image_repository.go
package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"go.uber.org/zap"
)

var _ interfaces.ImageRepository = (*CachedImageRepository)(nil)

// CachedImageRepository wraps an ImageRepository with the read-through /
// write-through metadata cache spec §4.2 requires for findById/update: a
// miss falls through to the store and seeds the cache, and a successful
// update invalidates the entry rather than trying to keep it in sync. This
// is a distinct cache entry from cache.ImageBytesKey, which holds the raw
// uploaded bytes C4 seeds and C5 consults, not the row projection.
type CachedImageRepository struct {
	next   interfaces.ImageRepository
	cache  cache.Cache
	logger *zap.Logger
}

// NewCachedImageRepository creates a new CachedImageRepository instance.
func NewCachedImageRepository(next interfaces.ImageRepository, c cache.Cache, logger *zap.Logger) *CachedImageRepository {
	return &CachedImageRepository{next: next, cache: c, logger: logger.Named("CachedImageRepository")}
}

func imageMetaCacheKey(imageID uuid.UUID) string { return "image:" + imageID.String() + ":meta" }

func (r *CachedImageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) { return r.next.BeginTx(ctx) }

func (r *CachedImageRepository) CreateImage(ctx context.Context, image *entities.Image) error {
	return r.next.CreateImage(ctx, image)
}

// GetImageByID implements the read-through half: a cache hit is decoded and
// returned without touching Postgres, a miss falls through and seeds the
// cache for the next read. A cache error of its own is logged and treated
// like a miss, never surfaced to the caller.
func (r *CachedImageRepository) GetImageByID(ctx context.Context, imageID uuid.UUID) (*entities.Image, error) {
	key := imageMetaCacheKey(imageID)
	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("image metadata cache get failed, falling back to store", zap.String("image_id", imageID.String()), zap.Error(err))
	} else if ok {
		var img entities.Image
		if err := json.Unmarshal([]byte(raw), &img); err == nil {
			return &img, nil
		}
		r.logger.Warn("image metadata cache entry unreadable, falling back to store", zap.String("image_id", imageID.String()))
	}

	img, err := r.next.GetImageByID(ctx, imageID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(img); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), cache.DefaultTTL); err != nil {
			r.logger.Warn("image metadata cache seed failed", zap.String("image_id", imageID.String()), zap.Error(err))
		}
	}
	return img, nil
}

// UpdateImage implements the write-through half: update the store first,
// then invalidate the cached projection so the next GetImageByID re-reads
// the authoritative row instead of serving a stale copy.
func (r *CachedImageRepository) UpdateImage(ctx context.Context, imageID uuid.UUID, patch interfaces.ImagePatch) error {
	if err := r.next.UpdateImage(ctx, imageID, patch); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, imageMetaCacheKey(imageID)); err != nil {
		r.logger.Warn("image metadata cache invalidation failed", zap.String("image_id", imageID.String()), zap.Error(err))
	}
	return nil
}

func (r *CachedImageRepository) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	if err := r.next.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, imageMetaCacheKey(imageID)); err != nil {
		r.logger.Warn("image metadata cache invalidation failed", zap.String("image_id", imageID.String()), zap.Error(err))
	}
	return nil
}
