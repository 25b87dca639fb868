// internal/data/repositories/postgres/cached_recognition_repository.go
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

var _ interfaces.RecognitionRepository = (*CachedRecognitionRepository)(nil)

// CachedRecognitionRepository wraps a RecognitionRepository with the same
// read-through / write-through shape as CachedImageRepository (spec §4.2:
// "RecognitionsRepo, same shape").
type CachedRecognitionRepository struct {
	next   interfaces.RecognitionRepository
	cache  cache.Cache
	logger *zap.Logger
}

// NewCachedRecognitionRepository creates a new CachedRecognitionRepository instance.
func NewCachedRecognitionRepository(next interfaces.RecognitionRepository, c cache.Cache, logger *zap.Logger) *CachedRecognitionRepository {
	return &CachedRecognitionRepository{next: next, cache: c, logger: logger.Named("CachedRecognitionRepository")}
}

func recognitionCacheKey(recognitionID uuid.UUID) string { return "recognition:" + recognitionID.String() }

func (r *CachedRecognitionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.next.BeginTx(ctx)
}

func (r *CachedRecognitionRepository) CreateRecognition(ctx context.Context, recognition *entities.Recognition) error {
	return r.next.CreateRecognition(ctx, recognition)
}

// GetRecognitionByID consults the cache first; a hit is decoded and returned
// without a Postgres round trip, a miss falls through and seeds the cache.
func (r *CachedRecognitionRepository) GetRecognitionByID(ctx context.Context, recognitionID uuid.UUID) (*entities.Recognition, error) {
	key := recognitionCacheKey(recognitionID)
	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("recognition cache get failed, falling back to store", zap.String("recognition_id", recognitionID.String()), zap.Error(err))
	} else if ok {
		var rec entities.Recognition
		if err := json.Unmarshal([]byte(raw), &rec); err == nil {
			return &rec, nil
		}
		r.logger.Warn("recognition cache entry unreadable, falling back to store", zap.String("recognition_id", recognitionID.String()))
	}

	rec, err := r.next.GetRecognitionByID(ctx, recognitionID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(rec); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), cache.DefaultTTL); err != nil {
			r.logger.Warn("recognition cache seed failed", zap.String("recognition_id", recognitionID.String()), zap.Error(err))
		}
	}
	return rec, nil
}

// UpdateRecognition writes through to the store, then invalidates the
// cached projection. The Recognition Processor calls this at every status
// transition (queued -> processing -> completed/failed), so a stale cached
// "processing" row can never outlive the transition that supersedes it.
func (r *CachedRecognitionRepository) UpdateRecognition(ctx context.Context, recognitionID uuid.UUID, patch interfaces.RecognitionPatch) error {
	if err := r.next.UpdateRecognition(ctx, recognitionID, patch); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, recognitionCacheKey(recognitionID)); err != nil {
		r.logger.Warn("recognition cache invalidation failed", zap.String("recognition_id", recognitionID.String()), zap.Error(err))
	}
	return nil
}
