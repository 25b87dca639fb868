// internal/data/repositories/interfaces/repository.go
package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository is the common transactional surface every repository embeds.
// It has only BeginTx; commit and rollback go through the returned pgx.Tx.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}
