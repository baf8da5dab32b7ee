package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

// ListExpired returns ACTIVE conventions whose end date is before asOf's day, oldest end first.
// Nothing is locked: the status change goes through the versioned update, so two sweepers
// racing on the same row end with one Conflict.
func (r *Conventions) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id FROM conventions
		WHERE status = 'ACTIVE' AND end_date < $1
		ORDER BY end_date
		LIMIT NULLIF($2::int, 0)
	`, domain.DateOf(asOf), limit)
	if err != nil {
		return nil, domain.Persistence("list expired conventions", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, domain.Persistence("list expired conventions", err)
	}
	return ids, nil
}
