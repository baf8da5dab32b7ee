package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

// Enterprises stores each record as one jsonb document; the registrable domain is
// kept in its own column for lookups.
type Enterprises struct{ db *DB }

func scanEnterprise(row pgx.Row) (domain.Enterprise, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return domain.Enterprise{}, err
	}
	var e domain.Enterprise
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Enterprise{}, fmt.Errorf("decode enterprise: %w", err)
	}
	return e, nil
}

func (r *Enterprises) Create(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return domain.Enterprise{}, domain.Persistence("encode enterprise", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO enterprises (id, data, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
	`, e.ID, data, e.Contact.Domain, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return domain.Enterprise{}, translate(err, "Enterprise", "create enterprise")
	}
	return e, nil
}

func (r *Enterprises) Get(ctx context.Context, id uuid.UUID) (domain.Enterprise, error) {
	e, err := scanEnterprise(r.db.Pool.QueryRow(ctx, `SELECT data FROM enterprises WHERE id = $1`, id))
	if err != nil {
		return domain.Enterprise{}, translate(err, "Enterprise", "get enterprise")
	}
	return e, nil
}

func (r *Enterprises) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM enterprises WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, domain.Persistence("check enterprise", err)
	}
	return ok, nil
}

func (r *Enterprises) Update(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return domain.Enterprise{}, domain.Persistence("encode enterprise", err)
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE enterprises SET data = $2, domain = $3, updated_at = $4 WHERE id = $1
	`, e.ID, data, e.Contact.Domain, e.UpdatedAt)
	if err != nil {
		return domain.Enterprise{}, translate(err, "Enterprise", "update enterprise")
	}
	if tag.RowsAffected() == 0 {
		return domain.Enterprise{}, domain.NotFound("Enterprise")
	}
	return e, nil
}

func (r *Enterprises) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM enterprises WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete enterprise", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Enterprise")
	}
	return nil
}

func (r *Enterprises) List(ctx context.Context) ([]domain.Enterprise, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT data FROM enterprises ORDER BY created_at ASC`)
	if err != nil {
		return nil, domain.Persistence("list enterprises", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Enterprise, error) {
		return scanEnterprise(row)
	})
	if err != nil {
		return nil, domain.Persistence("list enterprises", err)
	}
	return out, nil
}
