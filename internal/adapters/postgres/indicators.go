package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

// Indicators keeps submissions inline as a jsonb array; they are only ever read with their KPI.
type Indicators struct{ db *DB }

const indicatorColumns = `id, enterprise_id, convention_id, name, unit, target_value, current_value,
	status, submissions, created_at, updated_at`

func scanIndicator(row pgx.Row) (domain.Indicator, error) {
	var (
		i           domain.Indicator
		submissions []byte
	)
	err := row.Scan(&i.ID, &i.EnterpriseID, &i.ConventionID, &i.Name, &i.Unit, &i.TargetValue, &i.CurrentValue,
		&i.Status, &submissions, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return domain.Indicator{}, err
	}
	if err := decodeList(submissions, &i.Submissions); err != nil {
		return domain.Indicator{}, err
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return i, nil
}

func indicatorArgs(i domain.Indicator) ([]any, error) {
	submissions, err := json.Marshal(nonNil(i.Submissions))
	if err != nil {
		return nil, domain.Persistence("encode submissions", err)
	}
	return []any{i.ID, i.EnterpriseID, i.ConventionID, i.Name, i.Unit, i.TargetValue, i.CurrentValue,
		i.Status, submissions, i.CreatedAt, i.UpdatedAt}, nil
}

func (r *Indicators) Create(ctx context.Context, i domain.Indicator) (domain.Indicator, error) {
	args, err := indicatorArgs(i)
	if err != nil {
		return domain.Indicator{}, err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO indicators (`+indicatorColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, args...)
	if err != nil {
		return domain.Indicator{}, translate(err, "Indicator", "create indicator")
	}
	return i, nil
}

func (r *Indicators) Get(ctx context.Context, id uuid.UUID) (domain.Indicator, error) {
	i, err := scanIndicator(r.db.Pool.QueryRow(ctx, `SELECT `+indicatorColumns+` FROM indicators WHERE id = $1`, id))
	if err != nil {
		return domain.Indicator{}, translate(err, "Indicator", "get indicator")
	}
	return i, nil
}

func (r *Indicators) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Indicator, error) {
	if len(ids) == 0 {
		return []domain.Indicator{}, nil
	}
	found, err := r.query(ctx, "get indicators",
		`SELECT `+indicatorColumns+` FROM indicators WHERE id = ANY($1::text[]::uuid[])`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found, func(i domain.Indicator) uuid.UUID { return i.ID }), nil
}

func (r *Indicators) Update(ctx context.Context, i domain.Indicator) (domain.Indicator, error) {
	args, err := indicatorArgs(i)
	if err != nil {
		return domain.Indicator{}, err
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE indicators SET enterprise_id = $2, convention_id = $3, name = $4, unit = $5, target_value = $6,
			current_value = $7, status = $8, submissions = $9, created_at = $10, updated_at = $11
		WHERE id = $1
	`, args...)
	if err != nil {
		return domain.Indicator{}, translate(err, "Indicator", "update indicator")
	}
	if tag.RowsAffected() == 0 {
		return domain.Indicator{}, domain.NotFound("Indicator")
	}
	return i, nil
}

func (r *Indicators) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM indicators WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete indicator", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Indicator")
	}
	return nil
}

func (r *Indicators) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Indicator, error) {
	return r.query(ctx, "list indicators",
		`SELECT `+indicatorColumns+` FROM indicators WHERE enterprise_id = $1 ORDER BY created_at ASC`, enterpriseID)
}

func (r *Indicators) List(ctx context.Context) ([]domain.Indicator, error) {
	return r.query(ctx, "list indicators", `SELECT `+indicatorColumns+` FROM indicators ORDER BY created_at ASC`)
}

func (r *Indicators) query(ctx context.Context, op, sql string, args ...any) ([]domain.Indicator, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Indicator, error) {
		return scanIndicator(row)
	})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return out, nil
}
