package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

type Visits struct{ db *DB }

const visitColumns = `id, enterprise_id, inspector_id, scheduled_at, type, comment, status, outcome,
	cancellation_reason, report, created_at, updated_at`

func scanVisit(row pgx.Row) (domain.Visit, error) {
	var (
		v      domain.Visit
		report []byte
	)
	err := row.Scan(&v.ID, &v.EnterpriseID, &v.InspectorID, &v.ScheduledAt, &v.Type, &v.Comment, &v.Status,
		&v.Outcome, &v.CancellationReason, &report, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Visit{}, err
	}
	if len(report) > 0 && string(report) != "null" {
		v.Report = &domain.VisitReport{}
		if err := json.Unmarshal(report, v.Report); err != nil {
			return domain.Visit{}, err
		}
	}
	v.ScheduledAt = v.ScheduledAt.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

func visitArgs(v domain.Visit) []any {
	var report []byte
	if v.Report != nil {
		report, _ = json.Marshal(v.Report)
	}
	return []any{v.ID, v.EnterpriseID, v.InspectorID, v.ScheduledAt, v.Type, v.Comment, v.Status,
		v.Outcome, v.CancellationReason, report, v.CreatedAt, v.UpdatedAt}
}

func (r *Visits) Create(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO visits (`+visitColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, visitArgs(v)...)
	if err != nil {
		return domain.Visit{}, translate(err, "Visit", "create visit")
	}
	return v, nil
}

func (r *Visits) Get(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	v, err := scanVisit(r.db.Pool.QueryRow(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id))
	if err != nil {
		return domain.Visit{}, translate(err, "Visit", "get visit")
	}
	return v, nil
}

func (r *Visits) Update(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE visits SET enterprise_id = $2, inspector_id = $3, scheduled_at = $4, type = $5, comment = $6,
			status = $7, outcome = $8, cancellation_reason = $9, report = $10, created_at = $11, updated_at = $12
		WHERE id = $1
	`, visitArgs(v)...)
	if err != nil {
		return domain.Visit{}, translate(err, "Visit", "update visit")
	}
	if tag.RowsAffected() == 0 {
		return domain.Visit{}, domain.NotFound("Visit")
	}
	return v, nil
}

func (r *Visits) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error) {
	return r.query(ctx, "list visits",
		`SELECT `+visitColumns+` FROM visits WHERE enterprise_id = $1 ORDER BY scheduled_at ASC`, enterpriseID)
}

func (r *Visits) ListByInspector(ctx context.Context, inspectorID uuid.UUID) ([]domain.Visit, error) {
	return r.query(ctx, "list visits",
		`SELECT `+visitColumns+` FROM visits WHERE inspector_id = $1 ORDER BY scheduled_at ASC`, inspectorID)
}

func (r *Visits) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db.Pool, "visits", "count visits")
}

func (r *Visits) query(ctx context.Context, op, sql string, args ...any) ([]domain.Visit, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Visit, error) {
		return scanVisit(row)
	})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return out, nil
}
