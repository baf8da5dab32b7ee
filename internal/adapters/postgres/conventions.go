package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

type Conventions struct{ db *DB }

const conventionColumns = `id, enterprise_id, signed_date, start_date, end_date, type, advantages, obligations,
	status, documents, indicators, created_by, last_modified_by, version, created_at, updated_at`

func scanConvention(row pgx.Row) (domain.Convention, error) {
	var (
		c                       domain.Convention
		advantages, obligations []byte
		documents, indicators   []byte
	)
	err := row.Scan(&c.ID, &c.EnterpriseID, &c.SignedDate, &c.StartDate, &c.EndDate, &c.Type,
		&advantages, &obligations, &c.Status, &documents, &indicators,
		&c.Metadata.CreatedBy, &c.Metadata.LastModifiedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Convention{}, err
	}
	if c.Advantages, err = decodeAny(advantages); err != nil {
		return domain.Convention{}, fmt.Errorf("decode advantages: %w", err)
	}
	if c.Obligations, err = decodeAny(obligations); err != nil {
		return domain.Convention{}, fmt.Errorf("decode obligations: %w", err)
	}
	if err := decodeList(documents, &c.Documents); err != nil {
		return domain.Convention{}, fmt.Errorf("decode documents: %w", err)
	}
	if err := decodeList(indicators, &c.Indicators); err != nil {
		return domain.Convention{}, fmt.Errorf("decode indicators: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.History = []domain.HistoryEntry{}
	return c, nil
}

func (r *Conventions) Create(ctx context.Context, c domain.Convention) (domain.Convention, error) {
	c.Version = 1
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		args, err := conventionArgs(c)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO conventions (id, enterprise_id, signed_date, start_date, end_date, type, advantages,
				obligations, status, documents, indicators, created_by, last_modified_by, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)
		`, append(args, c.Metadata.CreatedBy, c.Metadata.LastModifiedBy, c.CreatedAt, c.UpdatedAt)...)
		if err != nil {
			return err
		}
		for i, entry := range c.History {
			if err := insertHistory(ctx, tx, c.ID, i+1, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Convention{}, translate(err, "Convention", "create convention")
	}
	return c, nil
}

func (r *Conventions) Get(ctx context.Context, id uuid.UUID) (domain.Convention, error) {
	c, err := getConvention(ctx, r.db.Pool, id)
	if err != nil {
		return domain.Convention{}, translate(err, "Convention", "get convention")
	}
	return c, nil
}

func getConvention(ctx context.Context, q querier, id uuid.UUID) (domain.Convention, error) {
	c, err := scanConvention(q.QueryRow(ctx, `SELECT `+conventionColumns+` FROM conventions WHERE id = $1`, id))
	if err != nil {
		return domain.Convention{}, err
	}
	history, err := loadHistory(ctx, q, []uuid.UUID{id})
	if err != nil {
		return domain.Convention{}, err
	}
	if h := history[id]; h != nil {
		c.History = h
	}
	return c, nil
}

// Update writes the mutable columns guarded by the version and appends entry in the same transaction.
func (r *Conventions) Update(ctx context.Context, c domain.Convention, entry domain.HistoryEntry, expectedVersion int64) (domain.Convention, error) {
	var out domain.Convention
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		args, err := conventionArgs(c)
		if err != nil {
			return err
		}
		hargs, err := historyArgs(c.ID, entry)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE conventions SET
				enterprise_id = $2, signed_date = $3, start_date = $4, end_date = $5, type = $6,
				advantages = $7, obligations = $8, status = $9, documents = $10, indicators = $11,
				last_modified_by = $12, updated_at = $13, version = version + 1
			WHERE id = $1 AND version = $14
		`, append(args, entry.UserID, entry.Timestamp, expectedVersion)...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var current int64
			if err := tx.QueryRow(ctx, `SELECT version FROM conventions WHERE id = $1`, c.ID).Scan(&current); err != nil {
				return err
			}
			return domain.Conflict("convention %s was modified concurrently (version %d, expected %d)", c.ID, current, expectedVersion)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO convention_history (convention_id, seq, action, user_id, changes, at)
			SELECT $1, COALESCE(max(seq), 0) + 1, $2, $3, $4, $5 FROM convention_history WHERE convention_id = $1
		`, hargs...); err != nil {
			return err
		}
		out, err = getConvention(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return domain.Convention{}, translate(err, "Convention", "update convention")
	}
	return out, nil
}

func (r *Conventions) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Convention, error) {
	return r.list(ctx, "list conventions",
		`SELECT `+conventionColumns+` FROM conventions WHERE enterprise_id = $1 ORDER BY created_at DESC`, enterpriseID)
}

func (r *Conventions) ListActive(ctx context.Context, enterpriseID uuid.UUID, asOf time.Time) ([]domain.Convention, error) {
	return r.list(ctx, "list active conventions", `
		SELECT `+conventionColumns+` FROM conventions
		WHERE enterprise_id = $1 AND status = 'ACTIVE' AND start_date <= $2 AND end_date >= $2
		ORDER BY end_date ASC
	`, enterpriseID, domain.DateOf(asOf))
}

func (r *Conventions) List(ctx context.Context) ([]domain.Convention, error) {
	return r.list(ctx, "list conventions", `SELECT `+conventionColumns+` FROM conventions ORDER BY created_at ASC`)
}

func (r *Conventions) list(ctx context.Context, op, sql string, args ...any) ([]domain.Convention, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Convention, error) {
		return scanConvention(row)
	})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	ids := make([]uuid.UUID, len(out))
	for i, c := range out {
		ids[i] = c.ID
	}
	history, err := loadHistory(ctx, r.db.Pool, ids)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	for i := range out {
		if h := history[out[i].ID]; h != nil {
			out[i].History = h
		}
	}
	return out, nil
}

func (r *Conventions) RecentHistory(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT h.convention_id, c.enterprise_id, h.action, h.user_id, h.changes, h.at
		FROM convention_history h
		JOIN conventions c ON c.id = h.convention_id
		ORDER BY h.at DESC, h.convention_id ASC
		LIMIT NULLIF($1::int, 0)
	`, limit)
	if err != nil {
		return nil, domain.Persistence("recent history", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ActivityEntry, error) {
		var a domain.ActivityEntry
		entry, err := scanHistory(row, &a.ConventionID, &a.EnterpriseID)
		a.Entry = entry
		return a, err
	})
	if err != nil {
		return nil, domain.Persistence("recent history", err)
	}
	return out, nil
}

func loadHistory(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]domain.HistoryEntry, error) {
	out := map[uuid.UUID][]domain.HistoryEntry{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT convention_id, action, user_id, changes, at
		FROM convention_history
		WHERE convention_id = ANY($1::text[]::uuid[])
		ORDER BY convention_id, seq
	`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var conventionID uuid.UUID
		entry, err := scanHistory(rows, &conventionID)
		if err != nil {
			return nil, err
		}
		out[conventionID] = append(out[conventionID], entry)
	}
	return out, rows.Err()
}

// scanHistory reads the leading columns into lead, then action, user_id, changes and at.
func scanHistory(row pgx.Row, lead ...any) (domain.HistoryEntry, error) {
	var (
		h   domain.HistoryEntry
		raw []byte
	)
	if err := row.Scan(append(lead, &h.Action, &h.UserID, &raw, &h.Timestamp)...); err != nil {
		return domain.HistoryEntry{}, err
	}
	changes, err := domain.UnmarshalChanges(h.Action, raw)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	h.Changes = changes
	h.Timestamp = h.Timestamp.UTC()
	return h, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, id uuid.UUID, seq int, entry domain.HistoryEntry) error {
	changes, err := domain.MarshalChanges(entry.Changes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO convention_history (convention_id, seq, action, user_id, changes, at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, seq, entry.Action, entry.UserID, []byte(changes), entry.Timestamp)
	return err
}

func historyArgs(id uuid.UUID, entry domain.HistoryEntry) ([]any, error) {
	changes, err := domain.MarshalChanges(entry.Changes)
	if err != nil {
		return nil, domain.Persistence("encode history changes", err)
	}
	return []any{id, entry.Action, entry.UserID, []byte(changes), entry.Timestamp}, nil
}

// conventionArgs returns $1..$11 shared by insert and update.
func conventionArgs(c domain.Convention) ([]any, error) {
	advantages, err := json.Marshal(c.Advantages)
	if err != nil {
		return nil, domain.Validation("advantages: %v", err)
	}
	obligations, err := json.Marshal(c.Obligations)
	if err != nil {
		return nil, domain.Validation("obligations: %v", err)
	}
	documents, _ := json.Marshal(nonNil(c.Documents))
	indicators, _ := json.Marshal(nonNil(c.Indicators))
	return []any{
		c.ID, c.EnterpriseID, c.SignedDate, c.StartDate, c.EndDate, c.Type,
		advantages, obligations, c.Status, documents, indicators,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func decodeAny(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeList unmarshals a jsonb array, leaving an empty non-nil slice for NULL.
func decodeList[T any](raw []byte, dst *[]T) error {
	*dst = []T{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}
