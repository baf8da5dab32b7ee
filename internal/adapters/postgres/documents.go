package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

type Documents struct{ db *DB }

const documentColumns = `id, enterprise_id, type, files, status, comment, uploaded_at, validated_by, validated_at`

func scanDocument(row pgx.Row) (domain.Document, error) {
	var (
		d     domain.Document
		files []byte
	)
	err := row.Scan(&d.ID, &d.EnterpriseID, &d.Type, &files, &d.Status, &d.Comment,
		&d.UploadedAt, &d.ValidatedBy, &d.ValidatedAt)
	if err != nil {
		return domain.Document{}, err
	}
	if err := decodeList(files, &d.Files); err != nil {
		return domain.Document{}, err
	}
	d.UploadedAt = d.UploadedAt.UTC()
	return d, nil
}

func documentArgs(d domain.Document) []any {
	files, _ := json.Marshal(nonNil(d.Files))
	return []any{d.ID, d.EnterpriseID, d.Type, files, d.Status, d.Comment, d.UploadedAt, d.ValidatedBy, d.ValidatedAt}
}

func (r *Documents) Create(ctx context.Context, d domain.Document) (domain.Document, error) {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, documentArgs(d)...)
	if err != nil {
		return domain.Document{}, translate(err, "Document", "create document")
	}
	return d, nil
}

func (r *Documents) Get(ctx context.Context, id uuid.UUID) (domain.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return domain.Document{}, translate(err, "Document", "get document")
	}
	return d, nil
}

// GetMany returns the documents found among ids in the order of ids.
func (r *Documents) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	found, err := r.query(ctx, "get documents",
		`SELECT `+documentColumns+` FROM documents WHERE id = ANY($1::text[]::uuid[])`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found, func(d domain.Document) uuid.UUID { return d.ID }), nil
}

func (r *Documents) Update(ctx context.Context, d domain.Document) (domain.Document, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE documents SET enterprise_id = $2, type = $3, files = $4, status = $5, comment = $6,
			uploaded_at = $7, validated_by = $8, validated_at = $9
		WHERE id = $1
	`, documentArgs(d)...)
	if err != nil {
		return domain.Document{}, translate(err, "Document", "update document")
	}
	if tag.RowsAffected() == 0 {
		return domain.Document{}, domain.NotFound("Document")
	}
	return d, nil
}

func (r *Documents) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Document")
	}
	return nil
}

func (r *Documents) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Document, error) {
	return r.query(ctx, "list documents",
		`SELECT `+documentColumns+` FROM documents WHERE enterprise_id = $1 ORDER BY uploaded_at DESC`, enterpriseID)
}

func (r *Documents) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db.Pool, "documents", "count documents")
}

func (r *Documents) query(ctx context.Context, op, sql string, args ...any) ([]domain.Document, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Document, error) {
		return scanDocument(row)
	})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return out, nil
}

// inOrder arranges found to follow ids, skipping ids with no match.
func inOrder[T any](ids []uuid.UUID, found []T, key func(T) uuid.UUID) []T {
	byID := make(map[uuid.UUID]T, len(found))
	for _, v := range found {
		byID[key(v)] = v
	}
	out := make([]T, 0, len(found))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
