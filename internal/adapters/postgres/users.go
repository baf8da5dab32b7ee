package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oversight/internal/domain"
)

type Users struct{ db *DB }

const userColumns = `id, name, email, role, enterprise_id, active, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.EnterpriseID, &u.Active, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *Users) Create(ctx context.Context, u domain.User) (domain.User, error) {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.Email, u.Role, u.EnterpriseID, u.Active, u.CreatedAt)
	if err = translate(err, "User", "create user"); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return domain.User{}, domain.Conflict("email %s is already registered", u.Email)
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *Users) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, translate(err, "User", "get user")
	}
	return u, nil
}

func (r *Users) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	found, err := r.query(ctx, "get users",
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::text[]::uuid[])`, idStrings(ids))
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found, func(u domain.User) uuid.UUID { return u.ID }), nil
}

func (r *Users) Update(ctx context.Context, u domain.User) (domain.User, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET name = $2, email = $3, role = $4, enterprise_id = $5, active = $6 WHERE id = $1
	`, u.ID, u.Name, u.Email, u.Role, u.EnterpriseID, u.Active)
	if err = translate(err, "User", "update user"); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return domain.User{}, domain.Conflict("email %s is already registered", u.Email)
		}
		return domain.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, domain.NotFound("User")
	}
	return u, nil
}

func (r *Users) List(ctx context.Context) ([]domain.User, error) {
	return r.query(ctx, "list users", `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

func (r *Users) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db.Pool, "users", "count users")
}

func (r *Users) query(ctx context.Context, op, sql string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return out, nil
}
