package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, observer: observer{prom: prom}}
}

// Create relies on users_email_uniq to reject a second user for an email.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.ID = uuid.NewString()

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, photo_url, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, u.ID, u.Name, u.Email, u.PhotoURL, string(u.Role), u.CreatedAt, u.UpdatedAt)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx, `
		SELECT id, name, email, photo_url, role, created_at, updated_at
		FROM users
		WHERE email = $1`, email), &u)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) (users []user.User, err error) {
	var rows pgx.Rows

	err = r.observe("users.list", func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT id, name, email, photo_url, role, created_at, updated_at
		FROM users
		ORDER BY created_at ASC, id ASC`)
		return err
	})
	if err != nil {
		return
	}
	defer rows.Close()

	users = make([]user.User, 0)
	for rows.Next() {
		var u user.User
		if err = scanUser(rows, &u); err != nil {
			return
		}
		users = append(users, u)
	}

	err = rows.Err()
	return
}

func (r *UsersRepo) SetRole(ctx context.Context, id string, role user.Role) (ack.Update, error) {
	uid, err := parseID(id)
	if err != nil {
		return ack.Update{}, err
	}

	var matched, modified int64
	err = r.observe("users.set_role", func() error {
		return r.pool.QueryRow(ctx, `
		WITH target AS (
			SELECT id FROM users WHERE id = $1
		), changed AS (
			UPDATE users SET role = $2, updated_at = now()
			WHERE id = $1 AND role <> $2
			RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM changed)
		`, uid, string(role)).Scan(&matched, &modified)
	})
	if err != nil {
		return ack.Update{}, err
	}

	return ack.Updated(matched, modified), nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) (ack.Delete, error) {
	uid, err := parseID(id)
	if err != nil {
		return ack.Delete{}, err
	}

	var n int64
	err = r.observe("users.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, uid)
		n = tag.RowsAffected()
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(n), nil
}

func scanUser(row pgx.Row, u *user.User) error {
	var role string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhotoURL, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return err
	}
	u.Role = user.Role(role)
	return nil
}
