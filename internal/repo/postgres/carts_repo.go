package postgres

import (
	"context"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is satisfied by both the pool and a pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type CartsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewCartsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CartsRepo {
	return &CartsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *CartsRepo) Add(ctx context.Context, e cart.Entry) (cart.Entry, error) {
	e.ID = uuid.NewString()

	err := r.observe("cart.add", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO course_cart (id, email, class_id, name, image, instructor_name, price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, e.ID, e.Email, e.ClassID, e.Name, e.Image, e.InstructorName, e.Price, e.CreatedAt)
		return err
	})
	if err != nil {
		return cart.Entry{}, err
	}

	return e, nil
}

func (r *CartsRepo) ListByEmail(ctx context.Context, email string) (out []cart.Entry, err error) {
	var rows pgx.Rows

	err = r.observe("cart.list_by_email", func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT id, email, class_id, name, image, instructor_name, price::float8, created_at
		FROM course_cart
		WHERE email = $1
		ORDER BY created_at ASC, id ASC`, email)
		return err
	})
	if err != nil {
		return
	}
	defer rows.Close()

	out = make([]cart.Entry, 0)
	for rows.Next() {
		var e cart.Entry
		err = rows.Scan(&e.ID, &e.Email, &e.ClassID, &e.Name, &e.Image, &e.InstructorName, &e.Price, &e.CreatedAt)
		if err != nil {
			return
		}
		out = append(out, e)
	}

	err = rows.Err()
	return
}

func (r *CartsRepo) Remove(ctx context.Context, email, id string) (ack.Delete, error) {
	cid, err := parseID(id)
	if err != nil {
		return ack.Delete{}, err
	}

	var n int64
	err = r.observe("cart.remove", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM course_cart WHERE id = $1 AND email = $2`, cid, email)
		n = tag.RowsAffected()
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(n), nil
}

func (r *CartsRepo) RemoveMany(ctx context.Context, email string, ids []string) (ack.Delete, error) {
	return removeMany(ctx, r.pool, r.observer, email, ids)
}

func removeMany(ctx context.Context, db execer, o observer, email string, ids []string) (ack.Delete, error) {
	valid := validIDs(ids)
	if len(valid) == 0 {
		return ack.Deleted(0), nil
	}

	var n int64
	err := o.observe("cart.remove_many", func() error {
		tag, e := db.Exec(ctx, `
		DELETE FROM course_cart
		WHERE email = $1 AND id = ANY($2::uuid[])`, email, valid)
		n = tag.RowsAffected()
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(n), nil
}
