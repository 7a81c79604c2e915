package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewPaymentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PaymentsRepo {
	return &PaymentsRepo{pool: pool, observer: observer{prom: prom}}
}

// Record inserts the payment and deletes the paid cart entries in one
// transaction, so the payment is always stored with cart_cleared = true.
func (r *PaymentsRepo) Record(ctx context.Context, p payment.Payment) (rec payment.Payment, deleted ack.Delete, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	p.ID = uuid.NewString()
	p.CartCleared = true

	err = r.observe("payments.record_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO course_payments (id, email, transaction_id, amount, currency, class_items, course_items, item_names, cart_cleared, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, p.ID, p.Email, p.TransactionID, p.Amount, p.Currency, p.ClassItems, p.CourseItems, p.ItemNames, p.CartCleared, p.CreatedAt)
		return e
	})
	if err != nil {
		return
	}

	deleted, err = removeMany(ctx, tx, r.observer, p.Email, p.ClassItems)
	if err != nil {
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	rec = p
	return
}

func (r *PaymentsRepo) ListByEmail(ctx context.Context, email string) ([]payment.Payment, error) {
	return r.query(ctx, "payments.list_by_email", `
		SELECT id, email, transaction_id, amount::float8, currency, class_items, course_items, item_names, cart_cleared, created_at
		FROM course_payments
		WHERE email = $1
		ORDER BY created_at DESC, id DESC`, email)
}

func (r *PaymentsRepo) ListUncleared(ctx context.Context, limit int) ([]payment.Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	return r.query(ctx, "payments.list_uncleared", `
		SELECT id, email, transaction_id, amount::float8, currency, class_items, course_items, item_names, cart_cleared, created_at
		FROM course_payments
		WHERE cart_cleared = false
		ORDER BY created_at ASC, id ASC
		LIMIT $1`, limit)
}

func (r *PaymentsRepo) MarkCleared(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}

	return r.observe("payments.mark_cleared", func() error {
		tag, e := r.pool.Exec(ctx, `UPDATE course_payments SET cart_cleared = true WHERE id = $1`, pid)
		if e != nil {
			return e
		}
		if tag.RowsAffected() == 0 {
			return ErrPaymentNotFound
		}
		return nil
	})
}

func (r *PaymentsRepo) query(ctx context.Context, op, sql string, args ...any) (out []payment.Payment, err error) {
	var rows pgx.Rows

	err = r.observe(op, func() error {
		rows, err = r.pool.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return
	}
	defer rows.Close()

	out = make([]payment.Payment, 0)
	for rows.Next() {
		var p payment.Payment
		err = rows.Scan(&p.ID, &p.Email, &p.TransactionID, &p.Amount, &p.Currency, &p.ClassItems, &p.CourseItems, &p.ItemNames, &p.CartCleared, &p.CreatedAt)
		if err != nil {
			return
		}
		out = append(out, p)
	}

	err = rows.Err()
	return
}
