package postgres

import (
	"context"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OfferingsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewOfferingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *OfferingsRepo {
	return &OfferingsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *OfferingsRepo) Create(ctx context.Context, o offering.Offering) (offering.Offering, error) {
	o.ID = uuid.NewString()

	err := r.observe("classes.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO classes (id, name, image, instructor_name, instructor_email, price, available_seats, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, o.ID, o.Name, o.Image, o.InstructorName, o.InstructorEmail, o.Price, o.AvailableSeats, string(o.Status), o.CreatedAt, o.UpdatedAt)
		return err
	})
	if err != nil {
		return offering.Offering{}, err
	}

	return o, nil
}

func (r *OfferingsRepo) List(ctx context.Context) (out []offering.Offering, err error) {
	var rows pgx.Rows

	err = r.observe("classes.list", func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT id, name, image, instructor_name, instructor_email, price::float8, available_seats, status, created_at, updated_at
		FROM classes
		ORDER BY created_at ASC, id ASC`)
		return err
	})
	if err != nil {
		return
	}
	defer rows.Close()

	out = make([]offering.Offering, 0)
	for rows.Next() {
		var (
			o      offering.Offering
			status string
		)
		err = rows.Scan(&o.ID, &o.Name, &o.Image, &o.InstructorName, &o.InstructorEmail, &o.Price, &o.AvailableSeats, &status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return
		}
		o.Status = offering.Status(status)
		out = append(out, o)
	}

	err = rows.Err()
	return
}

// Approve reports a match for an already approved offering but no
// modification.
func (r *OfferingsRepo) Approve(ctx context.Context, id string) (ack.Update, error) {
	oid, err := parseID(id)
	if err != nil {
		return ack.Update{}, err
	}

	var matched, modified int64
	err = r.observe("classes.approve", func() error {
		return r.pool.QueryRow(ctx, `
		WITH target AS (
			SELECT id FROM classes WHERE id = $1
		), changed AS (
			UPDATE classes SET status = $2, updated_at = now()
			WHERE id = $1 AND status <> $2
			RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM changed)
		`, oid, string(offering.StatusApproved)).Scan(&matched, &modified)
	})
	if err != nil {
		return ack.Update{}, err
	}

	return ack.Updated(matched, modified), nil
}

type InstructorsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewInstructorsRepo(pool *pgxpool.Pool, prom *observability.Prom) *InstructorsRepo {
	return &InstructorsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *InstructorsRepo) List(ctx context.Context) (out []instructor.Instructor, err error) {
	var rows pgx.Rows

	err = r.observe("instructors.list", func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT id, name, email, image, classes_taken
		FROM instructors
		ORDER BY name ASC`)
		return err
	})
	if err != nil {
		return
	}
	defer rows.Close()

	out = make([]instructor.Instructor, 0)
	for rows.Next() {
		var i instructor.Instructor
		if err = rows.Scan(&i.ID, &i.Name, &i.Email, &i.Image, &i.ClassesTaken); err != nil {
			return
		}
		out = append(out, i)
	}

	err = rows.Err()
	return
}
