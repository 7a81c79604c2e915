package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         uuid PRIMARY KEY,
	name       text NOT NULL DEFAULT '',
	email      text NOT NULL,
	photo_url  text NOT NULL DEFAULT '',
	role       text NOT NULL DEFAULT 'unassigned',
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	CONSTRAINT users_email_uniq UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS classes (
	id               uuid PRIMARY KEY,
	name             text NOT NULL,
	image            text NOT NULL DEFAULT '',
	instructor_name  text NOT NULL,
	instructor_email text NOT NULL,
	price            numeric(12,2) NOT NULL,
	available_seats  integer NOT NULL,
	status           text NOT NULL DEFAULT 'pending',
	created_at       timestamptz NOT NULL,
	updated_at       timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS instructors (
	id            uuid PRIMARY KEY,
	name          text NOT NULL,
	email         text NOT NULL,
	image         text NOT NULL DEFAULT '',
	classes_taken integer NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS course_cart (
	id              uuid PRIMARY KEY,
	email           text NOT NULL,
	class_id        text NOT NULL,
	name            text NOT NULL,
	image           text NOT NULL DEFAULT '',
	instructor_name text NOT NULL DEFAULT '',
	price           numeric(12,2) NOT NULL,
	created_at      timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS course_cart_email_idx ON course_cart (email);

CREATE TABLE IF NOT EXISTS course_payments (
	id             uuid PRIMARY KEY,
	email          text NOT NULL,
	transaction_id text NOT NULL,
	amount         numeric(12,2) NOT NULL,
	currency       text NOT NULL,
	class_items    text[] NOT NULL,
	course_items   text[] NOT NULL,
	item_names     text[],
	cart_cleared   boolean NOT NULL DEFAULT false,
	created_at     timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS course_payments_email_idx ON course_payments (email, created_at DESC);
CREATE INDEX IF NOT EXISTS course_payments_uncleared_idx ON course_payments (created_at) WHERE cart_cleared = false;
`

// Migrate creates the relational schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
