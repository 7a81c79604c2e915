// Package postgres is the relational store. Every multi-table write runs in a
// single transaction.
package postgres

import (
	"errors"

	"github.com/geocoder89/musiccamp/internal/domain"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

type observer struct {
	prom *observability.Prom
}

func (o observer) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn)
	}
	return fn()
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return u, nil
}

// validIDs keeps the ids that parse as UUIDs, in canonical form, for use
// with = ANY($n::uuid[]).
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		out = append(out, u.String())
	}
	return out
}
