package postgres

import (
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewStores(pool *pgxpool.Pool, prom *observability.Prom) enrollment.Stores {
	return enrollment.Stores{
		Users:       NewUsersRepo(pool, prom),
		Offerings:   NewOfferingsRepo(pool, prom),
		Instructors: NewInstructorsRepo(pool, prom),
		Carts:       NewCartsRepo(pool, prom),
		Payments:    NewPaymentsRepo(pool, prom),
	}
}
