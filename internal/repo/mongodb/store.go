package mongodb

import (
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
)

type Options struct {
	Transactions bool
}

func NewStores(client *mongo.Client, db *mongo.Database, prom *observability.Prom, opts Options) enrollment.Stores {
	return enrollment.Stores{
		Users:       NewUsersRepo(db, prom),
		Offerings:   NewOfferingsRepo(db, prom),
		Instructors: NewInstructorsRepo(db, prom),
		Carts:       NewCartsRepo(db, prom),
		Payments:    NewPaymentsRepo(client, db, prom, opts.Transactions),
	}
}
