// Package mongodb stores the marketplace collections in MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain"
	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollUsers       = "users"
	CollClasses     = "classes"
	CollInstructors = "instructors"
	CollCart        = "courseCart"
	CollPayments    = "coursePayment"
)

type observer struct {
	prom *observability.Prom
}

func (o observer) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn)
	}
	return fn()
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

// parseIDs drops ids that are not valid ObjectIDs.
func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

// setField overwrites one field and bumps updated_at. The write is skipped
// when the field already holds value, so repeating it reports a match with
// no modification.
func setField(ctx context.Context, coll *mongo.Collection, o observer, op string, oid primitive.ObjectID, field, value string) (ack.Update, error) {
	var matched, modified int64

	err := o.observe(op, func() error {
		res, err := coll.UpdateOne(ctx,
			bson.M{"_id": oid, field: bson.M{"$ne": value}},
			bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
		)
		if err != nil {
			return err
		}

		matched, modified = res.MatchedCount, res.ModifiedCount
		if matched == 0 {
			n, err := coll.CountDocuments(ctx, bson.M{"_id": oid})
			if err != nil {
				return err
			}
			matched = n
		}
		return nil
	})
	if err != nil {
		return ack.Update{}, err
	}

	return ack.Updated(matched, modified), nil
}
