package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPaymentNotFound = errors.New("payment not found")

type paymentDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email"`
	TransactionID string             `bson:"transactionId"`
	Amount        float64            `bson:"price"`
	Currency      string             `bson:"currency"`
	ClassItems    []string           `bson:"classItems"`
	CourseItems   []string           `bson:"courseItems"`
	ItemNames     []string           `bson:"itemNames,omitempty"`
	CartCleared   bool               `bson:"cart_cleared"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d paymentDoc) toDomain() payment.Payment {
	return payment.Payment{
		ID:            d.ID.Hex(),
		Email:         d.Email,
		TransactionID: d.TransactionID,
		Amount:        d.Amount,
		Currency:      d.Currency,
		ClassItems:    d.ClassItems,
		CourseItems:   d.CourseItems,
		ItemNames:     d.ItemNames,
		CartCleared:   d.CartCleared,
		CreatedAt:     d.CreatedAt,
	}
}

// PaymentsRepo writes to coursePayment and clears courseCart. With useTx the
// two writes share a transaction, which needs a replica set. Without it the
// payment is written first with cart_cleared=false and flipped once the cart
// removal succeeds.
type PaymentsRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	carts  *mongo.Collection
	useTx  bool
	observer
}

func NewPaymentsRepo(client *mongo.Client, db *mongo.Database, prom *observability.Prom, useTx bool) *PaymentsRepo {
	return &PaymentsRepo{
		client:   client,
		coll:     db.Collection(CollPayments),
		carts:    db.Collection(CollCart),
		useTx:    useTx,
		observer: observer{prom: prom},
	}
}

func (r *PaymentsRepo) Record(ctx context.Context, p payment.Payment) (payment.Payment, ack.Delete, error) {
	doc := paymentDoc{
		ID:            primitive.NewObjectID(),
		Email:         p.Email,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		ClassItems:    p.ClassItems,
		CourseItems:   p.CourseItems,
		ItemNames:     p.ItemNames,
		CreatedAt:     p.CreatedAt,
	}

	if r.useTx {
		return r.recordTx(ctx, doc)
	}

	err := r.observe("payments.insert", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return payment.Payment{}, ack.Delete{}, err
	}

	deleted, err := removeMany(ctx, r.carts, r.observer, doc.Email, doc.ClassItems)
	if err != nil {
		return doc.toDomain(), ack.Delete{}, fmt.Errorf("%w: %v", payment.ErrCleanupPending, err)
	}

	if err := r.MarkCleared(ctx, doc.ID.Hex()); err != nil {
		return doc.toDomain(), deleted, fmt.Errorf("%w: %v", payment.ErrCleanupPending, err)
	}

	doc.CartCleared = true
	return doc.toDomain(), deleted, nil
}

func (r *PaymentsRepo) recordTx(ctx context.Context, doc paymentDoc) (payment.Payment, ack.Delete, error) {
	doc.CartCleared = true

	session, err := r.client.StartSession()
	if err != nil {
		return payment.Payment{}, ack.Delete{}, err
	}
	defer session.EndSession(ctx)

	var deleted ack.Delete
	err = r.observe("payments.record_tx", func() error {
		_, e := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			if _, e := r.coll.InsertOne(sc, doc); e != nil {
				return nil, e
			}

			res, e := r.carts.DeleteMany(sc, bson.M{"_id": bson.M{"$in": parseIDs(doc.ClassItems)}, "email": doc.Email})
			if e != nil {
				return nil, e
			}
			deleted = ack.Deleted(res.DeletedCount)
			return nil, nil
		})
		return e
	})
	if err != nil {
		return payment.Payment{}, ack.Delete{}, err
	}

	return doc.toDomain(), deleted, nil
}

func (r *PaymentsRepo) ListByEmail(ctx context.Context, email string) ([]payment.Payment, error) {
	return r.find(ctx, "payments.list_by_email", bson.M{"email": email},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *PaymentsRepo) ListUncleared(ctx context.Context, limit int) ([]payment.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, "payments.list_uncleared", bson.M{"cart_cleared": false}, opts)
}

func (r *PaymentsRepo) MarkCleared(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	return r.observe("payments.mark_cleared", func() error {
		res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"cart_cleared": true}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrPaymentNotFound
		}
		return nil
	})
}

func (r *PaymentsRepo) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]payment.Payment, error) {
	var docs []paymentDoc

	err := r.observe(op, func() error {
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]payment.Payment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
