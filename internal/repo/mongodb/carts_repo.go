package mongodb

import (
	"context"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	ClassID        string             `bson:"classId"`
	Name           string             `bson:"name"`
	Image          string             `bson:"image,omitempty"`
	InstructorName string             `bson:"instructorName,omitempty"`
	Price          float64            `bson:"price"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d cartDoc) toDomain() cart.Entry {
	return cart.Entry{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		ClassID:        d.ClassID,
		Name:           d.Name,
		Image:          d.Image,
		InstructorName: d.InstructorName,
		Price:          d.Price,
		CreatedAt:      d.CreatedAt,
	}
}

type CartsRepo struct {
	coll *mongo.Collection
	observer
}

func NewCartsRepo(db *mongo.Database, prom *observability.Prom) *CartsRepo {
	return &CartsRepo{coll: db.Collection(CollCart), observer: observer{prom: prom}}
}

func (r *CartsRepo) Add(ctx context.Context, e cart.Entry) (cart.Entry, error) {
	doc := cartDoc{
		ID:             primitive.NewObjectID(),
		Email:          e.Email,
		ClassID:        e.ClassID,
		Name:           e.Name,
		Image:          e.Image,
		InstructorName: e.InstructorName,
		Price:          e.Price,
		CreatedAt:      e.CreatedAt,
	}

	err := r.observe("cart.add", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return cart.Entry{}, err
	}

	return doc.toDomain(), nil
}

func (r *CartsRepo) ListByEmail(ctx context.Context, email string) ([]cart.Entry, error) {
	var docs []cartDoc

	err := r.observe("cart.list_by_email", func() error {
		cur, err := r.coll.Find(ctx, bson.M{"email": email}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]cart.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CartsRepo) Remove(ctx context.Context, email, id string) (ack.Delete, error) {
	oid, err := parseID(id)
	if err != nil {
		return ack.Delete{}, err
	}

	var res *mongo.DeleteResult
	err = r.observe("cart.remove", func() error {
		var e error
		res, e = r.coll.DeleteOne(ctx, bson.M{"_id": oid, "email": email})
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(res.DeletedCount), nil
}

func (r *CartsRepo) RemoveMany(ctx context.Context, email string, ids []string) (ack.Delete, error) {
	return removeMany(ctx, r.coll, r.observer, email, ids)
}

// removeMany is shared with the payment transaction; ctx may be a session
// context.
func removeMany(ctx context.Context, coll *mongo.Collection, o observer, email string, ids []string) (ack.Delete, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return ack.Deleted(0), nil
	}

	var res *mongo.DeleteResult
	err := o.observe("cart.remove_many", func() error {
		var e error
		res, e = coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}, "email": email})
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(res.DeletedCount), nil
}
