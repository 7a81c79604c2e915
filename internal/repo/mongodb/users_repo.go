package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	PhotoURL  string             `bson:"photoURL,omitempty"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		PhotoURL:  d.PhotoURL,
		Role:      user.Role(d.Role),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type UsersRepo struct {
	coll *mongo.Collection
	observer
}

func NewUsersRepo(db *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{coll: db.Collection(CollUsers), observer: observer{prom: prom}}
}

// Create relies on the unique index on email; a duplicate key is the
// "already exists" signal.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		PhotoURL:  u.PhotoURL,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	err := r.observe("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.observe("users.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var docs []userDoc

	err := r.observe("users.list", func() error {
		cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]user.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UsersRepo) SetRole(ctx context.Context, id string, role user.Role) (ack.Update, error) {
	oid, err := parseID(id)
	if err != nil {
		return ack.Update{}, err
	}

	return setField(ctx, r.coll, r.observer, "users.set_role", oid, "role", string(role))
}

func (r *UsersRepo) Delete(ctx context.Context, id string) (ack.Delete, error) {
	oid, err := parseID(id)
	if err != nil {
		return ack.Delete{}, err
	}

	var res *mongo.DeleteResult
	err = r.observe("users.delete", func() error {
		var e error
		res, e = r.coll.DeleteOne(ctx, bson.M{"_id": oid})
		return e
	})
	if err != nil {
		return ack.Delete{}, err
	}

	return ack.Deleted(res.DeletedCount), nil
}
