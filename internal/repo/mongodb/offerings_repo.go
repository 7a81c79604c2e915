package mongodb

import (
	"context"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type offeringDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Image           string             `bson:"image,omitempty"`
	InstructorName  string             `bson:"instructorName"`
	InstructorEmail string             `bson:"instructorEmail"`
	Price           float64            `bson:"price"`
	AvailableSeats  int                `bson:"availableSeats"`
	Status          string             `bson:"status"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d offeringDoc) toDomain() offering.Offering {
	return offering.Offering{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Image:           d.Image,
		InstructorName:  d.InstructorName,
		InstructorEmail: d.InstructorEmail,
		Price:           d.Price,
		AvailableSeats:  d.AvailableSeats,
		Status:          offering.Status(d.Status),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type OfferingsRepo struct {
	coll *mongo.Collection
	observer
}

func NewOfferingsRepo(db *mongo.Database, prom *observability.Prom) *OfferingsRepo {
	return &OfferingsRepo{coll: db.Collection(CollClasses), observer: observer{prom: prom}}
}

func (r *OfferingsRepo) Create(ctx context.Context, o offering.Offering) (offering.Offering, error) {
	doc := offeringDoc{
		ID:              primitive.NewObjectID(),
		Name:            o.Name,
		Image:           o.Image,
		InstructorName:  o.InstructorName,
		InstructorEmail: o.InstructorEmail,
		Price:           o.Price,
		AvailableSeats:  o.AvailableSeats,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	err := r.observe("classes.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return offering.Offering{}, err
	}

	return doc.toDomain(), nil
}

func (r *OfferingsRepo) List(ctx context.Context) ([]offering.Offering, error) {
	var docs []offeringDoc

	err := r.observe("classes.list", func() error {
		cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]offering.Offering, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *OfferingsRepo) Approve(ctx context.Context, id string) (ack.Update, error) {
	oid, err := parseID(id)
	if err != nil {
		return ack.Update{}, err
	}

	return setField(ctx, r.coll, r.observer, "classes.approve", oid, "status", string(offering.StatusApproved))
}

type instructorDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	Image        string             `bson:"image,omitempty"`
	ClassesTaken int                `bson:"classesTaken"`
}

type InstructorsRepo struct {
	coll *mongo.Collection
	observer
}

func NewInstructorsRepo(db *mongo.Database, prom *observability.Prom) *InstructorsRepo {
	return &InstructorsRepo{coll: db.Collection(CollInstructors), observer: observer{prom: prom}}
}

func (r *InstructorsRepo) List(ctx context.Context) ([]instructor.Instructor, error) {
	var docs []instructorDoc

	err := r.observe("instructors.list", func() error {
		cur, err := r.coll.Find(ctx, bson.M{})
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]instructor.Instructor, 0, len(docs))
	for _, d := range docs {
		out = append(out, instructor.Instructor{
			ID:           d.ID.Hex(),
			Name:         d.Name,
			Email:        d.Email,
			Image:        d.Image,
			ClassesTaken: d.ClassesTaken,
		})
	}
	return out, nil
}
