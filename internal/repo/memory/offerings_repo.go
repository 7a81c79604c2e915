package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/google/uuid"
)

type OfferingsRepo struct {
	mu    sync.RWMutex
	items map[string]offering.Offering
}

func NewOfferingsRepo() *OfferingsRepo {
	return &OfferingsRepo{items: make(map[string]offering.Offering)}
}

func (r *OfferingsRepo) Create(_ context.Context, o offering.Offering) (offering.Offering, error) {
	o.ID = uuid.NewString()

	r.mu.Lock()
	r.items[o.ID] = o
	r.mu.Unlock()

	return o, nil
}

func (r *OfferingsRepo) Get(id string) (offering.Offering, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[id]
	return o, ok
}

func (r *OfferingsRepo) List(_ context.Context) ([]offering.Offering, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]offering.Offering, 0, len(r.items))
	for _, o := range r.items {
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OfferingsRepo) Approve(_ context.Context, id string) (ack.Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.items[id]
	if !ok {
		return ack.Updated(0, 0), nil
	}

	if o.Status == offering.StatusApproved {
		return ack.Updated(1, 0), nil
	}

	o.Status = offering.StatusApproved
	o.UpdatedAt = time.Now().UTC()
	r.items[id] = o

	return ack.Updated(1, 1), nil
}

type InstructorsRepo struct {
	mu    sync.RWMutex
	items []instructor.Instructor
}

func NewInstructorsRepo(seed ...instructor.Instructor) *InstructorsRepo {
	items := make([]instructor.Instructor, 0, len(seed))
	for _, in := range seed {
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		items = append(items, in)
	}
	return &InstructorsRepo{items: items}
}

func (r *InstructorsRepo) List(_ context.Context) ([]instructor.Instructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]instructor.Instructor, len(r.items))
	copy(out, r.items)
	return out, nil
}
