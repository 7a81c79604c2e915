package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/google/uuid"
)

type CartsRepo struct {
	mu    sync.RWMutex
	items map[string]cart.Entry
}

func NewCartsRepo() *CartsRepo {
	return &CartsRepo{items: make(map[string]cart.Entry)}
}

func (r *CartsRepo) Add(_ context.Context, e cart.Entry) (cart.Entry, error) {
	e.ID = uuid.NewString()

	r.mu.Lock()
	r.items[e.ID] = e
	r.mu.Unlock()

	return e, nil
}

func (r *CartsRepo) ListByEmail(_ context.Context, email string) ([]cart.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cart.Entry, 0)
	for _, e := range r.items {
		if e.Email == email {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CartsRepo) Remove(_ context.Context, email, id string) (ack.Delete, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.items[id]; !ok || e.Email != email {
		return ack.Deleted(0), nil
	}
	delete(r.items, id)
	return ack.Deleted(1), nil
}

func (r *CartsRepo) RemoveMany(_ context.Context, email string, ids []string) (ack.Delete, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ack.Deleted(r.removeManyLocked(email, ids)), nil
}

// removeManyLocked requires r.mu to be held for writing.
func (r *CartsRepo) removeManyLocked(email string, ids []string) int64 {
	var n int64
	for _, id := range ids {
		e, ok := r.items[id]
		if !ok || e.Email != email {
			continue
		}
		delete(r.items, id)
		n++
	}
	return n
}
