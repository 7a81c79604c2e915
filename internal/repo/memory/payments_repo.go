package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/google/uuid"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentsRepo records payments and clears the matching cart entries while
// holding both locks, so no reader sees one without the other.
type PaymentsRepo struct {
	mu    sync.RWMutex
	items map[string]payment.Payment
	carts *CartsRepo
}

func NewPaymentsRepo(carts *CartsRepo) *PaymentsRepo {
	return &PaymentsRepo{
		items: make(map[string]payment.Payment),
		carts: carts,
	}
}

func (r *PaymentsRepo) Record(_ context.Context, p payment.Payment) (payment.Payment, ack.Delete, error) {
	p.ID = uuid.NewString()
	p.CartCleared = true

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts.mu.Lock()
	deleted := r.carts.removeManyLocked(p.Email, p.ClassItems)
	r.carts.mu.Unlock()

	r.items[p.ID] = p

	return p, ack.Deleted(deleted), nil
}

// Insert stores a payment without touching the cart, leaving it for the
// reconciliation pass.
func (r *PaymentsRepo) Insert(p payment.Payment) payment.Payment {
	p.ID = uuid.NewString()
	p.CartCleared = false

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p
}

func (r *PaymentsRepo) ListByEmail(_ context.Context, email string) ([]payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]payment.Payment, 0)
	for _, p := range r.items {
		if p.Email == email {
			out = append(out, p)
		}
	}

	sortNewestFirst(out)
	return out, nil
}

func (r *PaymentsRepo) ListUncleared(_ context.Context, limit int) ([]payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]payment.Payment, 0)
	for _, p := range r.items {
		if !p.CartCleared {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PaymentsRepo) MarkCleared(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.CartCleared = true
	r.items[id] = p
	return nil
}

func sortNewestFirst(ps []payment.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
