package enrollment

import (
	"context"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
)

// UserStore must reject a second user with the same email with
// user.ErrAlreadyExists, using the store's own uniqueness constraint.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SetRole(ctx context.Context, id string, role user.Role) (ack.Update, error)
	Delete(ctx context.Context, id string) (ack.Delete, error)
}

type OfferingStore interface {
	Create(ctx context.Context, o offering.Offering) (offering.Offering, error)
	List(ctx context.Context) ([]offering.Offering, error)
	Approve(ctx context.Context, id string) (ack.Update, error)
}

type InstructorStore interface {
	List(ctx context.Context) ([]instructor.Instructor, error)
}

type CartStore interface {
	Add(ctx context.Context, e cart.Entry) (cart.Entry, error)
	ListByEmail(ctx context.Context, email string) ([]cart.Entry, error)
	// Remove deletes the entry only when it belongs to email.
	Remove(ctx context.Context, email, id string) (ack.Delete, error)
	// RemoveMany deletes the listed entries owned by email. Unknown or
	// malformed ids are skipped.
	RemoveMany(ctx context.Context, email string, ids []string) (ack.Delete, error)
}

// PaymentStore.Record persists the payment and removes its cart entries.
// Stores that cannot do both atomically return the stored payment together
// with payment.ErrCleanupPending when the removal fails.
type PaymentStore interface {
	Record(ctx context.Context, p payment.Payment) (payment.Payment, ack.Delete, error)
	ListByEmail(ctx context.Context, email string) ([]payment.Payment, error)
	ListUncleared(ctx context.Context, limit int) ([]payment.Payment, error)
	MarkCleared(ctx context.Context, id string) error
}

// PaymentProcessor creates a payment intent for an amount in minor units and
// returns the client secret only.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error)
}

type Stores struct {
	Users       UserStore
	Offerings   OfferingStore
	Instructors InstructorStore
	Carts       CartStore
	Payments    PaymentStore
}
