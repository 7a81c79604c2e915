// Package enrollment keeps user roles consistent with administrative actions
// and cart entries consistent with completed payments.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/payments"
)

var (
	ErrInvalidFee = errors.New("course fee must be a positive amount within the processor limit")
	ErrProcessor  = errors.New("payment processor failure")
)

type Config struct {
	Currency string
	// CleanupDeferred, when set, is called for every payment recorded with
	// its cart removal left to reconciliation.
	CleanupDeferred func()
}

type Service struct {
	users       UserStore
	offerings   OfferingStore
	instructors InstructorStore
	carts       CartStore
	payments    PaymentStore
	processor   PaymentProcessor
	currency    string
	deferred    func()
	log         *slog.Logger
}

func New(stores Stores, processor PaymentProcessor, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}

	return &Service{
		users:       stores.Users,
		offerings:   stores.Offerings,
		instructors: stores.Instructors,
		carts:       stores.Carts,
		payments:    stores.Payments,
		processor:   processor,
		currency:    currency,
		deferred:    cfg.CleanupDeferred,
		log:         log,
	}
}

type UpsertResult struct {
	User     user.User
	Insert   ack.Insert
	Existing bool
}

// UpsertUser creates the user with the unassigned role. An existing record for
// the same email is left untouched and reported through Existing.
func (s *Service) UpsertUser(ctx context.Context, req user.UpsertRequest) (UpsertResult, error) {
	u := user.NewFromUpsertRequest(req)

	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return UpsertResult{Existing: true}, nil
		}
		return UpsertResult{}, fmt.Errorf("create user: %w", err)
	}

	return UpsertResult{User: created, Insert: ack.Inserted(created.ID)}, nil
}

// FindUser looks a user up by email. A missing user is not an error.
func (s *Service) FindUser(ctx context.Context, email string) (user.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, false, nil
		}
		return user.User{}, false, err
	}
	return u, true, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

// SetRole overwrites the role unconditionally. Last write wins.
func (s *Service) SetRole(ctx context.Context, userID string, role user.Role) (ack.Update, error) {
	if !role.Assignable() {
		return ack.Update{}, user.ErrInvalidRole
	}

	res, err := s.users.SetRole(ctx, userID, role)
	if err != nil {
		return ack.Update{}, err
	}

	s.log.InfoContext(ctx, "user role set", "user_id", userID, "role", string(role), "matched", res.MatchedCount)
	return res, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) (ack.Delete, error) {
	return s.users.Delete(ctx, userID)
}

// EnsureAdmin makes sure the bootstrap admin exists and holds the Admin role.
func (s *Service) EnsureAdmin(ctx context.Context, email, name string) (user.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, errors.New("admin email is required")
	}

	u, err := s.users.Create(ctx, user.NewFromUpsertRequest(user.UpsertRequest{Email: email, Name: name}))
	if err != nil {
		if !errors.Is(err, user.ErrAlreadyExists) {
			return user.User{}, fmt.Errorf("create admin: %w", err)
		}

		u, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return user.User{}, fmt.Errorf("load admin: %w", err)
		}
	}

	if u.Role == user.RoleAdmin {
		return u, nil
	}

	if _, err := s.users.SetRole(ctx, u.ID, user.RoleAdmin); err != nil {
		return user.User{}, fmt.Errorf("promote admin: %w", err)
	}

	u.Role = user.RoleAdmin
	return u, nil
}

func (s *Service) SubmitOffering(ctx context.Context, req offering.CreateRequest) (offering.Offering, error) {
	return s.offerings.Create(ctx, offering.NewFromCreateRequest(req))
}

func (s *Service) ListOfferings(ctx context.Context) ([]offering.Offering, error) {
	return s.offerings.List(ctx)
}

// ApproveOffering sets the status to approved without looking at the current
// one, so repeated approvals have no further effect.
func (s *Service) ApproveOffering(ctx context.Context, offeringID string) (ack.Update, error) {
	return s.offerings.Approve(ctx, offeringID)
}

func (s *Service) ListInstructors(ctx context.Context) ([]instructor.Instructor, error) {
	return s.instructors.List(ctx)
}

func (s *Service) AddToCart(ctx context.Context, req cart.AddRequest) (cart.Entry, error) {
	return s.carts.Add(ctx, cart.NewFromAddRequest(req))
}

// ListCart returns an empty cart for an empty email without querying.
func (s *Service) ListCart(ctx context.Context, email string) ([]cart.Entry, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return []cart.Entry{}, nil
	}

	return s.carts.ListByEmail(ctx, email)
}

// RemoveFromCart deletes one of email's cart entries. An entry owned by
// someone else is reported as not deleted.
func (s *Service) RemoveFromCart(ctx context.Context, email, entryID string) (ack.Delete, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return ack.Deleted(0), nil
	}

	return s.carts.Remove(ctx, email, entryID)
}

type RecordResult struct {
	Payment        payment.Payment
	Insert         ack.Insert
	Delete         ack.Delete
	CleanupPending bool
}

// RecordPayment stores the payment and removes the paid cart entries. When the
// store could not remove them in the same step, the result is still a success
// with CleanupPending set; ReconcilePayments completes it later.
func (s *Service) RecordPayment(ctx context.Context, req payment.RecordRequest) (RecordResult, error) {
	p := payment.NewFromRecordRequest(req, s.currency)

	stored, deleted, err := s.payments.Record(ctx, p)
	if err != nil {
		if errors.Is(err, payment.ErrCleanupPending) {
			s.log.WarnContext(ctx, "payment cart cleanup deferred",
				"payment_id", stored.ID,
				"email", stored.Email,
				"err", err,
			)
			if s.deferred != nil {
				s.deferred()
			}

			return RecordResult{
				Payment:        stored,
				Insert:         ack.Inserted(stored.ID),
				Delete:         ack.Delete{},
				CleanupPending: true,
			}, nil
		}
		return RecordResult{}, fmt.Errorf("record payment: %w", err)
	}

	return RecordResult{
		Payment: stored,
		Insert:  ack.Inserted(stored.ID),
		Delete:  deleted,
	}, nil
}

// ListPayments returns the payment history of email, or nothing for an empty
// email.
func (s *Service) ListPayments(ctx context.Context, email string) ([]payment.Payment, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return []payment.Payment{}, nil
	}

	return s.payments.ListByEmail(ctx, email)
}

// CreatePaymentIntent converts fee to minor units (round half up) and returns
// the processor's client secret. Fees that round to nothing or exceed the
// processor's ceiling are ErrInvalidFee.
func (s *Service) CreatePaymentIntent(ctx context.Context, fee float64) (string, error) {
	amount, err := payments.ToMinorUnits(fee)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFee, err)
	}

	secret, err := s.processor.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	return secret, nil
}

// ReconcilePayments removes the cart entries of payments whose cleanup did not
// complete and marks them cleared. Safe to repeat.
func (s *Service) ReconcilePayments(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}

	pending, err := s.payments.ListUncleared(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list uncleared payments: %w", err)
	}

	done := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		res, err := s.carts.RemoveMany(ctx, p.Email, p.ClassItems)
		if err != nil {
			return done, fmt.Errorf("clear cart for payment %s: %w", p.ID, err)
		}

		if err := s.payments.MarkCleared(ctx, p.ID); err != nil {
			return done, fmt.Errorf("mark payment %s cleared: %w", p.ID, err)
		}

		s.log.InfoContext(ctx, "payment reconciled", "payment_id", p.ID, "deleted", res.DeletedCount)
		done++
	}

	return done, nil
}
