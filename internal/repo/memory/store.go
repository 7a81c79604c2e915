// Package memory is a process-local store used by tests and by the API when
// no database is configured.
package memory

import "github.com/geocoder89/musiccamp/internal/enrollment"

type Store struct {
	Users       *UsersRepo
	Offerings   *OfferingsRepo
	Instructors *InstructorsRepo
	Carts       *CartsRepo
	Payments    *PaymentsRepo
}

func NewStore() *Store {
	carts := NewCartsRepo()

	return &Store{
		Users:       NewUsersRepo(),
		Offerings:   NewOfferingsRepo(),
		Instructors: NewInstructorsRepo(),
		Carts:       carts,
		Payments:    NewPaymentsRepo(carts),
	}
}

func (s *Store) Stores() enrollment.Stores {
	return enrollment.Stores{
		Users:       s.Users,
		Offerings:   s.Offerings,
		Instructors: s.Instructors,
		Carts:       s.Carts,
		Payments:    s.Payments,
	}
}
