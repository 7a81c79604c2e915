// Package storetest is a behavioural suite every enrollment store passes.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Harness struct {
	// New returns empty stores.
	New func(t *testing.T) enrollment.Stores
	// MissingID is well formed for the store but names no record.
	MissingID string
}

func Run(t *testing.T, h Harness) {
	t.Run("users unique by email", func(t *testing.T) { usersUnique(t, h) })
	t.Run("set role", func(t *testing.T) { setRole(t, h) })
	t.Run("approve offering", func(t *testing.T) { approveOffering(t, h) })
	t.Run("cart", func(t *testing.T) { cartOps(t, h) })
	t.Run("record payment", func(t *testing.T) { recordPayment(t, h) })
}

func newUser(email string) user.User {
	return user.NewFromUpsertRequest(user.UpsertRequest{Email: email, Name: "Test"})
}

func usersUnique(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users.Create(ctx, newUser("same@example.com"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, user.ErrAlreadyExists):
				dupes++
			default:
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, dupes)

	got, err := s.Users.GetByEmail(ctx, "same@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUnassigned, got.Role)

	_, err = s.Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func setRole(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	u, err := s.Users.Create(ctx, newUser("role@example.com"))
	require.NoError(t, err)

	res, err := s.Users.SetRole(ctx, u.ID, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)

	res, err = s.Users.SetRole(ctx, u.ID, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(0), res.ModifiedCount)

	_, err = s.Users.SetRole(ctx, u.ID, user.RoleStudent)
	require.NoError(t, err)

	got, err := s.Users.GetByEmail(ctx, "role@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, got.Role)

	res, err = s.Users.SetRole(ctx, h.MissingID, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.MatchedCount)

	del, err := s.Users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	del, err = s.Users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), del.DeletedCount)
}

func approveOffering(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	o, err := s.Offerings.Create(ctx, offering.NewFromCreateRequest(offering.CreateRequest{
		Name: "Jazz Piano", InstructorName: "Mia", InstructorEmail: "mia@example.com", Price: 20, AvailableSeats: 5,
	}))
	require.NoError(t, err)
	assert.Equal(t, offering.StatusPending, o.Status)

	for i, wantModified := range []int64{1, 0} {
		res, err := s.Offerings.Approve(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount, "approval %d", i)
		assert.Equal(t, wantModified, res.ModifiedCount, "approval %d", i)
	}

	list, err := s.Offerings.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, offering.StatusApproved, list[0].Status)

	res, err := s.Offerings.Approve(ctx, h.MissingID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.MatchedCount)
}

func addEntry(t *testing.T, s enrollment.Stores, email, class string) cart.Entry {
	t.Helper()

	e, err := s.Carts.Add(context.Background(), cart.NewFromAddRequest(cart.AddRequest{
		Email: email, ClassID: class, Name: class, Price: 10,
	}))
	require.NoError(t, err)
	return e
}

func cartOps(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	a := addEntry(t, s, "ana@example.com", "c1")
	b := addEntry(t, s, "ana@example.com", "c2")
	other := addEntry(t, s, "bob@example.com", "c1")

	list, err := s.Carts.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// entries owned by someone else are not removed
	res, err := s.Carts.RemoveMany(ctx, "ana@example.com", []string{a.ID, other.ID, "not-an-id"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	res, err = s.Carts.Remove(ctx, "ana@example.com", other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.DeletedCount)

	res, err = s.Carts.Remove(ctx, "ana@example.com", b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	res, err = s.Carts.Remove(ctx, "ana@example.com", b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.DeletedCount)

	list, err = s.Carts.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.Carts.ListByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func recordPayment(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	c1 := addEntry(t, s, "ana@example.com", "o1")
	c2 := addEntry(t, s, "ana@example.com", "o2")
	keep := addEntry(t, s, "ana@example.com", "o3")

	p := payment.NewFromRecordRequest(payment.RecordRequest{
		Email:         "ana@example.com",
		TransactionID: "pi_1",
		Amount:        20,
		ClassItems:    []string{c1.ID, c2.ID},
		CourseItems:   []string{"o1", "o2"},
	}, "usd")

	stored, deleted, err := s.Payments.Record(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.True(t, stored.CartCleared)
	assert.Equal(t, int64(2), deleted.DeletedCount)

	left, err := s.Carts.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)

	time.Sleep(2 * time.Millisecond)
	_, _, err = s.Payments.Record(ctx, payment.NewFromRecordRequest(payment.RecordRequest{
		Email: "ana@example.com", TransactionID: "pi_2", Amount: 10, ClassItems: []string{keep.ID},
	}, "usd"))
	require.NoError(t, err)

	history, err := s.Payments.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "pi_2", history[0].TransactionID)
	assert.Equal(t, []string{c1.ID, c2.ID}, history[1].ClassItems)

	pending, err := s.Payments.ListUncleared(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
