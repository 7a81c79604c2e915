package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/musiccamp/internal/auth"
	"github.com/geocoder89/musiccamp/internal/config"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/geocoder89/musiccamp/internal/repo/memory"
	"github.com/geocoder89/musiccamp/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemory(t *testing.T) *memory.Store {
	t.Helper()

	mem := memory.NewStore()
	prev := opener
	opener = func(_ context.Context, cfg config.Config, _ *observability.Prom, _ *slog.Logger) (*store.Backend, error) {
		return &store.Backend{
			Driver:  config.StoreMemory,
			Stores:  mem.Stores(),
			Ping:    func(context.Context) error { return nil },
			Close:   func() {},
			Migrate: func(context.Context) error { return nil },
		}, nil
	}
	t.Cleanup(func() { opener = prev })

	return mem
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedAdmin(t *testing.T) {
	mem := useMemory(t)

	out, err := run(t, "seed-admin", "--email", "Boss@Example.com", "--name", "Boss")
	require.NoError(t, err)
	assert.Contains(t, out, "admin boss@example.com")

	u, err := mem.Users.GetByEmail(context.Background(), "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
}

func TestReconcile(t *testing.T) {
	mem := useMemory(t)
	ctx := context.Background()

	entries := make([]string, 0, 2)
	for _, class := range []string{"o1", "o2"} {
		e, err := mem.Carts.Add(ctx, cartEntry(class))
		require.NoError(t, err)
		entries = append(entries, e.ID)
	}

	mem.Payments.Insert(payment.NewFromRecordRequest(payment.RecordRequest{
		Email: "ana@example.com", TransactionID: "pi_1", Amount: 20, ClassItems: entries,
	}, "usd"))

	out, err := run(t, "reconcile", "--limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "reconciled 1 payments")

	left, err := mem.Carts.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMigrate(t *testing.T) {
	useMemory(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated memory store")
}

func cartEntry(class string) cart.Entry {
	return cart.NewFromAddRequest(cart.AddRequest{Email: "ana@example.com", ClassID: class, Name: class, Price: 10})
}

func TestTokenCarriesStoredRole(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_SECRET", "ctl-secret")
	useMemory(t)

	_, err := run(t, "seed-admin", "--email", "boss@example.com")
	require.NoError(t, err)

	out, err := run(t, "token", "--email", "Boss@Example.com")
	require.NoError(t, err)

	claims, err := auth.NewManager("ctl-secret", time.Hour).VerifyAccessToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", claims.Email)
	assert.Equal(t, string(user.RoleAdmin), claims.Role)
	assert.NotEmpty(t, claims.UserID)
}

func TestTokenRejectsUnknownUserAndMissingSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_SECRET", "ctl-secret")
	useMemory(t)

	_, err := run(t, "token", "--email", "nobody@example.com")
	assert.ErrorContains(t, err, "no user")

	t.Setenv("ACCESS_TOKEN_SECRET", "")
	_, err = run(t, "token", "--email", "nobody@example.com")
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
}
