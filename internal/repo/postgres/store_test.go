package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/geocoder89/musiccamp/internal/db"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/repo/postgres"
	"github.com/geocoder89/musiccamp/internal/repo/storetest"
	"github.com/google/uuid"
)

// Runs against a disposable database named by TEST_DB_DSN.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	pool, err := db.NewPool(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) enrollment.Stores {
			_, err := pool.Exec(context.Background(), `TRUNCATE users, classes, instructors, course_cart, course_payments`)
			if err != nil {
				t.Fatalf("truncate: %v", err)
			}
			return postgres.NewStores(pool, nil)
		},
		MissingID: uuid.NewString(),
	})
}
