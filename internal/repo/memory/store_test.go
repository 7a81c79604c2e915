package memory_test

import (
	"testing"

	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/repo/memory"
	"github.com/geocoder89/musiccamp/internal/repo/storetest"
	"github.com/google/uuid"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) enrollment.Stores {
			return memory.NewStore().Stores()
		},
		MissingID: uuid.NewString(),
	})
}
