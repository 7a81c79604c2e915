package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReconciler struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	n   int
	err error
}

func (f *fakeReconciler) ReconcilePayments(_ context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	if i < len(f.results) {
		return f.results[i].n, f.results[i].err
	}
	return 0, nil
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{20, 5 * time.Minute},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)
		assert.GreaterOrEqual(t, got, tt.min)
		assert.Less(t, got, tt.min+250*time.Millisecond)
	}
}

func TestRunBacksOffAndDrainsFullBatches(t *testing.T) {
	rec := &fakeReconciler{results: []result{
		{n: 2},
		{n: 0, err: errors.New("store down")},
		{n: 1},
	}}

	prom := observability.NewProm(prometheus.NewRegistry())
	w := New(Config{PollInterval: time.Second, Batch: 2}, rec, prom, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waits []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) bool {
		waits = append(waits, d)
		if len(waits) == 2 {
			cancel()
			return false
		}
		return true
	}

	require.NoError(t, w.Run(ctx))

	// full batch: no wait; failure: backoff; partial batch: poll interval
	require.Len(t, waits, 2)
	assert.GreaterOrEqual(t, waits[0], 2*time.Second)
	assert.Equal(t, time.Second, waits[1])
	assert.Equal(t, 3, rec.calls)

	assert.Equal(t, 2.0, testutil.ToFloat64(prom.ReconcileRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.ReconcileRuns.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(prom.ReconcileCleared))
	assert.False(t, w.Ready())
}

func TestHealthHandler(t *testing.T) {
	w := New(Config{}, &fakeReconciler{}, nil, nil)

	storeErr := errors.New("down")
	var pingErr error
	h := w.HealthHandler(func(context.Context) error { return pingErr }, nil)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))

	w.setReady(true)
	assert.Equal(t, http.StatusOK, get("/readyz"))

	pingErr = storeErr
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
}
