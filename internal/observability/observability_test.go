package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, "deadlock"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"wrapped pg", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "unique_violation"},
		{"mongo duplicate key", dup, "unique_violation"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"connection text", errors.New("connection refused"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDBErr(tt.err))
		})
	}
}

func TestObserveDBCountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	require.Error(t, err)

	require.NoError(t, p.ObserveDB("users.create", func() error { return nil }))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "payment recorded")
	log.DebugContext(ctx, "hidden at info level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))

	assert.Equal(t, "payment recorded", rec["msg"])
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])
}

func TestLoggerAddsRequestAndActor(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := WithActor(WithRequestID(context.Background(), "req-42"), "ana@example.com")
	log.InfoContext(ctx, "cart entry added")
	log.Info("no request context")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var tagged, plain map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &tagged))
	require.NoError(t, json.Unmarshal(lines[1], &plain))

	assert.Equal(t, "req-42", tagged["request_id"])
	assert.Equal(t, "ana@example.com", tagged["actor"])
	assert.NotContains(t, plain, "request_id")
	assert.NotContains(t, plain, "actor")
}
