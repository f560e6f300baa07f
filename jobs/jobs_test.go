package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestDriftFields(t *testing.T) {
	stored := ClientTotals{Delivered: 1000, Invoiced: 800, Paid: 500, Owed: 300}

	require.Empty(t, DriftFields(stored, stored))

	// Rounding noise below tolerance is not drift.
	near := stored
	near.Paid += 0.005
	require.Empty(t, DriftFields(stored, near))

	drifted := stored
	drifted.Delivered = 900
	drifted.Owed = 400
	require.Equal(t, []string{"delivered", "owed"}, DriftFields(stored, drifted))
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewAggregateReconcileTask(AggregateReconcilePayload{ClientID: 42})
	require.NoError(t, err)
	require.Equal(t, TaskAggregateReconcile, task.Type())

	var payload AggregateReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, int64(42), payload.ClientID)
}

func TestClientEnqueuesToDefaultQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	info, err := client.EnqueueAggregateReconcile(context.Background(), AggregateReconcilePayload{})
	require.NoError(t, err)
	require.Equal(t, QueueDefault, info.Queue)
	require.Equal(t, TaskAggregateReconcile, info.Type)

	info, err = client.EnqueueSequenceGapScan(context.Background(), SequenceGapScanPayload{Year: 2025})
	require.NoError(t, err)
	require.Equal(t, TaskSequenceGapScan, info.Type)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() { _ = inspector.Close() }()
	queueInfo, err := inspector.GetQueueInfo(QueueDefault)
	require.NoError(t, err)
	require.Equal(t, 2, queueInfo.Pending)
}

func TestJobsHealthEndpoint(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	_, err = client.EnqueueAggregateReconcile(context.Background(), AggregateReconcilePayload{})
	require.NoError(t, err)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() { _ = inspector.Close() }()

	h := NewHandler(inspector, slog.Default())
	r := chi.NewRouter()
	r.Route("/jobs", func(sr chi.Router) {
		h.MountRoutes(sr)
	})

	req := httptest.NewRequest("GET", "/jobs/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":1}`, rec.Body.String())
}
