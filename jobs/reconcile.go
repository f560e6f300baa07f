package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// driftTolerance absorbs float rounding between the delta-maintained totals
// and the recomputed sums.
const driftTolerance = 0.01

// ClientTotals is one client's running totals, stored or recomputed.
type ClientTotals struct {
	Delivered float64
	Invoiced  float64
	Paid      float64
	Owed      float64
}

// DriftFields compares stored totals against recomputed ones and names the
// fields that disagree beyond tolerance.
func DriftFields(stored, computed ClientTotals) []string {
	var fields []string
	check := func(name string, a, b float64) {
		if math.Abs(a-b) > driftTolerance {
			fields = append(fields, name)
		}
	}
	check("delivered", stored.Delivered, computed.Delivered)
	check("invoiced", stored.Invoiced, computed.Invoiced)
	check("paid", stored.Paid, computed.Paid)
	check("owed", stored.Owed, computed.Owed)
	return fields
}

// AggregateReconcileJob recomputes each client's totals from its documents and
// logs any drift against the stored aggregate. It never writes: the live
// aggregates move only by deltas inside document transactions, and this job
// exists to tell us when that bookkeeping went wrong.
type AggregateReconcileJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewAggregateReconcileJob initialises the reconcile handler.
func NewAggregateReconcileJob(pool *pgxpool.Pool, logger *slog.Logger) *AggregateReconcileJob {
	return &AggregateReconcileJob{Pool: pool, Logger: logger}
}

type clientRow struct {
	ID     int64
	Name   string
	Stored ClientTotals
}

// Handle executes the reconciliation.
func (j *AggregateReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("aggregate reconcile: handler not configured")
	}
	var payload AggregateReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	start := time.Now()
	logger.Info("starting aggregate reconcile", slog.Int64("client_id", payload.ClientID))

	rows, err := j.listClients(ctx, payload.ClientID)
	if err != nil {
		logger.Error("list clients", slog.Any("error", err))
		return err
	}

	var drifted int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, c := range rows {
		c := c
		g.Go(func() error {
			computed, err := j.recompute(gctx, c.ID)
			if err != nil {
				return err
			}
			fields := DriftFields(c.Stored, computed)
			if len(fields) == 0 {
				return nil
			}
			atomic.AddInt64(&drifted, 1)
			logger.Warn("client aggregate drift",
				slog.Int64("client_id", c.ID),
				slog.String("client_name", c.Name),
				slog.Any("fields", fields),
				slog.Float64("stored_owed", c.Stored.Owed),
				slog.Float64("computed_owed", computed.Owed),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("reconcile failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed aggregate reconcile",
		slog.Int("clients", len(rows)),
		slog.Int64("drifted", drifted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *AggregateReconcileJob) listClients(ctx context.Context, clientID int64) ([]clientRow, error) {
	query := `SELECT id, name, total_delivered, total_invoiced, total_paid, total_owed FROM clients`
	args := []any{}
	if clientID > 0 {
		query += ` WHERE id = $1`
		args = append(args, clientID)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []clientRow
	for rows.Next() {
		var c clientRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Stored.Delivered, &c.Stored.Invoiced, &c.Stored.Paid, &c.Stored.Owed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// recompute derives the totals from documents: delivered from DELIVERED
// deliveries, the billing totals from invoices that reached ISSUED or beyond.
func (j *AggregateReconcileJob) recompute(ctx context.Context, clientID int64) (ClientTotals, error) {
	var totals ClientTotals
	err := j.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(net_total), 0)
		FROM deliveries WHERE client_id = $1 AND status = 'DELIVERED'`, clientID).Scan(&totals.Delivered)
	if err != nil {
		return ClientTotals{}, err
	}
	err = j.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(net_total), 0), COALESCE(SUM(amount_paid), 0), COALESCE(SUM(balance_remaining), 0)
		FROM invoices WHERE client_id = $1 AND status IN ('ISSUED', 'PARTIALLY_PAID', 'PAID')`, clientID).
		Scan(&totals.Invoiced, &totals.Paid, &totals.Owed)
	if err != nil {
		return ClientTotals{}, err
	}
	return totals, nil
}

func (j *AggregateReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAggregateReconcile))
	}
	return slog.Default().With(slog.String("job", TaskAggregateReconcile))
}
