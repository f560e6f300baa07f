package deliveries

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

type memoryRepo struct {
	orders     map[int64]OrderRef
	deliveries map[int64]Delivery
	lines      map[int64][]Line
	aggregates map[int64]clients.AggregateDelta
	nextID     int64
	nextLineID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:     make(map[int64]OrderRef),
		deliveries: make(map[int64]Delivery),
		lines:      make(map[int64][]Line),
		aggregates: make(map[int64]clients.AggregateDelta),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Delivery, error) {
	d, ok := r.deliveries[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Lines = append([]Line(nil), r.lines[id]...)
	return &d, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Delivery, int, error) {
	var out []Delivery
	for _, d := range r.deliveries {
		if req.OrderID != nil && d.OrderID != *req.OrderID {
			continue
		}
		if req.Status != nil && d.Status != *req.Status {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	var out []Delivery
	for id, d := range r.deliveries {
		if d.OrderID != orderID {
			continue
		}
		d.Lines = append([]Line(nil), r.lines[id]...)
		out = append(out, d)
	}
	return out, nil
}

func (r *memoryRepo) GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (tx *memoryTx) GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error) {
	return tx.repo.GetOrderRef(ctx, orderID)
}

func (tx *memoryTx) SumDeliveredByLine(ctx context.Context, orderID, excludeDeliveryID int64) (map[int]float64, error) {
	sums := make(map[int]float64)
	for id, d := range tx.repo.deliveries {
		if d.OrderID != orderID || d.Status == StatusCanceled || id == excludeDeliveryID {
			continue
		}
		for _, l := range tx.repo.lines[id] {
			sums[l.LineNumber] += l.DeliveredQuantity
		}
	}
	return sums, nil
}

func (tx *memoryTx) CreateDelivery(ctx context.Context, d Delivery) (int64, error) {
	tx.repo.nextID++
	d.ID = tx.repo.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	tx.repo.deliveries[d.ID] = d
	return d.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line Line) (int64, error) {
	tx.repo.nextLineID++
	line.ID = tx.repo.nextLineID
	tx.repo.lines[line.DeliveryID] = append(tx.repo.lines[line.DeliveryID], line)
	return line.ID, nil
}

func (tx *memoryTx) DeleteLines(ctx context.Context, deliveryID int64) error {
	delete(tx.repo.lines, deliveryID)
	return nil
}

func (tx *memoryTx) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	d, ok := tx.repo.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "delivery_date":
			d.DeliveryDate = v.(time.Time)
		case "carrier":
			d.Carrier = v.(*string)
		case "delivery_time":
			d.DeliveryTime = v.(*string)
		case "observation":
			d.Observation = v.(*string)
		case "gross_total":
			d.GrossTotal = v.(float64)
		case "discount_amount":
			d.DiscountAmount = v.(float64)
		case "net_total":
			d.NetTotal = v.(float64)
		}
	}
	d.UpdatedAt = time.Now()
	tx.repo.deliveries[id] = d
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	d, ok := tx.repo.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	now := time.Now()
	if _, ok := updates["en_route_at"]; ok {
		d.EnRouteAt = &now
	}
	if _, ok := updates["delivered_at"]; ok {
		d.DeliveredAt = &now
	}
	if _, ok := updates["canceled_at"]; ok {
		d.CanceledAt = &now
	}
	tx.repo.deliveries[id] = d
	return nil
}

func (tx *memoryTx) ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error {
	agg := tx.repo.aggregates[clientID]
	agg.Delivered += delta.Delivered
	agg.Invoiced += delta.Invoiced
	agg.Paid += delta.Paid
	agg.Owed += delta.Owed
	tx.repo.aggregates[clientID] = agg
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, id int64) error {
	delete(tx.repo.deliveries, id)
	delete(tx.repo.lines, id)
	return nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Delivery, error) {
	return tx.repo.Get(ctx, id)
}

type stubAllocator struct {
	n int
}

func (a *stubAllocator) Next(ctx context.Context, family string, year int) (string, error) {
	a.n++
	return fmt.Sprintf("%03d/%s/%d", a.n, family, year), nil
}

func seedOrder(repo *memoryRepo) OrderRef {
	order := OrderRef{
		ID:         10,
		Number:     "001/BC/2025",
		ClientID:   7,
		ClientName: "Entreprise Kaboré",
		Status:     orderStatusApproved,
		Lines: []OrderRefLine{
			{LineNumber: 1, Description: "Ciment CPJ 45", Unit: "sac", Quantity: 100, UnitPrice: 7500},
		},
	}
	repo.orders[order.ID] = order
	return order
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, &stubAllocator{}, nil)
}

func createDelivery(t *testing.T, svc *Service, orderID int64, qty float64) *Delivery {
	t.Helper()
	d, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      orderID,
		DeliveryDate: time.Now(),
		Lines:        []LineRequest{{LineNumber: 1, DeliveredQuantity: qty}},
	})
	require.NoError(t, err)
	return d
}

func deliverFully(t *testing.T, svc *Service, id int64) *Delivery {
	t.Helper()
	_, err := svc.MarkEnRoute(context.Background(), id)
	require.NoError(t, err)
	d, err := svc.MarkDelivered(context.Background(), id)
	require.NoError(t, err)
	return d
}

func TestCreateFromOrderGatesRemainingQuantity(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	first := createDelivery(t, svc, 10, 60)
	deliverFully(t, svc, first.ID)

	_, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      10,
		DeliveryDate: time.Now(),
		Lines:        []LineRequest{{LineNumber: 1, DeliveredQuantity: 41}},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrExceedsRemaining)
	require.ErrorIs(t, err, shared.ErrConflict)

	second := createDelivery(t, svc, 10, 40)
	require.Equal(t, StatusDraft, second.Status)
	require.InDelta(t, 40*7500.0, second.NetTotal, 0.001)
}

func TestCreateFromOrderNeverOverDelivers(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)
	rng := rand.New(rand.NewSource(42))

	accepted := 0.0
	for i := 0; i < 60; i++ {
		qty := float64(rng.Intn(30) + 1)
		_, err := svc.CreateFromOrder(context.Background(), CreateRequest{
			OrderID:      10,
			DeliveryDate: time.Now(),
			Lines:        []LineRequest{{LineNumber: 1, DeliveredQuantity: qty}},
		})
		if accepted+qty <= 100 {
			require.NoError(t, err)
			accepted += qty
		} else {
			require.ErrorIs(t, err, ErrExceedsRemaining)
		}

		// A rejected request leaves the stored state untouched.
		report, err := svc.Progress(context.Background(), 10)
		require.NoError(t, err)
		require.InDelta(t, accepted, report.Lines[0].DeliveredSoFar, 0.001)
		require.InDelta(t, 100-accepted, report.Lines[0].Remaining, 0.001)
	}
	require.LessOrEqual(t, accepted, 100.0)
}

func TestCreateFromOrderRejectsUnapprovedOrder(t *testing.T) {
	repo := newMemoryRepo()
	order := seedOrder(repo)
	order.Status = "DRAFT"
	repo.orders[order.ID] = order
	svc := newTestService(repo)

	_, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      10,
		DeliveryDate: time.Now(),
		Lines:        []LineRequest{{LineNumber: 1, DeliveredQuantity: 5}},
	})
	require.ErrorIs(t, err, ErrOrderNotApproved)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCreateFromOrderRejectsUnknownLine(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	_, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      10,
		DeliveryDate: time.Now(),
		Lines:        []LineRequest{{LineNumber: 9, DeliveredQuantity: 5}},
	})
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestCreateFromOrderRejectsDuplicateLine(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	_, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      10,
		DeliveryDate: time.Now(),
		Lines: []LineRequest{
			{LineNumber: 1, DeliveredQuantity: 5},
			{LineNumber: 1, DeliveredQuantity: 3},
		},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeliveryAppliesDiscountFromOrder(t *testing.T) {
	repo := newMemoryRepo()
	order := seedOrder(repo)
	order.DiscountPercent = 10
	repo.orders[order.ID] = order
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 20)
	require.InDelta(t, 20*7500.0, d.GrossTotal, 0.001)
	require.InDelta(t, 15000.0, d.DiscountAmount, 0.001)
	require.InDelta(t, 135000.0, d.NetTotal, 0.001)
}

func TestMarkDeliveredMovesClientAggregate(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 60)
	delivered := deliverFully(t, svc, d.ID)

	require.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.InDelta(t, delivered.NetTotal, repo.aggregates[7].Delivered, 0.001)
}

func TestMarkDeliveredRequiresEnRoute(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 60)
	_, err := svc.MarkDelivered(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrCannotDeliver)
}

func TestCancelReleasesQuantityToOrder(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 100)
	_, err := svc.Cancel(context.Background(), d.ID)
	require.NoError(t, err)

	replacement := createDelivery(t, svc, 10, 100)
	require.Equal(t, StatusDraft, replacement.Status)
}

func TestCancelRejectsDeliveredAndInvoiced(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 30)
	deliverFully(t, svc, d.ID)
	_, err := svc.Cancel(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrCannotCancel)

	other := createDelivery(t, svc, 10, 20)
	invoiceID := int64(55)
	stored := repo.deliveries[other.ID]
	stored.InvoiceID = &invoiceID
	repo.deliveries[other.ID] = stored
	_, err = svc.Cancel(context.Background(), other.ID)
	require.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestUpdateReplacingLinesExcludesOwnQuantities(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	first := createDelivery(t, svc, 10, 60)
	deliverFully(t, svc, first.ID)
	second := createDelivery(t, svc, 10, 30)

	// 40 remain besides this delivery's own 30, so growing to 40 is fine.
	lines := []LineRequest{{LineNumber: 1, DeliveredQuantity: 40}}
	updated, err := svc.Update(context.Background(), second.ID, UpdateRequest{Lines: &lines})
	require.NoError(t, err)
	require.InDelta(t, 40*7500.0, updated.NetTotal, 0.001)

	lines = []LineRequest{{LineNumber: 1, DeliveredQuantity: 41}}
	_, err = svc.Update(context.Background(), second.ID, UpdateRequest{Lines: &lines})
	require.ErrorIs(t, err, ErrExceedsRemaining)
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 30)
	_, err := svc.MarkEnRoute(context.Background(), d.ID)
	require.NoError(t, err)

	obs := "late truck"
	_, err = svc.Update(context.Background(), d.ID, UpdateRequest{Observation: &obs})
	require.ErrorIs(t, err, ErrCannotEdit)
}

func TestDeleteOnlyDraft(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	d := createDelivery(t, svc, 10, 30)
	deliverFully(t, svc, d.ID)
	err := svc.Delete(context.Background(), d.ID)
	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	draft := createDelivery(t, svc, 10, 10)
	require.NoError(t, svc.Delete(context.Background(), draft.ID))
	_, err = svc.Get(context.Background(), draft.ID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestProgressReport(t *testing.T) {
	repo := newMemoryRepo()
	order := seedOrder(repo)
	order.Lines = append(order.Lines, OrderRefLine{
		LineNumber: 2, Description: "Fer 8mm", Unit: "barre", Quantity: 50, UnitPrice: 3000,
	})
	repo.orders[order.ID] = order
	svc := newTestService(repo)

	d, err := svc.CreateFromOrder(context.Background(), CreateRequest{
		OrderID:      10,
		DeliveryDate: time.Now(),
		Lines: []LineRequest{
			{LineNumber: 1, DeliveredQuantity: 60},
			{LineNumber: 2, DeliveredQuantity: 50},
		},
	})
	require.NoError(t, err)
	deliverFully(t, svc, d.ID)

	report, err := svc.Progress(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)
	require.InDelta(t, 60.0, report.Lines[0].DeliveredSoFar, 0.001)
	require.InDelta(t, 40.0, report.Lines[0].Remaining, 0.001)
	require.InDelta(t, 60.0, report.Lines[0].PercentDelivered, 0.001)
	require.InDelta(t, 100.0, report.Lines[1].PercentDelivered, 0.001)
	require.InDelta(t, 80.0, report.AveragePercent, 0.001)
	require.False(t, report.FullyDelivered)

	again, err := svc.Progress(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, report, again)
}

func TestProgressCountsDraftAndExcludesCanceled(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo)
	svc := newTestService(repo)

	createDelivery(t, svc, 10, 30)
	canceled := createDelivery(t, svc, 10, 20)
	_, err := svc.Cancel(context.Background(), canceled.ID)
	require.NoError(t, err)

	report, err := svc.Progress(context.Background(), 10)
	require.NoError(t, err)
	require.InDelta(t, 30.0, report.Lines[0].DeliveredSoFar, 0.001)
	require.InDelta(t, 70.0, report.Lines[0].Remaining, 0.001)
}

func TestBuildProgressFullyDelivered(t *testing.T) {
	order := OrderRef{
		ID:     1,
		Number: "001/BC/2025",
		Lines: []OrderRefLine{
			{LineNumber: 1, Quantity: 10},
		},
	}
	all := []Delivery{
		{Status: StatusDelivered, Lines: []Line{{LineNumber: 1, DeliveredQuantity: 10}}},
	}
	report := BuildProgress(order, all)
	require.True(t, report.FullyDelivered)
	require.InDelta(t, 100.0, report.AveragePercent, 0.001)
}
