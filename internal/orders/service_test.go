package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

type memoryRepo struct {
	orders     map[int64]Order
	lines      map[int64][]Line
	deliveries map[int64]int
	nextID     int64
	nextLineID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:     make(map[int64]Order),
		lines:      make(map[int64][]Line),
		deliveries: make(map[int64]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Lines = append([]Line(nil), r.lines[id]...)
	return &o, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *memoryRepo) CountActiveDeliveries(ctx context.Context, orderID int64) (int, error) {
	return r.deliveries[orderID], nil
}

func (tx *memoryTx) Create(ctx context.Context, o Order) (int64, error) {
	tx.repo.nextID++
	o.ID = tx.repo.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	tx.repo.orders[o.ID] = o
	return o.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line Line) (int64, error) {
	tx.repo.nextLineID++
	line.ID = tx.repo.nextLineID
	tx.repo.lines[line.OrderID] = append(tx.repo.lines[line.OrderID], line)
	return line.ID, nil
}

func (tx *memoryTx) DeleteLines(ctx context.Context, orderID int64) error {
	delete(tx.repo.lines, orderID)
	return nil
}

func (tx *memoryTx) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	o, ok := tx.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "order_date":
			o.OrderDate = v.(time.Time)
		case "wanted_delivery_date":
			o.WantedDeliveryDate = v.(*time.Time)
		case "notes":
			o.Notes = v.(*string)
		case "discount_percent":
			o.DiscountPercent = v.(float64)
		case "gross_total":
			o.GrossTotal = v.(float64)
		case "discount_amount":
			o.DiscountAmount = v.(float64)
		case "net_total":
			o.NetTotal = v.(float64)
		}
	}
	o.UpdatedAt = time.Now()
	tx.repo.orders[id] = o
	return nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	o, ok := tx.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	now := time.Now()
	if _, ok := updates["sent_at"]; ok {
		o.SentAt = &now
	}
	if _, ok := updates["approved_at"]; ok {
		o.ApprovedAt = &now
	}
	if _, ok := updates["canceled_at"]; ok {
		o.CanceledAt = &now
	}
	if reason, ok := updates["cancellation_reason"]; ok {
		r := reason.(string)
		o.CancellationReason = &r
	}
	tx.repo.orders[id] = o
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, id int64) error {
	delete(tx.repo.orders, id)
	delete(tx.repo.lines, id)
	return nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	return tx.repo.Get(ctx, id)
}

type stubClientRepo struct {
	clients map[int64]clients.Client
}

func (s *stubClientRepo) Get(ctx context.Context, id int64) (*clients.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (s *stubClientRepo) List(ctx context.Context, req clients.ListRequest) ([]clients.Client, int, error) {
	return nil, 0, nil
}

func (s *stubClientRepo) Create(ctx context.Context, c clients.Client) (int64, error) {
	return 0, nil
}

func (s *stubClientRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}

func (s *stubClientRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func (s *stubClientRepo) CountDocuments(ctx context.Context, clientID int64) (int, error) {
	return 0, nil
}

type stubAllocator struct {
	n int
}

func (a *stubAllocator) Next(ctx context.Context, family string, year int) (string, error) {
	a.n++
	return fmt.Sprintf("%03d/%s/%d", a.n, family, year), nil
}

func newTestService(repo *memoryRepo) *Service {
	clientRepo := &stubClientRepo{clients: map[int64]clients.Client{
		7: {ID: 7, Name: "Entreprise Kaboré"},
	}}
	return NewService(repo, clientRepo, &stubAllocator{})
}

func createOrder(t *testing.T, svc *Service) *Order {
	t.Helper()
	o, err := svc.Create(context.Background(), CreateRequest{
		ClientID:        7,
		OrderDate:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DiscountPercent: 10,
		Lines: []LineRequest{
			{Description: "Ciment CPJ 45", Unit: "sac", Quantity: 100, UnitPrice: 7500},
		},
	})
	require.NoError(t, err)
	return o
}

func TestCreateOrderComputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	o := createOrder(t, svc)
	require.Equal(t, StatusDraft, o.Status)
	require.Equal(t, "001/BC/2025", o.Number)
	require.InDelta(t, 750000.0, o.GrossTotal, 0.001)
	require.InDelta(t, 75000.0, o.DiscountAmount, 0.001)
	require.InDelta(t, 675000.0, o.NetTotal, 0.001)
}

func TestCreateOrderValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		ClientID: 7, OrderDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrEmptyLines)

	_, err = svc.Create(context.Background(), CreateRequest{
		ClientID: 7, OrderDate: time.Now(),
		Lines: []LineRequest{{Description: "x", Unit: "u", Quantity: 0, UnitPrice: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Create(context.Background(), CreateRequest{
		ClientID: 7, OrderDate: time.Now(), DiscountPercent: 120,
		Lines: []LineRequest{{Description: "x", Unit: "u", Quantity: 1, UnitPrice: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestOrderLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	o := createOrder(t, svc)

	// Approval requires SENT first.
	_, err := svc.Approve(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrCannotApprove)

	sent, err := svc.Send(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	approved, err := svc.Approve(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	_, err = svc.Send(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrCannotSend)
}

func TestCancelOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	o := createOrder(t, svc)

	canceled, err := svc.Cancel(context.Background(), o.ID, CancelRequest{Reason: "client withdrew"})
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CancellationReason)

	_, err = svc.Cancel(context.Background(), o.ID, CancelRequest{Reason: "again"})
	require.ErrorIs(t, err, ErrCannotCancel)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	o := createOrder(t, svc)

	discount := 0.0
	updated, err := svc.Update(context.Background(), o.ID, UpdateRequest{DiscountPercent: &discount})
	require.NoError(t, err)
	require.InDelta(t, 750000.0, updated.NetTotal, 0.001)

	_, err = svc.Send(context.Background(), o.ID)
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), o.ID, UpdateRequest{DiscountPercent: &discount})
	require.ErrorIs(t, err, ErrCannotEdit)
}

func TestDeleteOrderWithDeliveriesRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	o := createOrder(t, svc)

	repo.deliveries[o.ID] = 2
	err := svc.Delete(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrHasDeliveries)
	require.ErrorIs(t, err, shared.ErrConflict)

	repo.deliveries[o.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), o.ID))
	_, err = svc.Get(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSentOrderRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	o := createOrder(t, svc)

	_, err := svc.Send(context.Background(), o.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrCannotDelete)
}
