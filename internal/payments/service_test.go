package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

type memoryRepo struct {
	invoices   map[int64]InvoiceState
	payments   map[int64]Payment
	aggregates map[int64]clients.AggregateDelta
	nextID     int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices:   make(map[int64]InvoiceState),
		payments:   make(map[int64]Payment),
		aggregates: make(map[int64]clients.AggregateDelta),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.payments {
		if req.InvoiceID != nil && p.InvoiceID != *req.InvoiceID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (*InvoiceState, error) {
	inv, ok := tx.repo.invoices[invoiceID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return &inv, nil
}

func (tx *memoryTx) GetPaymentForUpdate(ctx context.Context, id int64) (*Payment, error) {
	p, ok := tx.repo.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (tx *memoryTx) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	p.CreatedAt = time.Now()
	tx.repo.payments[p.ID] = p
	return p.ID, nil
}

func (tx *memoryTx) DeletePayment(ctx context.Context, id int64) error {
	delete(tx.repo.payments, id)
	return nil
}

func (tx *memoryTx) UpdateInvoicePosition(ctx context.Context, invoiceID int64, updates map[string]interface{}) error {
	inv, ok := tx.repo.invoices[invoiceID]
	if !ok {
		return ErrInvoiceNotFound
	}
	for k, v := range updates {
		switch k {
		case "amount_paid":
			inv.AmountPaid = v.(float64)
		case "balance_remaining":
			inv.BalanceRemaining = v.(float64)
		case "status":
			inv.Status = v.(invoices.Status)
		case "paid_at":
			if v == nil {
				inv.PaidAt = nil
			} else {
				at := v.(time.Time)
				inv.PaidAt = &at
			}
		}
	}
	tx.repo.invoices[invoiceID] = inv
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

type stubAllocator struct {
	n int
}

func (a *stubAllocator) Next(ctx context.Context, family string, year int) (string, error) {
	a.n++
	return fmt.Sprintf("%03d/%s/%d", a.n, family, year), nil
}

func seedIssuedInvoice(repo *memoryRepo, id int64, net float64) {
	repo.invoices[id] = InvoiceState{
		ID:               id,
		Number:           fmt.Sprintf("%03d/FAC/2025", id),
		ClientID:         7,
		ClientName:       "Entreprise Kaboré",
		Status:           invoices.StatusIssued,
		NetTotal:         net,
		BalanceRemaining: net,
	}
	agg := repo.aggregates[7]
	agg.Invoiced += net
	agg.Owed += net
	repo.aggregates[7] = agg
}

func addPayment(t *testing.T, svc *Service, invoiceID int64, amount float64) *Payment {
	t.Helper()
	p, err := svc.Add(context.Background(), AddRequest{
		InvoiceID:   invoiceID,
		Amount:      amount,
		Method:      MethodCash,
		PaymentDate: time.Now(),
	})
	require.NoError(t, err)
	return p
}

func TestAddPartialThenFullPayment(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 750000)
	svc := NewService(repo, &stubAllocator{}, nil)

	p1 := addPayment(t, svc, 1, 300000)
	require.Equal(t, "Entreprise Kaboré", p1.ClientName)
	inv := repo.invoices[1]
	require.Equal(t, invoices.StatusPartiallyPaid, inv.Status)
	require.InDelta(t, 300000.0, inv.AmountPaid, 0.001)
	require.InDelta(t, 450000.0, inv.BalanceRemaining, 0.001)
	require.Nil(t, inv.PaidAt)
	require.InDelta(t, 300000.0, repo.aggregates[7].Paid, 0.001)
	require.InDelta(t, 450000.0, repo.aggregates[7].Owed, 0.001)

	addPayment(t, svc, 1, 450000)
	inv = repo.invoices[1]
	require.Equal(t, invoices.StatusPaid, inv.Status)
	require.InDelta(t, 0.0, inv.BalanceRemaining, 0.001)
	require.NotNil(t, inv.PaidAt)
	require.InDelta(t, 750000.0, repo.aggregates[7].Paid, 0.001)
	require.InDelta(t, 0.0, repo.aggregates[7].Owed, 0.001)

	_, err := svc.Add(context.Background(), AddRequest{
		InvoiceID: 1, Amount: 1, Method: MethodCash, PaymentDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestAddRejectsOverpayment(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	svc := NewService(repo, &stubAllocator{}, nil)

	_, err := svc.Add(context.Background(), AddRequest{
		InvoiceID: 1, Amount: 100001, Method: MethodCash, PaymentDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrOverpayment)
	require.ErrorIs(t, err, shared.ErrConflict)

	// Same gate after a partial payment shrank the balance.
	addPayment(t, svc, 1, 60000)
	_, err = svc.Add(context.Background(), AddRequest{
		InvoiceID: 1, Amount: 40001, Method: MethodCash, PaymentDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestAddValidation(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	svc := NewService(repo, &stubAllocator{}, nil)

	_, err := svc.Add(context.Background(), AddRequest{InvoiceID: 1, Amount: 0, Method: MethodCash, PaymentDate: time.Now()})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Add(context.Background(), AddRequest{InvoiceID: 1, Amount: 100, Method: "BARTER", PaymentDate: time.Now()})
	require.ErrorIs(t, err, ErrInvalidMethod)

	_, err = svc.Add(context.Background(), AddRequest{InvoiceID: 1, Amount: 100, Method: MethodCheck, PaymentDate: time.Now()})
	require.ErrorIs(t, err, ErrMissingReference)

	ref := "CHQ-0042"
	_, err = svc.Add(context.Background(), AddRequest{InvoiceID: 1, Amount: 100, Method: MethodCheck, Reference: &ref, PaymentDate: time.Now()})
	require.NoError(t, err)
}

func TestAddRejectsCanceledInvoice(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	inv := repo.invoices[1]
	inv.Status = invoices.StatusCanceled
	repo.invoices[1] = inv
	svc := NewService(repo, &stubAllocator{}, nil)

	_, err := svc.Add(context.Background(), AddRequest{
		InvoiceID: 1, Amount: 100, Method: MethodCash, PaymentDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrInvoiceCanceled)
}

func TestAddRejectsDraftInvoice(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 10000)
	inv := repo.invoices[1]
	inv.Status = invoices.StatusDraft
	repo.invoices[1] = inv
	svc := NewService(repo, &stubAllocator{}, nil)

	_, err := svc.Add(context.Background(), AddRequest{
		InvoiceID: 1, Amount: 4000, Method: MethodCash, PaymentDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrInvoiceNotIssued)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// The draft never contributed to the aggregate, so nothing may move.
	require.Zero(t, repo.invoices[1].AmountPaid)
	require.Zero(t, repo.aggregates[7].Paid)
	require.Empty(t, repo.payments)
}

func TestDeleteReversesPayment(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	svc := NewService(repo, &stubAllocator{}, nil)

	p := addPayment(t, svc, 1, 100000)
	require.Equal(t, invoices.StatusPaid, repo.invoices[1].Status)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	inv := repo.invoices[1]
	require.Equal(t, invoices.StatusIssued, inv.Status)
	require.InDelta(t, 0.0, inv.AmountPaid, 0.001)
	require.InDelta(t, 100000.0, inv.BalanceRemaining, 0.001)
	require.Nil(t, inv.PaidAt)
	require.InDelta(t, 0.0, repo.aggregates[7].Paid, 0.001)
	require.InDelta(t, 100000.0, repo.aggregates[7].Owed, 0.001)

	_, err := svc.Get(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteKeepsPartiallyPaid(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	svc := NewService(repo, &stubAllocator{}, nil)

	addPayment(t, svc, 1, 30000)
	p2 := addPayment(t, svc, 1, 20000)

	require.NoError(t, svc.Delete(context.Background(), p2.ID))
	inv := repo.invoices[1]
	require.Equal(t, invoices.StatusPartiallyPaid, inv.Status)
	require.InDelta(t, 30000.0, inv.AmountPaid, 0.001)
}

func TestDeleteRejectsCanceledInvoice(t *testing.T) {
	repo := newMemoryRepo()
	seedIssuedInvoice(repo, 1, 100000)
	svc := NewService(repo, &stubAllocator{}, nil)

	p := addPayment(t, svc, 1, 30000)
	inv := repo.invoices[1]
	inv.Status = invoices.StatusCanceled
	repo.invoices[1] = inv

	err := svc.Delete(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrAdjustCanceled)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		net        float64
		amountPaid float64
		current    invoices.Status
		want       invoices.Status
	}{
		{"zero paid", 100, 0, invoices.StatusPartiallyPaid, invoices.StatusIssued},
		{"partial", 100, 40, invoices.StatusIssued, invoices.StatusPartiallyPaid},
		{"exact", 100, 100, invoices.StatusPartiallyPaid, invoices.StatusPaid},
		{"above net", 100, 120, invoices.StatusIssued, invoices.StatusPaid},
		{"draft passthrough", 100, 40, invoices.StatusDraft, invoices.StatusDraft},
		{"canceled passthrough", 100, 40, invoices.StatusCanceled, invoices.StatusCanceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.net, tc.amountPaid, tc.current))
		})
	}
}

func TestMethodRequiresReference(t *testing.T) {
	require.True(t, MethodCheck.RequiresReference())
	require.True(t, MethodTransfer.RequiresReference())
	require.False(t, MethodCash.RequiresReference())
	require.False(t, MethodMobileMoney.RequiresReference())
}
