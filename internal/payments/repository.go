package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
)

// InvoiceState is the slice of an invoice the ledger reads and rewrites.
type InvoiceState struct {
	ID               int64
	Number           string
	ClientID         int64
	ClientName       string
	Status           invoices.Status
	NetTotal         float64
	AmountPaid       float64
	BalanceRemaining float64
	PaidAt           *time.Time
}

// Repository provides data access for payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Payment, error)
	List(ctx context.Context, req ListRequest) ([]Payment, int, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)
}

// TxRepository exposes operations available within a transaction. The invoice
// is locked and read before the payment row or any derived value is written.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (*InvoiceState, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (*Payment, error)
	CreatePayment(ctx context.Context, p Payment) (int64, error)
	DeletePayment(ctx context.Context, id int64) error
	UpdateInvoicePosition(ctx context.Context, invoiceID int64, updates map[string]interface{}) error
	ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const paymentColumns = `id, number, invoice_id, invoice_number, client_id, client_name,
	amount, method, reference, payment_date, notes, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.Number, &p.InvoiceID, &p.InvoiceNumber, &p.ClientID, &p.ClientName,
		&p.Amount, &p.Method, &p.Reference, &p.PaymentDate, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.InvoiceID != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_id = $%d", argPos))
		args = append(args, *req.InvoiceID)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM payments %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY payment_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.Number, &p.InvoiceID, &p.InvoiceNumber, &p.ClientID, &p.ClientName,
			&p.Amount, &p.Method, &p.Reference, &p.PaymentDate, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY payment_date, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.Number, &p.InvoiceID, &p.InvoiceNumber, &p.ClientID, &p.ClientName,
			&p.Amount, &p.Method, &p.Reference, &p.PaymentDate, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
