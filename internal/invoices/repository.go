package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
)

// Repository provides data access for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, int, error)
}

// TxRepository exposes operations available within a transaction. Source
// deliveries are locked and read here before any write, so double-billing
// checks hold against concurrent invoicing.
type TxRepository interface {
	GetSourceDeliveriesForUpdate(ctx context.Context, ids []int64) ([]SourceDelivery, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, invoiceID int64) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	SetDeliveryInvoiceRef(ctx context.Context, deliveryID, invoiceID int64, invoiceNumber string) error
	ClearDeliveryInvoiceRefs(ctx context.Context, invoiceID int64) error
	ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
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

const invoiceColumns = `id, number, client_id, client_name, date_issued, due_date, status,
	discount_percent, gross_total, discount_amount, net_total, amount_paid, balance_remaining,
	source_deliveries, notes, cancellation_reason,
	issued_at, paid_at, canceled_at, created_at, updated_at`

type rowQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName, &inv.DateIssued, &inv.DueDate, &inv.Status,
		&inv.DiscountPercent, &inv.GrossTotal, &inv.DiscountAmount, &inv.NetTotal, &inv.AmountPaid, &inv.BalanceRemaining,
		&inv.SourceDeliveries, &inv.Notes, &inv.CancellationReason,
		&inv.IssuedAt, &inv.PaidAt, &inv.CanceledAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func getInvoice(ctx context.Context, q rowQueryer, id int64, lock string) (*Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`+lock, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadInvoiceLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

func loadInvoiceLines(ctx context.Context, q rowQueryer, invoiceID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, line_number, description, unit, quantity, unit_price, line_total, source_contributions
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_number`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.LineNumber, &l.Description, &l.Unit,
			&l.Quantity, &l.UnitPrice, &l.LineTotal, &l.Sources); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	return getInvoice(ctx, r.pool, id, "")
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY date_issued DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName, &inv.DateIssued, &inv.DueDate, &inv.Status,
			&inv.DiscountPercent, &inv.GrossTotal, &inv.DiscountAmount, &inv.NetTotal, &inv.AmountPaid, &inv.BalanceRemaining,
			&inv.SourceDeliveries, &inv.Notes, &inv.CancellationReason,
			&inv.IssuedAt, &inv.PaidAt, &inv.CanceledAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}
