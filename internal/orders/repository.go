package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
)

// Repository provides data access for purchase orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, req ListRequest) ([]Order, int, error)
	CountActiveDeliveries(ctx context.Context, orderID int64) (int, error)
}

// TxRepository exposes operations available within a transaction.
type TxRepository interface {
	Create(ctx context.Context, o Order) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, orderID int64) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
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

const orderColumns = `id, number, client_id, client_name, order_date, wanted_delivery_date,
	status, discount_percent, gross_total, discount_amount, net_total, notes,
	sent_at, approved_at, canceled_at, cancellation_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.ClientID, &o.ClientName, &o.OrderDate, &o.WantedDeliveryDate,
		&o.Status, &o.DiscountPercent, &o.GrossTotal, &o.DiscountAmount, &o.NetTotal, &o.Notes,
		&o.SentAt, &o.ApprovedAt, &o.CanceledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q queryer, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, line_number, description, unit, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY line_number`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.Description, &l.Unit, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Order, int, error) {
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
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Number, &o.ClientID, &o.ClientName, &o.OrderDate, &o.WantedDeliveryDate,
			&o.Status, &o.DiscountPercent, &o.GrossTotal, &o.DiscountAmount, &o.NetTotal, &o.Notes,
			&o.SentAt, &o.ApprovedAt, &o.CanceledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// CountActiveDeliveries counts non-canceled deliveries referencing the order.
func (r *repository) CountActiveDeliveries(ctx context.Context, orderID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE order_id = $1 AND status <> 'CANCELED'`, orderID).Scan(&count)
	return count, err
}
