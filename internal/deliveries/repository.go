package deliveries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
)

// Repository provides data access for delivery notes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Delivery, error)
	List(ctx context.Context, req ListRequest) ([]Delivery, int, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error)
	GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error)
}

// TxRepository exposes operations available within a transaction. All reads
// here run on the transaction connection, so the over-delivery gate observes
// the same snapshot it writes into.
type TxRepository interface {
	GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error)
	SumDeliveredByLine(ctx context.Context, orderID, excludeDeliveryID int64) (map[int]float64, error)
	CreateDelivery(ctx context.Context, d Delivery) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, deliveryID int64) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (*Delivery, error)
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

const deliveryColumns = `id, number, order_id, order_number, invoice_id, invoice_number,
	client_id, client_name, delivery_date, carrier, delivery_time, observation, status,
	discount_percent, gross_total, discount_amount, net_total,
	en_route_at, delivered_at, canceled_at, created_at, updated_at`

type rowQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(
		&d.ID, &d.Number, &d.OrderID, &d.OrderNumber, &d.InvoiceID, &d.InvoiceNumber,
		&d.ClientID, &d.ClientName, &d.DeliveryDate, &d.Carrier, &d.DeliveryTime, &d.Observation, &d.Status,
		&d.DiscountPercent, &d.GrossTotal, &d.DiscountAmount, &d.NetTotal,
		&d.EnRouteAt, &d.DeliveredAt, &d.CanceledAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func getDelivery(ctx context.Context, q rowQueryer, id int64, lock string) (*Delivery, error) {
	d, err := scanDelivery(q.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`+lock, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadDeliveryLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return d, nil
}

func loadDeliveryLines(ctx context.Context, q rowQueryer, deliveryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, delivery_id, line_number, description, unit, ordered_quantity, delivered_quantity, unit_price, line_total
		FROM delivery_lines WHERE delivery_id = $1 ORDER BY line_number`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.DeliveryID, &l.LineNumber, &l.Description, &l.Unit,
			&l.OrderedQuantity, &l.DeliveredQuantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Delivery, error) {
	return getDelivery(ctx, r.pool, id, "")
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Delivery, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", argPos))
		args = append(args, *req.OrderID)
		argPos++
	}
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM deliveries %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM deliveries %s ORDER BY delivery_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		deliveryColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(
			&d.ID, &d.Number, &d.OrderID, &d.OrderNumber, &d.InvoiceID, &d.InvoiceNumber,
			&d.ClientID, &d.ClientName, &d.DeliveryDate, &d.Carrier, &d.DeliveryTime, &d.Observation, &d.Status,
			&d.DiscountPercent, &d.GrossTotal, &d.DiscountAmount, &d.NetTotal,
			&d.EnRouteAt, &d.DeliveredAt, &d.CanceledAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// ListByOrder returns every delivery referencing the order, lines included.
func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	return listByOrder(ctx, r.pool, orderID)
}

func listByOrder(ctx context.Context, q rowQueryer, orderID int64) ([]Delivery, error) {
	rows, err := q.Query(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(
			&d.ID, &d.Number, &d.OrderID, &d.OrderNumber, &d.InvoiceID, &d.InvoiceNumber,
			&d.ClientID, &d.ClientName, &d.DeliveryDate, &d.Carrier, &d.DeliveryTime, &d.Observation, &d.Status,
			&d.DiscountPercent, &d.GrossTotal, &d.DiscountAmount, &d.NetTotal,
			&d.EnRouteAt, &d.DeliveredAt, &d.CanceledAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		lines, err := loadDeliveryLines(ctx, q, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Lines = lines
	}
	return out, nil
}

func (r *repository) GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error) {
	return getOrderRef(ctx, r.pool, orderID)
}

func getOrderRef(ctx context.Context, q rowQueryer, orderID int64) (*OrderRef, error) {
	var ref OrderRef
	err := q.QueryRow(ctx, `
		SELECT id, number, client_id, client_name, status, discount_percent
		FROM orders WHERE id = $1`, orderID).Scan(
		&ref.ID, &ref.Number, &ref.ClientID, &ref.ClientName, &ref.Status, &ref.DiscountPercent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT line_number, description, unit, quantity, unit_price
		FROM order_lines WHERE order_id = $1 ORDER BY line_number`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l OrderRefLine
		if err := rows.Scan(&l.LineNumber, &l.Description, &l.Unit, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		ref.Lines = append(ref.Lines, l)
	}
	return &ref, rows.Err()
}
