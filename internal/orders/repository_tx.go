package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type txRepository struct {
	tx pgx.Tx
}

// Create inserts the order header.
func (t *txRepository) Create(ctx context.Context, o Order) (int64, error) {
	const query = `
		INSERT INTO orders (
			number, client_id, client_name, order_date, wanted_delivery_date,
			status, discount_percent, gross_total, discount_amount, net_total, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		o.Number, o.ClientID, o.ClientName, o.OrderDate, o.WantedDeliveryDate,
		o.Status, o.DiscountPercent, o.GrossTotal, o.DiscountAmount, o.NetTotal, o.Notes,
	).Scan(&id)
	return id, err
}

// InsertLine inserts an order line.
func (t *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	const query = `
		INSERT INTO order_lines (order_id, line_number, description, unit, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		line.OrderID, line.LineNumber, line.Description, line.Unit, line.Quantity, line.UnitPrice, line.LineTotal,
	).Scan(&id)
	return id, err
}

// DeleteLines removes all lines of an order.
func (t *txRepository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	return err
}

// Update applies field updates to the order header.
func (t *txRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	var setClauses []string
	var args []interface{}
	argPos := 1
	for field, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now())
	argPos++
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates the status with additional stamped fields.
func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	if updates == nil {
		updates = make(map[string]interface{})
	}
	updates["status"] = status
	return t.Update(ctx, id, updates)
}

// Delete removes the order and its lines.
func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForUpdate re-reads the order inside the transaction so status checks act
// on current data, not on a stale pre-transaction read.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}
