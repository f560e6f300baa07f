package deliveries

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
)

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetOrderRef(ctx context.Context, orderID int64) (*OrderRef, error) {
	return getOrderRef(ctx, r.tx, orderID)
}

// SumDeliveredByLine totals delivered quantities per order line across all
// non-canceled deliveries of the order. excludeDeliveryID skips one delivery,
// used when replacing the lines of an existing draft.
func (r *txRepository) SumDeliveredByLine(ctx context.Context, orderID, excludeDeliveryID int64) (map[int]float64, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT dl.line_number, COALESCE(SUM(dl.delivered_quantity), 0)
		FROM delivery_lines dl
		JOIN deliveries d ON d.id = dl.delivery_id
		WHERE d.order_id = $1 AND d.status <> $2 AND d.id <> $3
		GROUP BY dl.line_number`, orderID, StatusCanceled, excludeDeliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[int]float64)
	for rows.Next() {
		var lineNumber int
		var qty float64
		if err := rows.Scan(&lineNumber, &qty); err != nil {
			return nil, err
		}
		sums[lineNumber] = qty
	}
	return sums, rows.Err()
}

func (r *txRepository) CreateDelivery(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO deliveries (number, order_id, order_number, client_id, client_name,
			delivery_date, carrier, delivery_time, observation, status,
			discount_percent, gross_total, discount_amount, net_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id`,
		d.Number, d.OrderID, d.OrderNumber, d.ClientID, d.ClientName,
		d.DeliveryDate, d.Carrier, d.DeliveryTime, d.Observation, d.Status,
		d.DiscountPercent, d.GrossTotal, d.DiscountAmount, d.NetTotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert delivery: %w", err)
	}
	return id, nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO delivery_lines (delivery_id, line_number, description, unit,
			ordered_quantity, delivered_quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		line.DeliveryID, line.LineNumber, line.Description, line.Unit,
		line.OrderedQuantity, line.DeliveredQuantity, line.UnitPrice, line.LineTotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert delivery line: %w", err)
	}
	return id, nil
}

func (r *txRepository) DeleteLines(ctx context.Context, deliveryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM delivery_lines WHERE delivery_id = $1`, deliveryID)
	return err
}

func (r *txRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+1)
	argPos := 1
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE deliveries SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)
	tag, err := r.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	if updates == nil {
		updates = make(map[string]interface{})
	}
	updates["status"] = status
	return r.Update(ctx, id, updates)
}

func (r *txRepository) ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error {
	return clients.ApplyAggregateTx(ctx, r.tx, clientID, delta)
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	if err := r.DeleteLines(ctx, id); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM deliveries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (*Delivery, error) {
	return getDelivery(ctx, r.tx, id, " FOR UPDATE")
}
