package invoices

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

// GetSourceDeliveriesForUpdate locks the requested deliveries and returns them
// with their lines, in the order the ids were given. A missing id fails the
// whole read.
func (r *txRepository) GetSourceDeliveriesForUpdate(ctx context.Context, ids []int64) ([]SourceDelivery, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, number, client_id, client_name, status, discount_percent, invoice_id
		FROM deliveries WHERE id = ANY($1) FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*SourceDelivery, len(ids))
	for rows.Next() {
		var d SourceDelivery
		if err := rows.Scan(&d.ID, &d.Number, &d.ClientID, &d.ClientName, &d.Status, &d.DiscountPercent, &d.InvoiceID); err != nil {
			return nil, err
		}
		byID[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]SourceDelivery, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("delivery %d: %w", id, ErrDeliveryNotFound)
		}
		lineRows, err := r.tx.Query(ctx, `
			SELECT line_number, description, unit, delivered_quantity, unit_price
			FROM delivery_lines WHERE delivery_id = $1 ORDER BY line_number`, id)
		if err != nil {
			return nil, err
		}
		for lineRows.Next() {
			var l SourceDeliveryLine
			if err := lineRows.Scan(&l.LineNumber, &l.Description, &l.Unit, &l.DeliveredQuantity, &l.UnitPrice); err != nil {
				lineRows.Close()
				return nil, err
			}
			d.Lines = append(d.Lines, l)
		}
		lineRows.Close()
		if err := lineRows.Err(); err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *txRepository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	if inv.SourceDeliveries == nil {
		inv.SourceDeliveries = []DeliveryRef{}
	}
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO invoices (number, client_id, client_name, date_issued, due_date, status,
			discount_percent, gross_total, discount_amount, net_total, amount_paid, balance_remaining,
			source_deliveries, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id`,
		inv.Number, inv.ClientID, inv.ClientName, inv.DateIssued, inv.DueDate, inv.Status,
		inv.DiscountPercent, inv.GrossTotal, inv.DiscountAmount, inv.NetTotal, inv.AmountPaid, inv.BalanceRemaining,
		inv.SourceDeliveries, inv.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	return id, nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	if line.Sources == nil {
		line.Sources = []SourceContribution{}
	}
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO invoice_lines (invoice_id, line_number, description, unit, quantity, unit_price, line_total, source_contributions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		line.InvoiceID, line.LineNumber, line.Description, line.Unit, line.Quantity, line.UnitPrice, line.LineTotal, line.Sources,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice line: %w", err)
	}
	return id, nil
}

func (r *txRepository) DeleteLines(ctx context.Context, invoiceID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID)
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

	query := fmt.Sprintf("UPDATE invoices SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)
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

func (r *txRepository) SetDeliveryInvoiceRef(ctx context.Context, deliveryID, invoiceID int64, invoiceNumber string) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE deliveries SET invoice_id = $1, invoice_number = $2, updated_at = NOW()
		WHERE id = $3`, invoiceID, invoiceNumber, deliveryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d: %w", deliveryID, ErrDeliveryNotFound)
	}
	return nil
}

func (r *txRepository) ClearDeliveryInvoiceRefs(ctx context.Context, invoiceID int64) error {
	_, err := r.tx.Exec(ctx, `
		UPDATE deliveries SET invoice_id = NULL, invoice_number = NULL, updated_at = NOW()
		WHERE invoice_id = $1`, invoiceID)
	return err
}

func (r *txRepository) ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error {
	return clients.ApplyAggregateTx(ctx, r.tx, clientID, delta)
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	if err := r.DeleteLines(ctx, id); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return getInvoice(ctx, r.tx, id, " FOR UPDATE")
}
