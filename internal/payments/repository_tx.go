package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
)

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, invoiceID int64) (*InvoiceState, error) {
	var inv InvoiceState
	err := r.tx.QueryRow(ctx, `
		SELECT id, number, client_id, client_name, status, net_total, amount_paid, balance_remaining, paid_at
		FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID).Scan(
		&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName, &inv.Status, &inv.NetTotal, &inv.AmountPaid, &inv.BalanceRemaining, &inv.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO payments (number, invoice_id, invoice_number, client_id, client_name,
			amount, method, reference, payment_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id`,
		p.Number, p.InvoiceID, p.InvoiceNumber, p.ClientID, p.ClientName,
		p.Amount, p.Method, p.Reference, p.PaymentDate, p.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

func (r *txRepository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateInvoicePosition(ctx context.Context, invoiceID int64, updates map[string]interface{}) error {
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
	args = append(args, invoiceID)

	query := fmt.Sprintf("UPDATE invoices SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)
	tag, err := r.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) ApplyClientAggregate(ctx context.Context, clientID int64, delta clients.AggregateDelta) error {
	return clients.ApplyAggregateTx(ctx, r.tx, clientID, delta)
}
