package clients

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// ApplyAggregateTx adjusts a client's running totals on the caller's
// transaction. Totals move only by signed deltas inside the transaction of the
// event that caused them, never by wholesale recompute.
func ApplyAggregateTx(ctx context.Context, tx pgx.Tx, clientID int64, d AggregateDelta) error {
	tag, err := tx.Exec(ctx, `
		UPDATE clients SET
			total_delivered = total_delivered + $1,
			total_invoiced = total_invoiced + $2,
			total_paid = total_paid + $3,
			total_owed = total_owed + $4,
			updated_at = NOW()
		WHERE id = $5`,
		d.Delivered, d.Invoiced, d.Paid, d.Owed, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
