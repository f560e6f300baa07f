package quotes

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

// Create inserts the quote header.
func (t *txRepository) Create(ctx context.Context, q Quote) (int64, error) {
	const query = `
		INSERT INTO quotes (
			number, client_id, client_name, quote_date, valid_until,
			status, discount_percent, gross_total, discount_amount, net_total, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		q.Number, q.ClientID, q.ClientName, q.QuoteDate, q.ValidUntil,
		q.Status, q.DiscountPercent, q.GrossTotal, q.DiscountAmount, q.NetTotal, q.Notes,
	).Scan(&id)
	return id, err
}

// InsertLine inserts a quote line.
func (t *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	const query = `
		INSERT INTO quote_lines (quote_id, line_number, description, unit, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		line.QuoteID, line.LineNumber, line.Description, line.Unit, line.Quantity, line.UnitPrice, line.LineTotal,
	).Scan(&id)
	return id, err
}

// DeleteLines removes all lines of a quote.
func (t *txRepository) DeleteLines(ctx context.Context, quoteID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM quote_lines WHERE quote_id = $1`, quoteID)
	return err
}

// Update applies field updates to the quote header.
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

	query := fmt.Sprintf(`UPDATE quotes SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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

// Delete removes the quote and its lines.
func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM quote_lines WHERE quote_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForUpdate re-reads the quote inside the transaction so status checks act
// on current data, not on a stale pre-transaction read.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(t.tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	q.Lines = lines
	return q, nil
}
