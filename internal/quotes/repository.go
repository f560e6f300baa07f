package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
)

// Repository provides data access for quotes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListRequest) ([]Quote, int, error)
}

// TxRepository exposes operations available within a transaction.
type TxRepository interface {
	Create(ctx context.Context, q Quote) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, quoteID int64) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (*Quote, error)
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

const quoteColumns = `id, number, client_id, client_name, quote_date, valid_until,
	status, discount_percent, gross_total, discount_amount, net_total,
	converted_order_id, converted_order_number, notes, cancellation_reason,
	sent_at, accepted_at, rejected_at, canceled_at, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.Number, &q.ClientID, &q.ClientName, &q.QuoteDate, &q.ValidUntil,
		&q.Status, &q.DiscountPercent, &q.GrossTotal, &q.DiscountAmount, &q.NetTotal,
		&q.ConvertedOrderID, &q.ConvertedOrderNumber, &q.Notes, &q.CancellationReason,
		&q.SentAt, &q.AcceptedAt, &q.RejectedAt, &q.CanceledAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q queryer, quoteID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, quote_id, line_number, description, unit, quantity, unit_price, line_total
		FROM quote_lines WHERE quote_id = $1 ORDER BY line_number`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.LineNumber, &l.Description, &l.Unit, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	q.Lines = lines
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Quote, int, error) {
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotes %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY quote_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(
			&q.ID, &q.Number, &q.ClientID, &q.ClientName, &q.QuoteDate, &q.ValidUntil,
			&q.Status, &q.DiscountPercent, &q.GrossTotal, &q.DiscountAmount, &q.NetTotal,
			&q.ConvertedOrderID, &q.ConvertedOrderNumber, &q.Notes, &q.CancellationReason,
			&q.SentAt, &q.AcceptedAt, &q.RejectedAt, &q.CanceledAt, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}
