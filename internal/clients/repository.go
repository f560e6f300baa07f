package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Repository provides PostgreSQL backed persistence for clients.
type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, req ListRequest) ([]Client, int, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	CountDocuments(ctx context.Context, clientID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, name, contact, phone, email, address,
	total_delivered, total_invoiced, total_paid, total_owed, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.Address,
		&c.TotalDelivered, &c.TotalInvoiced, &c.TotalPaid, &c.TotalOwed,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	where := ""
	args := []interface{}{}
	if req.Search != "" {
		where = "WHERE search_name LIKE $1"
		args = append(args, "%"+NormalizeSearch(req.Search)+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		clientColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.Address,
			&c.TotalDelivered, &c.TotalInvoiced, &c.TotalPaid, &c.TotalOwed,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, search_name, contact, phone, email, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.Name, NormalizeSearch(c.Name), c.Contact, c.Phone, c.Email, c.Address,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if name, ok := updates["name"].(string); ok {
		updates["search_name"] = NormalizeSearch(name)
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
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

	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $%d`, joinClauses(setClauses), argPos)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountDocuments counts commercial documents referencing the client, used to
// guard deletion.
func (r *repository) CountDocuments(ctx context.Context, clientID int64) (int, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM quotes WHERE client_id = $1)
		     + (SELECT COUNT(*) FROM orders WHERE client_id = $1)
		     + (SELECT COUNT(*) FROM deliveries WHERE client_id = $1)
		     + (SELECT COUNT(*) FROM invoices WHERE client_id = $1)
	`
	var count int
	err := r.pool.QueryRow(ctx, query, clientID).Scan(&count)
	return count, err
}

func joinClauses(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += ", " + c
	}
	return out
}
