// Package sequence hands out human-readable document numbers.
package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Document families used by the application. The codes follow the commercial
// vocabulary of the documents themselves (devis, bon de commande, bon de
// livraison, facture).
const (
	FamilyQuote    = "DEV"
	FamilyOrder    = "BC"
	FamilyDelivery = "BDL"
	FamilyInvoice  = "FAC"
	FamilyPayment  = "PAY"
	FamilyExpense  = "DEP"
)

// Allocator issues unique, monotonically increasing numbers per document
// family and year, formatted as NNN/<FAMILY>/<YEAR>.
type Allocator interface {
	Next(ctx context.Context, family string, year int) (string, error)
}

type allocator struct {
	pool *pgxpool.Pool
}

// NewAllocator returns an Allocator backed by the document_sequences table.
func NewAllocator(pool *pgxpool.Pool) Allocator {
	return &allocator{pool: pool}
}

// Next increments and reads the counter for (family, year) in a single upsert
// statement, so concurrent callers can never observe the same value.
func (a *allocator) Next(ctx context.Context, family string, year int) (string, error) {
	const query = `
		INSERT INTO document_sequences (family, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (family, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`
	var n int
	if err := a.pool.QueryRow(ctx, query, family, year).Scan(&n); err != nil {
		return "", fmt.Errorf("sequence: next %s/%d: %w", family, year, err)
	}
	return Format(n, family, year), nil
}

// Format renders a document number from its parts.
func Format(n int, family string, year int) string {
	return fmt.Sprintf("%03d/%s/%d", n, family, year)
}
