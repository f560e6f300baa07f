package expenses

import (
	"context"
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
)

// Service provides business logic for expenses.
type Service struct {
	repo    Repository
	numbers sequence.Allocator
}

// NewService creates a new service.
func NewService(repo Repository, numbers sequence.Allocator) *Service {
	return &Service{repo: repo, numbers: numbers}
}

// Create records a new expense.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Expense, error) {
	number, err := s.numbers.Next(ctx, sequence.FamilyExpense, req.ExpenseDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	id, err := s.repo.Create(ctx, Expense{
		Number:        number,
		Label:         req.Label,
		Category:      req.Category,
		Amount:        req.Amount,
		ExpenseDate:   req.ExpenseDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Recorded:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update patches an expense.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Expense, error) {
	updates := make(map[string]interface{})
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Category != nil {
		updates["category"] = req.Category
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.ExpenseDate != nil {
		updates["expense_date"] = *req.ExpenseDate
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = req.PaymentMethod
	}
	if req.Notes != nil {
		updates["notes"] = req.Notes
	}
	if req.Recorded != nil {
		updates["recorded"] = *req.Recorded
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Get retrieves an expense.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of expenses.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Expense, int, error) {
	return s.repo.List(ctx, req)
}
