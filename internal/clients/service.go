package clients

import (
	"context"
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Service handles client business logic. Aggregate totals on the client row
// are owned by the invoice and payment services; this service only manages
// identity fields.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Client, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: client name required", shared.ErrInvalidInput)
	}
	id, err := s.repo.Create(ctx, Client{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial update to a client's identity fields.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Client, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := make(map[string]interface{})
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: client name required", shared.ErrInvalidInput)
		}
		updates["name"] = *req.Name
	}
	if req.Contact != nil {
		updates["contact"] = req.Contact
	}
	if req.Phone != nil {
		updates["phone"] = req.Phone
	}
	if req.Email != nil {
		updates["email"] = req.Email
	}
	if req.Address != nil {
		updates["address"] = req.Address
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a client that has no commercial documents.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: client has %d documents", shared.ErrConflict, count)
	}
	return s.repo.Delete(ctx, id)
}

// Get retrieves a client by id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// List returns clients matching the filter.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}
