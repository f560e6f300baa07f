package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/documents/calc"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
)

// Service provides business logic for purchase orders.
type Service struct {
	repo       Repository
	clientRepo clients.Repository
	numbers    sequence.Allocator
}

// NewService creates a new service.
func NewService(repo Repository, clientRepo clients.Repository, numbers sequence.Allocator) *Service {
	return &Service{repo: repo, clientRepo: clientRepo, numbers: numbers}
}

func buildLines(reqs []LineRequest) ([]Line, []calc.Line) {
	lines := make([]Line, 0, len(reqs))
	calcLines := make([]calc.Line, 0, len(reqs))
	for i, lr := range reqs {
		lines = append(lines, Line{
			LineNumber:  i + 1,
			Description: lr.Description,
			Unit:        lr.Unit,
			Quantity:    lr.Quantity,
			UnitPrice:   lr.UnitPrice,
			LineTotal:   calc.LineTotal(lr.Quantity, lr.UnitPrice),
		})
		calcLines = append(calcLines, calc.Line{Quantity: lr.Quantity, UnitPrice: lr.UnitPrice})
	}
	return lines, calcLines
}

func validateLines(reqs []LineRequest) error {
	if len(reqs) == 0 {
		return ErrEmptyLines
	}
	for i, lr := range reqs {
		if lr.Quantity <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
	}
	return nil
}

// Create creates a new DRAFT purchase order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	client, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, ErrInvalidDiscount
	}

	number, err := s.numbers.Next(ctx, sequence.FamilyOrder, req.OrderDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	lines, calcLines := buildLines(req.Lines)
	gross, discount, net := calc.Totals(calcLines, req.DiscountPercent)

	order := Order{
		Number:             number,
		ClientID:           client.ID,
		ClientName:         client.Name,
		OrderDate:          req.OrderDate,
		WantedDeliveryDate: req.WantedDeliveryDate,
		Status:             StatusDraft,
		DiscountPercent:    req.DiscountPercent,
		GrossTotal:         gross,
		DiscountAmount:     discount,
		NetTotal:           net,
		Notes:              req.Notes,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id
		for _, line := range lines {
			line.OrderID = orderID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// Update replaces fields of a DRAFT order. Totals are always recomputed, from
// the new lines when given, otherwise from the stored ones.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Order, error) {
	if req.Lines != nil {
		if err := validateLines(*req.Lines); err != nil {
			return nil, err
		}
	}
	if req.DiscountPercent != nil && (*req.DiscountPercent < 0 || *req.DiscountPercent > 100) {
		return nil, ErrInvalidDiscount
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, current.Status)
		}

		updates := make(map[string]interface{})
		if req.OrderDate != nil {
			updates["order_date"] = *req.OrderDate
		}
		if req.WantedDeliveryDate != nil {
			updates["wanted_delivery_date"] = req.WantedDeliveryDate
		}
		if req.Notes != nil {
			updates["notes"] = req.Notes
		}

		discountPercent := current.DiscountPercent
		if req.DiscountPercent != nil {
			discountPercent = *req.DiscountPercent
			updates["discount_percent"] = discountPercent
		}

		var calcLines []calc.Line
		if req.Lines != nil {
			lines, cl := buildLines(*req.Lines)
			calcLines = cl
			if err := tx.DeleteLines(ctx, id); err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
			for _, line := range lines {
				line.OrderID = id
				if _, err := tx.InsertLine(ctx, line); err != nil {
					return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
				}
			}
		} else {
			for _, l := range current.Lines {
				calcLines = append(calcLines, calc.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice})
			}
		}

		gross, discount, net := calc.Totals(calcLines, discountPercent)
		updates["gross_total"] = gross
		updates["discount_amount"] = discount
		updates["net_total"] = net

		return tx.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Send marks a DRAFT order as sent to the client.
func (s *Service) Send(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, func(current *Order) (Status, map[string]interface{}, error) {
		if !current.Status.CanSend() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotSend, current.Status)
		}
		return StatusSent, map[string]interface{}{"sent_at": time.Now()}, nil
	})
}

// Approve marks a SENT order as approved; only approved orders can generate
// deliveries.
func (s *Service) Approve(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, func(current *Order) (Status, map[string]interface{}, error) {
		if !current.Status.CanApprove() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotApprove, current.Status)
		}
		return StatusApproved, map[string]interface{}{"approved_at": time.Now()}, nil
	})
}

// Cancel cancels a pre-terminal order.
func (s *Service) Cancel(ctx context.Context, id int64, req CancelRequest) (*Order, error) {
	return s.transition(ctx, id, func(current *Order) (Status, map[string]interface{}, error) {
		if !current.Status.CanCancel() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotCancel, current.Status)
		}
		return StatusCanceled, map[string]interface{}{
			"canceled_at":         time.Now(),
			"cancellation_reason": req.Reason,
		}, nil
	})
}

func (s *Service) transition(ctx context.Context, id int64, decide func(*Order) (Status, map[string]interface{}, error)) (*Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		status, updates, err := decide(current)
		if err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, status, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a DRAFT order and its lines. Orders referenced by a
// non-canceled delivery are kept even as drafts.
func (s *Service) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.CountActiveDeliveries(ctx, id)
	if err != nil {
		return fmt.Errorf("count deliveries: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w (%d active)", ErrHasDeliveries, count)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotDelete, current.Status)
		}
		return tx.Delete(ctx, id)
	})
}

// Get retrieves an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of orders.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Order, int, error) {
	return s.repo.List(ctx, req)
}
