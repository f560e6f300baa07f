package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/documents/calc"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/orders"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for quotes.
type Service struct {
	repo       Repository
	clientRepo clients.Repository
	orders     *orders.Service
	numbers    sequence.Allocator
	audit      AuditPort
}

// NewService creates a new service.
func NewService(repo Repository, clientRepo clients.Repository, orderService *orders.Service, numbers sequence.Allocator, audit AuditPort) *Service {
	return &Service{repo: repo, clientRepo: clientRepo, orders: orderService, numbers: numbers, audit: audit}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "quote", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
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

// Create creates a new DRAFT quote.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Quote, error) {
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

	number, err := s.numbers.Next(ctx, sequence.FamilyQuote, req.QuoteDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	lines, calcLines := buildLines(req.Lines)
	gross, discount, net := calc.Totals(calcLines, req.DiscountPercent)

	quote := Quote{
		Number:          number,
		ClientID:        client.ID,
		ClientName:      client.Name,
		QuoteDate:       req.QuoteDate,
		ValidUntil:      req.ValidUntil,
		Status:          StatusDraft,
		DiscountPercent: req.DiscountPercent,
		GrossTotal:      gross,
		DiscountAmount:  discount,
		NetTotal:        net,
		Notes:           req.Notes,
	}

	var quoteID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, quote)
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		quoteID = id
		for _, line := range lines {
			line.QuoteID = quoteID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quoteID)
}

// Update replaces fields of a DRAFT quote, recomputing totals as orders do.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Quote, error) {
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
		if req.QuoteDate != nil {
			updates["quote_date"] = *req.QuoteDate
		}
		if req.ValidUntil != nil {
			updates["valid_until"] = req.ValidUntil
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
				line.QuoteID = id
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

// Send marks a DRAFT quote as sent to the client.
func (s *Service) Send(ctx context.Context, id int64) (*Quote, error) {
	return s.transition(ctx, id, func(current *Quote) (Status, map[string]interface{}, error) {
		if !current.Status.CanSend() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotSend, current.Status)
		}
		return StatusSent, map[string]interface{}{"sent_at": time.Now()}, nil
	})
}

// Reject marks a SENT quote as turned down by the client.
func (s *Service) Reject(ctx context.Context, id int64) (*Quote, error) {
	return s.transition(ctx, id, func(current *Quote) (Status, map[string]interface{}, error) {
		if !current.Status.CanDecide() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotDecide, current.Status)
		}
		return StatusRejected, map[string]interface{}{"rejected_at": time.Now()}, nil
	})
}

// Cancel cancels a pre-terminal quote.
func (s *Service) Cancel(ctx context.Context, id int64, req CancelRequest) (*Quote, error) {
	return s.transition(ctx, id, func(current *Quote) (Status, map[string]interface{}, error) {
		if !current.Status.CanCancel() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotCancel, current.Status)
		}
		return StatusCanceled, map[string]interface{}{
			"canceled_at":         time.Now(),
			"cancellation_reason": req.Reason,
		}, nil
	})
}

// ConvertToOrder accepts a SENT quote by creating a DRAFT purchase order with
// the same client, lines and discount. The order is created first; the quote
// is stamped ACCEPTED with the order reference only once creation succeeded.
func (s *Service) ConvertToOrder(ctx context.Context, id int64, req ConvertRequest) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quote.Status.CanDecide() {
		return nil, fmt.Errorf("%w (status %s)", ErrCannotConvert, quote.Status)
	}

	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}
	orderLines := make([]orders.LineRequest, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		orderLines = append(orderLines, orders.LineRequest{
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	order, err := s.orders.Create(ctx, orders.CreateRequest{
		ClientID:           quote.ClientID,
		OrderDate:          orderDate,
		WantedDeliveryDate: req.WantedDeliveryDate,
		DiscountPercent:    quote.DiscountPercent,
		Notes:              quote.Notes,
		Lines:              orderLines,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	converted, err := s.transition(ctx, id, func(current *Quote) (Status, map[string]interface{}, error) {
		if !current.Status.CanDecide() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotConvert, current.Status)
		}
		return StatusAccepted, map[string]interface{}{
			"accepted_at":            time.Now(),
			"converted_order_id":     order.ID,
			"converted_order_number": order.Number,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "QUOTE_CONVERT", id, map[string]any{"order_id": order.ID, "order_number": order.Number})
	return converted, nil
}

func (s *Service) transition(ctx context.Context, id int64, decide func(*Quote) (Status, map[string]interface{}, error)) (*Quote, error) {
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

// Delete removes a DRAFT quote and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
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

// Get retrieves a quote with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of quotes.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}
