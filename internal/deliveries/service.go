package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/documents/calc"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Deliveries can only be generated from orders the client approved.
const orderStatusApproved = "APPROVED"

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for delivery notes and order fulfillment.
type Service struct {
	repo    Repository
	numbers sequence.Allocator
	audit   AuditPort
}

// NewService creates a new service.
func NewService(repo Repository, numbers sequence.Allocator, audit AuditPort) *Service {
	return &Service{repo: repo, numbers: numbers, audit: audit}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "delivery", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func validateLineRequests(reqs []LineRequest) error {
	if len(reqs) == 0 {
		return ErrEmptyLines
	}
	seen := make(map[int]bool, len(reqs))
	for _, lr := range reqs {
		if lr.DeliveredQuantity <= 0 {
			return fmt.Errorf("line %d: %w", lr.LineNumber, ErrInvalidQuantity)
		}
		if seen[lr.LineNumber] {
			return fmt.Errorf("line %d listed twice: %w", lr.LineNumber, ErrInvalidQuantity)
		}
		seen[lr.LineNumber] = true
	}
	return nil
}

// buildDeliveryLines resolves each requested line against the order and gates
// it on the remaining deliverable quantity. Quantities are checked per line
// number; a request above the remaining amount rejects the whole delivery.
func buildDeliveryLines(order *OrderRef, remaining map[int]float64, reqs []LineRequest) ([]Line, []calc.Line, error) {
	byNumber := make(map[int]OrderRefLine, len(order.Lines))
	for _, ol := range order.Lines {
		byNumber[ol.LineNumber] = ol
	}

	lines := make([]Line, 0, len(reqs))
	calcLines := make([]calc.Line, 0, len(reqs))
	for _, lr := range reqs {
		ol, ok := byNumber[lr.LineNumber]
		if !ok {
			return nil, nil, fmt.Errorf("line %d: %w", lr.LineNumber, ErrLineNotFound)
		}
		if lr.DeliveredQuantity > remaining[lr.LineNumber] {
			return nil, nil, fmt.Errorf("line %d: %.2f requested, %.2f remaining on %s: %w",
				lr.LineNumber, lr.DeliveredQuantity, remaining[lr.LineNumber], order.Number, ErrExceedsRemaining)
		}
		lines = append(lines, Line{
			LineNumber:        ol.LineNumber,
			Description:       ol.Description,
			Unit:              ol.Unit,
			OrderedQuantity:   ol.Quantity,
			DeliveredQuantity: lr.DeliveredQuantity,
			UnitPrice:         ol.UnitPrice,
			LineTotal:         calc.LineTotal(lr.DeliveredQuantity, ol.UnitPrice),
		})
		calcLines = append(calcLines, calc.Line{Quantity: lr.DeliveredQuantity, UnitPrice: ol.UnitPrice})
	}
	return lines, calcLines, nil
}

// CreateFromOrder creates a DRAFT delivery against an approved order. Line
// prices, descriptions and the discount are inherited from the order; the
// caller only chooses quantities. The remaining-quantity check runs on the
// transaction connection after all reads and before any insert, so concurrent
// deliveries against the same order serialize instead of over-delivering.
func (s *Service) CreateFromOrder(ctx context.Context, req CreateRequest) (*Delivery, error) {
	if err := validateLineRequests(req.Lines); err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx, sequence.FamilyDelivery, req.DeliveryDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	var deliveryID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderRef(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != orderStatusApproved {
			return fmt.Errorf("%w (order %s is %s)", ErrOrderNotApproved, order.Number, order.Status)
		}

		delivered, err := tx.SumDeliveredByLine(ctx, req.OrderID, 0)
		if err != nil {
			return fmt.Errorf("sum delivered: %w", err)
		}
		lines, calcLines, err := buildDeliveryLines(order, remainingByLine(*order, delivered), req.Lines)
		if err != nil {
			return err
		}

		gross, discount, net := calc.Totals(calcLines, order.DiscountPercent)
		id, err := tx.CreateDelivery(ctx, Delivery{
			Number:          number,
			OrderID:         order.ID,
			OrderNumber:     order.Number,
			ClientID:        order.ClientID,
			ClientName:      order.ClientName,
			DeliveryDate:    req.DeliveryDate,
			Carrier:         req.Carrier,
			DeliveryTime:    req.DeliveryTime,
			Observation:     req.Observation,
			Status:          StatusDraft,
			DiscountPercent: order.DiscountPercent,
			GrossTotal:      gross,
			DiscountAmount:  discount,
			NetTotal:        net,
		})
		if err != nil {
			return err
		}
		deliveryID = id
		for _, line := range lines {
			line.DeliveryID = deliveryID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "DELIVERY_CREATE", deliveryID, map[string]any{"number": number, "order_id": req.OrderID})
	return s.repo.Get(ctx, deliveryID)
}

// Update modifies a DRAFT delivery. Replacing lines re-runs the over-delivery
// gate with this delivery's own quantities excluded from the sums.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Delivery, error) {
	if req.Lines != nil {
		if err := validateLineRequests(*req.Lines); err != nil {
			return nil, err
		}
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
		if req.DeliveryDate != nil {
			updates["delivery_date"] = *req.DeliveryDate
		}
		if req.Carrier != nil {
			updates["carrier"] = req.Carrier
		}
		if req.DeliveryTime != nil {
			updates["delivery_time"] = req.DeliveryTime
		}
		if req.Observation != nil {
			updates["observation"] = req.Observation
		}

		if req.Lines != nil {
			order, err := tx.GetOrderRef(ctx, current.OrderID)
			if err != nil {
				return err
			}
			delivered, err := tx.SumDeliveredByLine(ctx, current.OrderID, id)
			if err != nil {
				return fmt.Errorf("sum delivered: %w", err)
			}
			lines, calcLines, err := buildDeliveryLines(order, remainingByLine(*order, delivered), *req.Lines)
			if err != nil {
				return err
			}
			if err := tx.DeleteLines(ctx, id); err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
			for _, line := range lines {
				line.DeliveryID = id
				if _, err := tx.InsertLine(ctx, line); err != nil {
					return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
				}
			}
			gross, discount, net := calc.Totals(calcLines, current.DiscountPercent)
			updates["gross_total"] = gross
			updates["discount_amount"] = discount
			updates["net_total"] = net
		}

		return tx.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// MarkEnRoute marks a DRAFT delivery as having left the warehouse.
func (s *Service) MarkEnRoute(ctx context.Context, id int64) (*Delivery, error) {
	return s.transition(ctx, id, func(current *Delivery) (Status, map[string]interface{}, error) {
		if current.Status != StatusDraft {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotShip, current.Status)
		}
		return StatusEnRoute, map[string]interface{}{"en_route_at": time.Now()}, nil
	})
}

// MarkDelivered marks an EN_ROUTE delivery as received by the client, making
// it billable. The client's delivered total moves by the delivery's net in the
// same transaction; DELIVERED is terminal so the delta is never reversed.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*Delivery, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusEnRoute {
			return fmt.Errorf("%w (status %s)", ErrCannotDeliver, current.Status)
		}
		if err := tx.UpdateStatus(ctx, id, StatusDelivered, map[string]interface{}{"delivered_at": time.Now()}); err != nil {
			return err
		}
		return tx.ApplyClientAggregate(ctx, current.ClientID, clients.AggregateDelta{Delivered: current.NetTotal})
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "DELIVERY_DELIVERED", id, nil)
	return s.repo.Get(ctx, id)
}

// Cancel cancels a DRAFT or EN_ROUTE delivery, releasing its quantities back
// to the order's remaining budget.
func (s *Service) Cancel(ctx context.Context, id int64) (*Delivery, error) {
	d, err := s.transition(ctx, id, func(current *Delivery) (Status, map[string]interface{}, error) {
		if !current.Status.CanCancel() {
			return "", nil, fmt.Errorf("%w (status %s)", ErrCannotCancel, current.Status)
		}
		if current.InvoiceID != nil {
			return "", nil, ErrAlreadyInvoiced
		}
		return StatusCanceled, map[string]interface{}{"canceled_at": time.Now()}, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "DELIVERY_CANCEL", id, nil)
	return d, nil
}

func (s *Service) transition(ctx context.Context, id int64, decide func(*Delivery) (Status, map[string]interface{}, error)) (*Delivery, error) {
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

// Delete removes a DRAFT delivery and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, current.Status)
		}
		return tx.Delete(ctx, id)
	})
}

// Get retrieves a delivery with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Delivery, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of deliveries.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Delivery, int, error) {
	return s.repo.List(ctx, req)
}

// Progress reports per-line fulfillment for an order. The report is computed
// from current deliveries on every call; nothing is persisted.
func (s *Service) Progress(ctx context.Context, orderID int64) (*ProgressReport, error) {
	order, err := s.repo.GetOrderRef(ctx, orderID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	report := BuildProgress(*order, all)
	return &report, nil
}
