package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/documents/calc"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Only deliveries the client has received can be billed.
const deliveryStatusDelivered = "DELIVERED"

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for invoices.
type Service struct {
	repo       Repository
	clientRepo clients.Repository
	numbers    sequence.Allocator
	audit      AuditPort
}

// NewService creates a new service.
func NewService(repo Repository, clientRepo clients.Repository, numbers sequence.Allocator, audit AuditPort) *Service {
	return &Service{repo: repo, clientRepo: clientRepo, numbers: numbers, audit: audit}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "invoice", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

// validateSources runs the three source checks in order: delivered status,
// single client, not already billed. Each failure carries the offending
// delivery numbers.
func validateSources(sources []SourceDelivery) error {
	var notDelivered, billed []string
	for _, d := range sources {
		if d.Status != deliveryStatusDelivered {
			notDelivered = append(notDelivered, d.Number)
		}
	}
	if len(notDelivered) > 0 {
		return fmt.Errorf("%w (%s)", ErrNotDelivered, strings.Join(notDelivered, ", "))
	}
	for _, d := range sources[1:] {
		if d.ClientID != sources[0].ClientID {
			return ErrMixedClients
		}
	}
	for _, d := range sources {
		if d.InvoiceID != nil {
			billed = append(billed, d.Number)
		}
	}
	if len(billed) > 0 {
		return fmt.Errorf("%w (%s)", ErrAlreadyInvoiced, strings.Join(billed, ", "))
	}
	return nil
}

// CreateFromDeliveries aggregates delivered, unbilled deliveries of one client
// into a DRAFT invoice. The deliveries are locked and validated inside the
// transaction before any write, then marked with the new invoice's reference
// so they cannot be billed twice.
func (s *Service) CreateFromDeliveries(ctx context.Context, req CreateFromDeliveriesRequest) (*Invoice, error) {
	if len(req.DeliveryIDs) == 0 {
		return nil, ErrEmptyLines
	}
	seen := make(map[int64]bool, len(req.DeliveryIDs))
	for _, id := range req.DeliveryIDs {
		if seen[id] {
			return nil, fmt.Errorf("delivery %d: %w", id, ErrDuplicateDelivery)
		}
		seen[id] = true
	}

	number, err := s.numbers.Next(ctx, sequence.FamilyInvoice, req.DateIssued.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sources, err := tx.GetSourceDeliveriesForUpdate(ctx, req.DeliveryIDs)
		if err != nil {
			return err
		}
		if err := validateSources(sources); err != nil {
			return err
		}

		discountPercent := sources[0].DiscountPercent
		if req.DiscountPercent != nil {
			discountPercent = *req.DiscountPercent
		}

		lines := MergeDeliveryLines(sources)
		calcLines := make([]calc.Line, 0, len(lines))
		for i := range lines {
			lines[i].LineTotal = calc.LineTotal(lines[i].Quantity, lines[i].UnitPrice)
			calcLines = append(calcLines, calc.Line{Quantity: lines[i].Quantity, UnitPrice: lines[i].UnitPrice})
		}
		gross, discount, net := calc.Totals(calcLines, discountPercent)

		refs := make([]DeliveryRef, 0, len(sources))
		for _, d := range sources {
			refs = append(refs, DeliveryRef{ID: d.ID, Number: d.Number})
		}

		id, err := tx.CreateInvoice(ctx, Invoice{
			Number:           number,
			ClientID:         sources[0].ClientID,
			ClientName:       sources[0].ClientName,
			DateIssued:       req.DateIssued,
			DueDate:          req.DueDate,
			Status:           StatusDraft,
			DiscountPercent:  discountPercent,
			GrossTotal:       gross,
			DiscountAmount:   discount,
			NetTotal:         net,
			AmountPaid:       0,
			BalanceRemaining: net,
			SourceDeliveries: refs,
			Notes:            req.Notes,
		})
		if err != nil {
			return err
		}
		invoiceID = id
		for _, line := range lines {
			line.InvoiceID = invoiceID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
			}
		}
		for _, d := range sources {
			if err := tx.SetDeliveryInvoiceRef(ctx, d.ID, invoiceID, number); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "INVOICE_CREATE", invoiceID, map[string]any{"number": number, "deliveries": len(req.DeliveryIDs)})
	return s.repo.Get(ctx, invoiceID)
}

func buildManualLines(reqs []LineRequest) ([]Line, []calc.Line) {
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

// CreateManual creates a DRAFT invoice from typed lines. No deliveries are
// consumed and the lines carry no traceability entries.
func (s *Service) CreateManual(ctx context.Context, req CreateManualRequest) (*Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	client, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	number, err := s.numbers.Next(ctx, sequence.FamilyInvoice, req.DateIssued.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	lines, calcLines := buildManualLines(req.Lines)
	gross, discount, net := calc.Totals(calcLines, req.DiscountPercent)

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateInvoice(ctx, Invoice{
			Number:           number,
			ClientID:         client.ID,
			ClientName:       client.Name,
			DateIssued:       req.DateIssued,
			DueDate:          req.DueDate,
			Status:           StatusDraft,
			DiscountPercent:  req.DiscountPercent,
			GrossTotal:       gross,
			DiscountAmount:   discount,
			NetTotal:         net,
			AmountPaid:       0,
			BalanceRemaining: net,
			Notes:            req.Notes,
		})
		if err != nil {
			return err
		}
		invoiceID = id
		for _, line := range lines {
			line.InvoiceID = invoiceID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line %d: %w", line.LineNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "INVOICE_CREATE", invoiceID, map[string]any{"number": number, "manual": true})
	return s.repo.Get(ctx, invoiceID)
}

// Update patches a DRAFT invoice. Totals are recomputed from the new lines
// when given, otherwise from the stored ones, so a discount-only patch still
// lands on consistent totals. Line patches are refused on delivery-sourced
// invoices: replacing merged lines would orphan their traceability entries.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotEdit, current.Status)
		}

		updates := make(map[string]interface{})
		if req.DateIssued != nil {
			updates["date_issued"] = *req.DateIssued
		}
		if req.DueDate != nil {
			updates["due_date"] = req.DueDate
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
			if len(*req.Lines) == 0 {
				return ErrEmptyLines
			}
			if len(current.SourceDeliveries) > 0 {
				return ErrSourcedLines
			}
			lines, cl := buildManualLines(*req.Lines)
			calcLines = cl
			if err := tx.DeleteLines(ctx, id); err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
			for _, line := range lines {
				line.InvoiceID = id
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
		updates["balance_remaining"] = calc.BalanceRemaining(net, current.AmountPaid)

		return tx.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Issue moves a DRAFT invoice to ISSUED and adds its net to the client's
// invoiced and owed totals in the same transaction.
func (s *Service) Issue(ctx context.Context, id int64) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("%w (status %s)", ErrCannotIssue, current.Status)
		}
		if err := tx.UpdateStatus(ctx, id, StatusIssued, map[string]interface{}{"issued_at": time.Now()}); err != nil {
			return err
		}
		return tx.ApplyClientAggregate(ctx, current.ClientID, clients.AggregateDelta{
			Invoiced: current.NetTotal,
			Owed:     current.NetTotal,
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "INVOICE_ISSUE", id, nil)
	return s.repo.Get(ctx, id)
}

// Cancel voids a non-canceled invoice. An invoice that already contributed to
// the client's totals has its contribution reversed, and any source deliveries
// become billable again. Payment rows are kept for audit.
func (s *Service) Cancel(ctx context.Context, id int64, req CancelRequest) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanCancel() {
			return ErrCannotCancel
		}

		updates := map[string]interface{}{
			"canceled_at":         time.Now(),
			"cancellation_reason": req.Reason,
		}
		if err := tx.UpdateStatus(ctx, id, StatusCanceled, updates); err != nil {
			return err
		}
		if current.Status.Contributed() {
			err := tx.ApplyClientAggregate(ctx, current.ClientID, clients.AggregateDelta{
				Invoiced: -current.NetTotal,
				Paid:     -current.AmountPaid,
				Owed:     -current.BalanceRemaining,
			})
			if err != nil {
				return err
			}
		}
		if len(current.SourceDeliveries) > 0 {
			return tx.ClearDeliveryInvoiceRefs(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "INVOICE_CANCEL", id, map[string]any{"reason": req.Reason})
	return s.repo.Get(ctx, id)
}

// TransitionStatus dispatches a requested status change. PARTIALLY_PAID and
// PAID carry payment side effects and are rejected here.
func (s *Service) TransitionStatus(ctx context.Context, id int64, req TransitionRequest) (*Invoice, error) {
	switch req.Status {
	case StatusIssued:
		return s.Issue(ctx, id)
	case StatusCanceled:
		return s.Cancel(ctx, id, CancelRequest{Reason: req.Reason})
	case StatusPartiallyPaid, StatusPaid:
		return nil, ErrPaymentDrivenStatus
	default:
		return nil, fmt.Errorf("%w (%s)", ErrUnknownStatus, req.Status)
	}
}

// Delete removes a DRAFT invoice, releasing any source deliveries it held.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w (status %s)", ErrCannotDelete, current.Status)
		}
		if len(current.SourceDeliveries) > 0 {
			if err := tx.ClearDeliveryInvoiceRefs(ctx, id); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, id)
	})
}

// Get retrieves an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of invoices.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}
