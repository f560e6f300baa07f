package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/documents/calc"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for the payment ledger.
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
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "payment", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

// Add applies a payment against the balance of an ISSUED or PARTIALLY_PAID
// invoice. The invoice is locked and read first, then the payment row, invoice
// position and client aggregate are written in the same transaction.
// Overpayment is rejected against the balance observed under the lock.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Payment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w (%s)", ErrInvalidMethod, req.Method)
	}
	if req.Method.RequiresReference() && (req.Reference == nil || *req.Reference == "") {
		return nil, fmt.Errorf("%w (%s)", ErrMissingReference, req.Method)
	}

	number, err := s.numbers.Next(ctx, sequence.FamilyPayment, req.PaymentDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate number: %w", err)
	}

	var paymentID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == invoices.StatusCanceled {
			return ErrInvoiceCanceled
		}
		if inv.Status == invoices.StatusDraft {
			return fmt.Errorf("%w (%s)", ErrInvoiceNotIssued, inv.Number)
		}
		if inv.Status == invoices.StatusPaid {
			return ErrAlreadyPaid
		}
		if req.Amount > inv.BalanceRemaining {
			return fmt.Errorf("%w (%.2f > %.2f on %s)", ErrOverpayment, req.Amount, inv.BalanceRemaining, inv.Number)
		}

		newAmountPaid := inv.AmountPaid + req.Amount
		newBalance := calc.BalanceRemaining(inv.NetTotal, newAmountPaid)
		newStatus := Classify(inv.NetTotal, newAmountPaid, inv.Status)

		id, err := tx.CreatePayment(ctx, Payment{
			Number:        number,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			ClientID:      inv.ClientID,
			ClientName:    inv.ClientName,
			Amount:        req.Amount,
			Method:        req.Method,
			Reference:     req.Reference,
			PaymentDate:   req.PaymentDate,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}
		paymentID = id

		updates := map[string]interface{}{
			"amount_paid":       newAmountPaid,
			"balance_remaining": newBalance,
			"status":            newStatus,
		}
		if newStatus == invoices.StatusPaid && inv.PaidAt == nil {
			updates["paid_at"] = time.Now()
		}
		if err := tx.UpdateInvoicePosition(ctx, inv.ID, updates); err != nil {
			return err
		}
		return tx.ApplyClientAggregate(ctx, inv.ClientID, clients.AggregateDelta{
			Paid: req.Amount,
			Owed: -req.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "PAYMENT_ADD", paymentID, map[string]any{"number": number, "invoice_id": req.InvoiceID, "amount": req.Amount})
	return s.repo.Get(ctx, paymentID)
}

// Delete reverses a payment: the invoice's position is recomputed from the
// stored amount, its status reclassified, and the client aggregate adjusted
// inversely. The paid timestamp is cleared when the invoice leaves PAID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPaymentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvoiceForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == invoices.StatusCanceled {
			return ErrAdjustCanceled
		}

		newAmountPaid := inv.AmountPaid - p.Amount
		if newAmountPaid < 0 {
			newAmountPaid = 0
		}
		newBalance := calc.BalanceRemaining(inv.NetTotal, newAmountPaid)
		newStatus := Classify(inv.NetTotal, newAmountPaid, inv.Status)

		if err := tx.DeletePayment(ctx, id); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"amount_paid":       newAmountPaid,
			"balance_remaining": newBalance,
			"status":            newStatus,
		}
		if inv.Status == invoices.StatusPaid && newStatus != invoices.StatusPaid {
			updates["paid_at"] = nil
		}
		if err := tx.UpdateInvoicePosition(ctx, inv.ID, updates); err != nil {
			return err
		}
		return tx.ApplyClientAggregate(ctx, inv.ClientID, clients.AggregateDelta{
			Paid: -p.Amount,
			Owed: p.Amount,
		})
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PAYMENT_DELETE", id, nil)
	return nil
}

// Get retrieves a payment.
func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

// List returns a paginated list of payments.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, req)
}

// ListByInvoice returns the payments applied to one invoice, oldest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}
