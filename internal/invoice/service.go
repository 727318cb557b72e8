// Package invoice implements the invoice aggregate and its lifecycle.
//
// An invoice starts as DRAFT, is sent to the client, collects one or more
// payments and ends as PAID, or is cancelled. Unpaid invoices past their due
// date are flagged OVERDUE by the overdue sweep.
//
// Lifecycle:
//
//	DRAFT -> SENT -> PARTIALLY_PAID -> PAID
//	SENT | PARTIALLY_PAID -> OVERDUE -> PARTIALLY_PAID | PAID
//	any unpaid status -> CANCELLED
//
// Totals:
//   - Line amount = quantity x unit price, exact
//   - Discount = subtotal x discount% / 100, rounded half-up to 2 decimals
//   - Tax = (subtotal - discount) x tax% / 100, rounded half-up to 2 decimals
//   - Total = subtotal - discount + tax
//
// Line items, rates and prices can only be edited while the invoice is a
// DRAFT. Once sent, the figures the client received are frozen.
package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoicing/internal/clock"
	"invoicing/internal/logger"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// Defaults are applied to new invoices when the request leaves a field unset.
type Defaults struct {
	NumberPrefix       string
	TaxPercentage      money.Percentage
	DiscountPercentage money.Percentage
	PaymentTermDays    int
}

// Service coordinates invoice creation and edits against a Repository.
type Service struct {
	repo     Repository
	numbers  *NumberGenerator
	clock    clock.Clock
	defaults Defaults
	log      zerolog.Logger
}

func NewService(repo Repository, clk clock.Clock, defaults Defaults) *Service {
	return &Service{
		repo:     repo,
		numbers:  NewNumberGenerator(repo, defaults.NumberPrefix),
		clock:    clk,
		defaults: defaults,
		log:      logger.WithComponent("invoice-service"),
	}
}

// Header carries the optional header overrides shared by both create paths.
type Header struct {
	Client             models.ClientRef
	TaxPercentage      *money.Percentage
	DiscountPercentage *money.Percentage
	PaymentTermDays    *int
	Notes              string
	Terms              string
}

// ManualRequest creates an invoice from free-form line items.
type ManualRequest struct {
	Header
	Items []ItemInput
}

// ServicesRequest creates an invoice with one line per service assignment,
// quantity 1, priced at the quoted price.
type ServicesRequest struct {
	Header
	Assignments []models.ServiceAssignment
}

// CreateManual builds, numbers and stores a DRAFT invoice.
func (s *Service) CreateManual(ctx context.Context, req ManualRequest) (*Invoice, error) {
	const op = "invoice.Service.CreateManual"

	if len(req.Items) == 0 {
		return nil, NewValidationError("items", 0, "at least one line item is required")
	}
	inv, err := s.create(ctx, req.Header, req.Items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

// CreateFromServices bills a client for services assigned to them.
func (s *Service) CreateFromServices(ctx context.Context, req ServicesRequest) (*Invoice, error) {
	const op = "invoice.Service.CreateFromServices"

	if len(req.Assignments) == 0 {
		return nil, NewValidationError("assignments", 0, "at least one service assignment is required")
	}

	items := make([]ItemInput, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		if a.ClientID != req.Client.ID {
			return nil, NewValidationError("assignments", a.ID,
				fmt.Sprintf("assignment belongs to client %d, not %d", a.ClientID, req.Client.ID))
		}
		items = append(items, ItemInput{
			Description:  a.ServiceName,
			Quantity:     oneQuantity,
			UnitPrice:    money.FromDecimal(a.QuotedPrice),
			ServiceID:    a.ServiceID,
			AssignmentID: a.ID,
		})
	}

	inv, err := s.create(ctx, req.Header, items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

func (s *Service) create(ctx context.Context, h Header, items []ItemInput) (*Invoice, error) {
	today := clock.Today(s.clock)

	tax := s.defaults.TaxPercentage
	if h.TaxPercentage != nil {
		tax = *h.TaxPercentage
	}
	discount := s.defaults.DiscountPercentage
	if h.DiscountPercentage != nil {
		discount = *h.DiscountPercentage
	}
	termDays := s.defaults.PaymentTermDays
	if h.PaymentTermDays != nil {
		termDays = *h.PaymentTermDays
	}
	if termDays < 0 {
		return nil, NewValidationError("payment_term_days", termDays, "payment term must not be negative")
	}

	number, err := s.numbers.Next(ctx, today.Year())
	if err != nil {
		return nil, err
	}

	inv, err := New(Params{
		Number:             number,
		Client:             h.Client,
		InvoiceDate:        today,
		DueDate:            today.AddDate(0, 0, termDays),
		TaxPercentage:      tax,
		DiscountPercentage: discount,
		Notes:              h.Notes,
		Terms:              h.Terms,
	})
	if err != nil {
		return nil, err
	}
	for _, in := range items {
		if _, err := inv.AddItem(in); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice %s: %w", number, err)
	}

	s.log.Info().
		Int64("invoice_id", inv.ID).
		Str("number", inv.Number).
		Int64("client_id", inv.Client.ID).
		Int("items", len(inv.items)).
		Str("total", inv.TotalAmount().String()).
		Str("due_date", inv.DueDate.Format(time.DateOnly)).
		Msg("Invoice created")

	return inv, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Invoice, error) {
	return s.repo.Find(ctx, f)
}

// mutate loads an invoice, applies fn and saves it. Nothing is persisted if
// fn fails.
func (s *Service) mutate(ctx context.Context, op string, id int64, fn func(*Invoice) error) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(inv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inv.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: save: %w", op, err)
	}
	return inv, nil
}

// Send marks a DRAFT invoice as delivered to the client.
func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.mutate(ctx, "invoice.Service.Send", id, func(inv *Invoice) error {
		return inv.Send()
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("invoice_id", id).Str("number", inv.Number).Msg("Invoice sent")
	return inv, nil
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*Invoice, error) {
	inv, err := s.mutate(ctx, "invoice.Service.Cancel", id, func(inv *Invoice) error {
		return inv.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("invoice_id", id).Str("number", inv.Number).Str("reason", reason).Msg("Invoice cancelled")
	return inv, nil
}

func (s *Service) AddItem(ctx context.Context, id int64, in ItemInput) (LineItem, *Invoice, error) {
	var added LineItem
	inv, err := s.mutate(ctx, "invoice.Service.AddItem", id, func(inv *Invoice) error {
		var err error
		added, err = inv.AddItem(in)
		return err
	})
	if err != nil {
		return LineItem{}, nil, err
	}
	return added, inv, nil
}

func (s *Service) RemoveItem(ctx context.Context, id int64, itemID uuid.UUID) (*Invoice, error) {
	return s.mutate(ctx, "invoice.Service.RemoveItem", id, func(inv *Invoice) error {
		return inv.RemoveItem(itemID)
	})
}

func (s *Service) UpdateItem(ctx context.Context, id int64, itemID uuid.UUID, u ItemUpdate) (*Invoice, error) {
	return s.mutate(ctx, "invoice.Service.UpdateItem", id, func(inv *Invoice) error {
		return inv.UpdateItem(itemID, u)
	})
}

// SetRates changes tax and/or discount on a DRAFT invoice. Nil leaves a rate unchanged.
func (s *Service) SetRates(ctx context.Context, id int64, tax, discount *money.Percentage) (*Invoice, error) {
	return s.mutate(ctx, "invoice.Service.SetRates", id, func(inv *Invoice) error {
		if tax != nil {
			if err := inv.SetTaxPercentage(*tax); err != nil {
				return err
			}
		}
		if discount != nil {
			if err := inv.SetDiscountPercentage(*discount); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an invoice that was never sent or has been cancelled.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "invoice.Service.Delete"

	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if st := inv.Status(); st != StatusDraft && st != StatusCancelled {
		return fmt.Errorf("%s: %w", op, newInvalidStateError("delete", st))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info().Int64("invoice_id", id).Str("number", inv.Number).Msg("Invoice deleted")
	return nil
}
