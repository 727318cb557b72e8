package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/clock"
	"invoicing/internal/invoice"
	"invoicing/internal/invoice/invoicetest"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

var testDefaults = invoice.Defaults{
	NumberPrefix:       "INV",
	TaxPercentage:      money.MustPercentage("18"),
	DiscountPercentage: money.MustPercentage("0"),
	PaymentTermDays:    15,
}

func newService(t *testing.T) (*invoice.Service, *invoicetest.MemoryRepository) {
	t.Helper()
	repo := invoicetest.NewMemoryRepository()
	clk := clock.Fixed(time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC))
	return invoice.NewService(repo, clk, testDefaults), repo
}

func manualRequest() invoice.ManualRequest {
	return invoice.ManualRequest{
		Header: invoice.Header{Client: acme, Notes: "March retainer"},
		Items: []invoice.ItemInput{
			{Description: "Audit", Quantity: qty("1"), UnitPrice: money.MustFromString("2500.00")},
			{Description: "GST filing", Quantity: qty("1"), UnitPrice: money.MustFromString("1500.00")},
		},
	}
}

func TestCreateManual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	inv, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)

	assert.NotZero(t, inv.ID)
	assert.Equal(t, "INV-2025-0001", inv.Number)
	assert.Equal(t, invoice.StatusDraft, inv.Status())
	assert.Equal(t, issuedOn, inv.InvoiceDate)
	assert.Equal(t, dueOn, inv.DueDate)
	assert.Equal(t, "4720.00", inv.TotalAmount().String())

	stored, err := svc.GetByNumber(ctx, "INV-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, stored.ID)
	assert.Equal(t, "March retainer", stored.Notes)

	second, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0002", second.Number)
}

func TestCreateManualOverrides(t *testing.T) {
	svc, _ := newService(t)

	req := manualRequest()
	req.DiscountPercentage = lo.ToPtr(money.MustPercentage("5"))
	req.PaymentTermDays = lo.ToPtr(30)

	inv, err := svc.CreateManual(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "4484.00", inv.TotalAmount().String())
	assert.Equal(t, issuedOn.AddDate(0, 0, 30), inv.DueDate)
}

func TestCreateManualRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	_, err := svc.CreateManual(ctx, invoice.ManualRequest{Header: invoice.Header{Client: acme}})
	assert.ErrorIs(t, err, invoice.ErrValidation)

	req := manualRequest()
	req.Items[1].Description = ""
	_, err = svc.CreateManual(ctx, req)
	assert.ErrorIs(t, err, invoice.ErrValidation)

	list, err := repo.Find(ctx, invoice.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateFromServices(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	assignments := []models.ServiceAssignment{
		{ID: 11, ClientID: acme.ID, ServiceID: 3, ServiceName: "Bookkeeping", QuotedPrice: decimal.RequireFromString("2500")},
		{ID: 12, ClientID: acme.ID, ServiceID: 4, ServiceName: "Payroll", QuotedPrice: decimal.RequireFromString("1500")},
	}

	inv, err := svc.CreateFromServices(ctx, invoice.ServicesRequest{
		Header:      invoice.Header{Client: acme},
		Assignments: assignments,
	})
	require.NoError(t, err)

	items := inv.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Bookkeeping", items[0].Description)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(11), items[0].AssignmentID)
	assert.Equal(t, int64(4), items[1].ServiceID)
	assert.Equal(t, "4720.00", inv.TotalAmount().String())

	other := assignments
	other[1].ClientID = 99
	_, err = svc.CreateFromServices(ctx, invoice.ServicesRequest{
		Header:      invoice.Header{Client: acme},
		Assignments: other,
	})
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	inv, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)

	item, _, err := svc.AddItem(ctx, inv.ID, invoice.ItemInput{
		Description: "Courier", Quantity: qty("2"), UnitPrice: money.MustFromString("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Order)

	updated, err := svc.UpdateItem(ctx, inv.ID, item.ID, invoice.ItemUpdate{UnitPrice: lo.ToPtr(money.MustFromString("75"))})
	require.NoError(t, err)
	assert.Equal(t, "4150.00", updated.Subtotal().String())

	updated, err = svc.RemoveItem(ctx, inv.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "4000.00", updated.Subtotal().String())

	updated, err = svc.SetRates(ctx, inv.ID, nil, lo.ToPtr(money.MustPercentage("5")))
	require.NoError(t, err)
	assert.Equal(t, "4484.00", updated.TotalAmount().String())

	sent, err := svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusSent, sent.Status())

	_, _, err = svc.AddItem(ctx, inv.ID, invoice.ItemInput{Description: "Late", Quantity: qty("1"), UnitPrice: money.Zero()})
	assert.ErrorIs(t, err, invoice.ErrInvalidState)

	err = svc.Delete(ctx, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrInvalidState)

	cancelled, err := svc.Cancel(ctx, inv.ID, "raised in error")
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusCancelled, cancelled.Status())

	require.NoError(t, svc.Delete(ctx, inv.ID))
	_, err = svc.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestServiceDoesNotPersistFailedEdits(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	inv, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)

	repo.SaveErr = errors.New("connection reset")
	_, err = svc.Send(ctx, inv.ID)
	assert.ErrorContains(t, err, "connection reset")

	stored, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusDraft, stored.Status())
}

func TestServiceListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	_, err = svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	_, err = svc.Send(ctx, first.ID)
	require.NoError(t, err)

	sent, err := svc.List(ctx, invoice.Filter{Statuses: []invoice.Status{invoice.StatusSent}})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	other, err := svc.List(ctx, invoice.Filter{ClientID: 99})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestOverdueFilterSkipsDrafts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	sent, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	_, err = svc.Send(ctx, sent.ID)
	require.NoError(t, err)
	draft, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	cancelled, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID, "duplicate")
	require.NoError(t, err)

	afterDue := sent.DueDate.AddDate(0, 0, 1)
	overdue, err := svc.List(ctx, invoice.OverdueFilter(afterDue))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, sent.ID, overdue[0].ID)
	assert.True(t, overdue[0].IsOverdue(afterDue))

	stored, err := svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOverdue(afterDue))

	onDue, err := svc.List(ctx, invoice.OverdueFilter(sent.DueDate))
	require.NoError(t, err)
	assert.Empty(t, onDue)
}

func TestCreateAfterLaterYearInvoiceReportsNumber(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	nextYear := invoice.NewService(repo, clock.Fixed(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)), testDefaults)

	_, err := svc.CreateManual(ctx, manualRequest())
	require.NoError(t, err)
	_, err = nextYear.CreateManual(ctx, manualRequest())
	require.NoError(t, err)

	// The latest invoice is from 2026, so a 2025 create restarts at 0001.
	_, err = svc.CreateManual(ctx, manualRequest())
	require.ErrorIs(t, err, invoice.ErrDuplicateNumber)

	var dup *invoice.DuplicateNumberError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "INV-2025-0001", dup.Number)
}
