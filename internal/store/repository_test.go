package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/invoice"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

var (
	acme     = models.ClientRef{ID: 7, Name: "Acme Traders", Email: "accounts@acme.test", GSTIN: "27AAEPM1234C1Z5"}
	issuedOn = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepository(db)
}

func draft(t *testing.T, number string, due time.Time) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.New(invoice.Params{
		Number:             number,
		Client:             acme,
		InvoiceDate:        issuedOn,
		DueDate:            due,
		TaxPercentage:      money.MustPercentage("18"),
		DiscountPercentage: money.MustPercentage("5"),
		Terms:              "Payment due within 15 days",
	})
	require.NoError(t, err)
	_, err = inv.AddItem(invoice.ItemInput{Description: "Audit", Quantity: decimal.NewFromInt(1), UnitPrice: money.MustFromString("2500.00")})
	require.NoError(t, err)
	_, err = inv.AddItem(invoice.ItemInput{Description: "Hours", Quantity: decimal.RequireFromString("2.5"), UnitPrice: money.MustFromString("600.00"), ServiceID: 9})
	require.NoError(t, err)
	return inv
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	inv := draft(t, "INV-2025-0001", issuedOn.AddDate(0, 0, 15))
	require.NoError(t, inv.Send())
	require.NoError(t, inv.ApplyPayment(invoice.Payment{
		Amount: money.MustFromString("1000.00"), Method: invoice.PaymentUPI, Reference: "UTR-991", Date: issuedOn.AddDate(0, 0, 3),
	}))
	require.NoError(t, repo.Save(ctx, inv))
	assert.NotZero(t, inv.ID)
	assert.Equal(t, int64(1), inv.Version)

	got, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-0001", got.Number)
	assert.Equal(t, acme, got.Client)
	assert.Equal(t, issuedOn, got.InvoiceDate)
	assert.Equal(t, issuedOn.AddDate(0, 0, 15), got.DueDate)
	assert.Equal(t, invoice.StatusPartiallyPaid, got.Status())
	assert.Equal(t, "Payment due within 15 days", got.Terms)

	assert.Equal(t, "4000.00", got.Subtotal().String())
	assert.Equal(t, "200.00", got.DiscountAmount().String())
	assert.Equal(t, "684.00", got.TaxAmount().String())
	assert.Equal(t, "4484.00", got.TotalAmount().String())
	assert.Equal(t, "3484.00", got.Outstanding().String())

	items := got.Items()
	require.Len(t, items, 2)
	assert.Equal(t, inv.Items()[0].ID, items[0].ID)
	assert.Equal(t, "1500.00", items[1].Amount().String())
	assert.Equal(t, int64(9), items[1].ServiceID)

	payments := got.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "UTR-991", payments[0].Reference)
	assert.Equal(t, invoice.PaymentUPI, got.PaymentMethod())
	assert.Equal(t, issuedOn.AddDate(0, 0, 3), got.PaymentDate())

	byNumber, err := repo.GetByNumber(ctx, "INV-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byNumber.ID)
}

func TestSaveUpdatesChildren(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	inv := draft(t, "INV-2025-0001", time.Time{})
	require.NoError(t, repo.Save(ctx, inv))

	loaded, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, loaded.DueDate.IsZero())

	require.NoError(t, loaded.RemoveItem(loaded.Items()[0].ID))
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	again, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, again.Items(), 1)
	assert.Equal(t, "1500.00", again.Subtotal().String())
}

func TestSaveDetectsConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	inv := draft(t, "INV-2025-0001", issuedOn.AddDate(0, 0, 15))
	require.NoError(t, inv.Send())
	require.NoError(t, repo.Save(ctx, inv))

	first, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)

	pay := func(amount string) invoice.Payment {
		return invoice.Payment{Amount: money.MustFromString(amount), Method: invoice.PaymentCash, Date: issuedOn}
	}
	require.NoError(t, first.ApplyPayment(pay("4000.00")))
	require.NoError(t, second.ApplyPayment(pay("4000.00")))

	require.NoError(t, repo.Save(ctx, first))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, invoice.ErrConcurrentUpdate)

	stored, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "4000.00", stored.PaidAmount().String())
	assert.Len(t, stored.Payments(), 1)
}

func TestSaveRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Save(ctx, draft(t, "INV-2025-0001", time.Time{})))
	err := repo.Save(ctx, draft(t, "INV-2025-0001", time.Time{}))
	assert.ErrorIs(t, err, invoice.ErrDuplicateNumber)

	var dup *invoice.DuplicateNumberError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "INV-2025-0001", dup.Number)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Get(ctx, 42)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	_, err = repo.GetByNumber(ctx, "INV-2025-0042")
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 42), invoice.ErrNotFound)
}

func TestLatestAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	older := draft(t, "INV-2024-0007", time.Time{})
	require.NoError(t, repo.Save(ctx, older))
	newer := draft(t, "INV-2025-0001", time.Time{})
	require.NoError(t, repo.Save(ctx, newer))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", latest.Number)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0007", latest.Number)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	today := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	pastDue := draft(t, "INV-2025-0001", today.AddDate(0, 0, -1))
	require.NoError(t, pastDue.Send())
	require.NoError(t, repo.Save(ctx, pastDue))

	dueToday := draft(t, "INV-2025-0002", today)
	require.NoError(t, dueToday.Send())
	require.NoError(t, repo.Save(ctx, dueToday))

	noDue := draft(t, "INV-2025-0003", time.Time{})
	require.NoError(t, repo.Save(ctx, noDue))

	other := draft(t, "INV-2025-0004", today.AddDate(0, 0, -10))
	other.Client = models.ClientRef{ID: 8, Name: "Globex"}
	require.NoError(t, other.Cancel("duplicate"))
	require.NoError(t, repo.Save(ctx, other))

	numbers := func(f invoice.Filter) []string {
		invs, err := repo.Find(ctx, f)
		require.NoError(t, err)
		var out []string
		for _, inv := range invs {
			out = append(out, inv.Number)
		}
		return out
	}

	assert.Len(t, numbers(invoice.Filter{}), 4)
	assert.Equal(t, []string{"INV-2025-0001", "INV-2025-0004"}, numbers(invoice.Filter{DueBefore: today}))
	assert.Equal(t, []string{"INV-2025-0001"}, numbers(invoice.Filter{
		DueBefore:       today,
		ExcludeStatuses: []invoice.Status{invoice.StatusPaid, invoice.StatusCancelled},
	}))
	assert.Equal(t, []string{"INV-2025-0003"}, numbers(invoice.Filter{Statuses: []invoice.Status{invoice.StatusDraft}}))
	assert.Equal(t, []string{"INV-2025-0004"}, numbers(invoice.Filter{ClientID: 8}))
}
