package overdue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/clock"
	"invoicing/internal/invoice"
	"invoicing/internal/invoice/invoicetest"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

var today = time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

type seed struct {
	number string
	due    time.Time
	status invoice.Status
}

// seedInvoices stores invoices in the requested statuses. Each has a total
// of 4484.00 (4000.00 less 5% plus 18%).
func seedInvoices(t *testing.T, repo *invoicetest.MemoryRepository, seeds []seed) {
	t.Helper()
	for _, s := range seeds {
		inv, err := invoice.New(invoice.Params{
			Number:             s.number,
			Client:             models.ClientRef{ID: 1, Name: "Acme Traders"},
			InvoiceDate:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			DueDate:            s.due,
			TaxPercentage:      money.MustPercentage("18"),
			DiscountPercentage: money.MustPercentage("5"),
		})
		require.NoError(t, err)
		_, err = inv.AddItem(invoice.ItemInput{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPrice: money.MustFromString("4000")})
		require.NoError(t, err)

		switch s.status {
		case invoice.StatusDraft:
		case invoice.StatusSent:
			require.NoError(t, inv.Send())
		case invoice.StatusPartiallyPaid:
			require.NoError(t, inv.Send())
			require.NoError(t, inv.ApplyPayment(invoice.Payment{Amount: money.MustFromString("100"), Method: invoice.PaymentCash, Date: today}))
		case invoice.StatusPaid:
			require.NoError(t, inv.Send())
			require.NoError(t, inv.ApplyPayment(invoice.Payment{Amount: money.MustFromString("4484.00"), Method: invoice.PaymentCash, Date: today}))
		case invoice.StatusCancelled:
			require.NoError(t, inv.Cancel(""))
		}
		require.NoError(t, repo.Save(context.Background(), inv))
	}
}

func statusOf(t *testing.T, repo *invoicetest.MemoryRepository, number string) invoice.Status {
	t.Helper()
	inv, err := repo.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return inv.Status()
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	repo := invoicetest.NewMemoryRepository()
	yesterday := today.AddDate(0, 0, -1)

	seedInvoices(t, repo, []seed{
		{"INV-2025-0001", yesterday, invoice.StatusSent},
		{"INV-2025-0002", yesterday, invoice.StatusPartiallyPaid},
		{"INV-2025-0003", yesterday, invoice.StatusPaid},
		{"INV-2025-0004", yesterday, invoice.StatusCancelled},
		{"INV-2025-0005", yesterday, invoice.StatusDraft},
		{"INV-2025-0006", today, invoice.StatusSent},
		{"INV-2025-0007", today.AddDate(0, 0, 5), invoice.StatusSent},
	})

	res, err := NewSweeper(repo, clock.Fixed(today)).Sweep(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2025-0001", "INV-2025-0002"}, res.Marked)

	want := map[string]invoice.Status{
		"INV-2025-0001": invoice.StatusOverdue,
		"INV-2025-0002": invoice.StatusOverdue,
		"INV-2025-0003": invoice.StatusPaid,
		"INV-2025-0004": invoice.StatusCancelled,
		"INV-2025-0005": invoice.StatusDraft,
		"INV-2025-0006": invoice.StatusSent,
		"INV-2025-0007": invoice.StatusSent,
	}
	for number, st := range want {
		assert.Equal(t, st, statusOf(t, repo, number), number)
	}

	overdue, err := repo.GetByNumber(ctx, "INV-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, "4484.00", overdue.TotalAmount().String())
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := invoicetest.NewMemoryRepository()
	seedInvoices(t, repo, []seed{
		{"INV-2025-0001", today.AddDate(0, 0, -3), invoice.StatusSent},
	})
	sweeper := NewSweeper(repo, clock.Fixed(today))

	first, err := sweeper.Sweep(ctx, today)
	require.NoError(t, err)
	require.Len(t, first.Marked, 1)

	before, err := repo.GetByNumber(ctx, "INV-2025-0001")
	require.NoError(t, err)

	second, err := sweeper.Sweep(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, second.Marked)
	assert.Equal(t, 1, second.Examined)

	after, err := repo.GetByNumber(ctx, "INV-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func TestSweepContinuesAfterSaveFailure(t *testing.T) {
	ctx := context.Background()
	repo := invoicetest.NewMemoryRepository()
	yesterday := today.AddDate(0, 0, -1)
	seedInvoices(t, repo, []seed{
		{"INV-2025-0001", yesterday, invoice.StatusSent},
		{"INV-2025-0002", yesterday, invoice.StatusSent},
	})

	repo.SaveErr = errors.New("database is locked")
	res, err := NewSweeper(repo, clock.Fixed(today)).Sweep(ctx, today)
	assert.ErrorContains(t, err, "database is locked")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"INV-2025-0002"}, res.Marked)
	assert.Equal(t, invoice.StatusSent, statusOf(t, repo, "INV-2025-0001"))
}

func TestRunnerStopsOnCancel(t *testing.T) {
	repo := invoicetest.NewMemoryRepository()
	seedInvoices(t, repo, []seed{
		{"INV-2025-0001", today.AddDate(0, 0, -1), invoice.StatusSent},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRunner(NewSweeper(repo, clock.Fixed(today)), time.Hour).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		inv, err := repo.GetByNumber(context.Background(), "INV-2025-0001")
		return err == nil && inv.Status() == invoice.StatusOverdue
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
