package invoice

import (
	"context"
	"time"
)

// Filter narrows a Find query. Zero-valued fields do not constrain.
type Filter struct {
	Statuses        []Status // Only these statuses
	ExcludeStatuses []Status
	ClientID        int64
	DueBefore       time.Time // Strictly before; invoices without a due date never match
}

// OverdueFilter selects issued, unsettled invoices due strictly before today.
// Drafts are excluded because they were never issued.
func OverdueFilter(today time.Time) Filter {
	return Filter{
		DueBefore:       today,
		ExcludeStatuses: []Status{StatusDraft, StatusPaid, StatusCancelled},
	}
}

// Repository persists invoices with their items and payments.
//
// Save inserts when inv.ID is zero and assigns the ID. Otherwise it updates
// the row only if the stored version still equals inv.Version, returning
// ErrConcurrentUpdate when it does not. A successful Save increments
// inv.Version.
type Repository interface {
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Find(ctx context.Context, f Filter) ([]*Invoice, error)
	// Latest returns the most recently created invoice, or ErrNotFound.
	Latest(ctx context.Context) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id int64) error
}
