package invoice

import (
	"fmt"

	"invoicing/internal/money"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusSent          Status = "SENT"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
	StatusOverdue       Status = "OVERDUE"
	StatusCancelled     Status = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusSent,
	StatusPartiallyPaid,
	StatusPaid,
	StatusOverdue,
	StatusCancelled,
}

// ParseStatus accepts the stored form, e.g. "PARTIALLY_PAID".
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", NewValidationError("status", s, "unknown invoice status")
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartiallyPaid, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// DisplayName is the label printed on documents and exports.
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSent:
		return "Sent"
	case StatusPartiallyPaid:
		return "Partially Paid"
	case StatusPaid:
		return "Paid"
	case StatusOverdue:
		return "Overdue"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}

// The transition functions below are the only places that decide a new
// status. Each one matches every status explicitly.

func sendTransition(from Status) (Status, error) {
	switch from {
	case StatusDraft:
		return StatusSent, nil
	case StatusSent, StatusPartiallyPaid, StatusPaid, StatusOverdue, StatusCancelled:
		return from, newInvalidStateError("send", from)
	}
	return from, fmt.Errorf("send: unknown status %q", from)
}

// paymentTransition assumes paid > 0; the caller validated the amount.
func paymentTransition(from Status, paid, total money.Money) (Status, error) {
	switch from {
	case StatusDraft, StatusSent, StatusPartiallyPaid, StatusOverdue:
		if paid.Cmp(total) >= 0 {
			return StatusPaid, nil
		}
		return StatusPartiallyPaid, nil
	case StatusPaid, StatusCancelled:
		return from, newInvalidStateError("record payment on", from)
	}
	return from, fmt.Errorf("record payment: unknown status %q", from)
}

// overdueTransition reports whether the status changes.
func overdueTransition(from Status) (Status, bool, error) {
	switch from {
	case StatusSent, StatusPartiallyPaid:
		return StatusOverdue, true, nil
	case StatusOverdue:
		return from, false, nil
	case StatusDraft, StatusPaid, StatusCancelled:
		return from, false, newInvalidStateError("mark overdue", from)
	}
	return from, false, fmt.Errorf("mark overdue: unknown status %q", from)
}

func cancelTransition(from Status) (Status, error) {
	switch from {
	case StatusDraft, StatusSent, StatusPartiallyPaid, StatusOverdue:
		return StatusCancelled, nil
	case StatusPaid, StatusCancelled:
		return from, newInvalidStateError("cancel", from)
	}
	return from, fmt.Errorf("cancel: unknown status %q", from)
}
