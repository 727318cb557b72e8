// Package invoicetest provides an in-memory invoice.Repository for tests.
package invoicetest

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"invoicing/internal/invoice"
)

// MemoryRepository stores invoice snapshots in a map. Every read rehydrates
// a fresh copy, so callers cannot mutate stored state without Save.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]invoice.State

	// SaveErr, when set, is returned by the next Save call and then cleared.
	SaveErr error
	// LatestErr, when set, is returned by every Latest call.
	LatestErr error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]invoice.State)}
}

func (r *MemoryRepository) load(s invoice.State) *invoice.Invoice {
	inv, _, err := invoice.Rehydrate(s)
	if err != nil {
		panic(err)
	}
	return inv
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rows[id]
	if !ok {
		return nil, invoice.NewNotFoundError("invoice", id)
	}
	return r.load(s), nil
}

func (r *MemoryRepository) GetByNumber(_ context.Context, number string) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.rows {
		if s.Number == number {
			return r.load(s), nil
		}
	}
	return nil, invoice.NewNotFoundError("invoice", number)
}

func (r *MemoryRepository) Find(_ context.Context, f invoice.Filter) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*invoice.Invoice
	for id := int64(1); id <= r.nextID; id++ {
		s, ok := r.rows[id]
		if !ok || !matches(s, f) {
			continue
		}
		out = append(out, r.load(s))
	}
	return out, nil
}

func matches(s invoice.State, f invoice.Filter) bool {
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, s.Status) {
		return false
	}
	if lo.Contains(f.ExcludeStatuses, s.Status) {
		return false
	}
	if f.ClientID != 0 && s.Client.ID != f.ClientID {
		return false
	}
	if !f.DueBefore.IsZero() && (s.DueDate.IsZero() || !s.DueDate.Before(f.DueBefore)) {
		return false
	}
	return true
}

func (r *MemoryRepository) Latest(_ context.Context) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.LatestErr != nil {
		return nil, r.LatestErr
	}
	for id := r.nextID; id > 0; id-- {
		if s, ok := r.rows[id]; ok {
			return r.load(s), nil
		}
	}
	return nil, invoice.NewNotFoundError("invoice", "latest")
}

func (r *MemoryRepository) Save(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.SaveErr; err != nil {
		r.SaveErr = nil
		return err
	}

	for id, s := range r.rows {
		if s.Number == inv.Number && id != inv.ID {
			return &invoice.DuplicateNumberError{Number: inv.Number}
		}
	}

	if inv.ID == 0 {
		r.nextID++
		inv.ID = r.nextID
		inv.Version = 1
		r.rows[inv.ID] = inv.Snapshot()
		return nil
	}

	stored, ok := r.rows[inv.ID]
	if !ok {
		return invoice.NewNotFoundError("invoice", inv.ID)
	}
	if stored.Version != inv.Version {
		return invoice.ErrConcurrentUpdate
	}
	inv.Version++
	r.rows[inv.ID] = inv.Snapshot()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return invoice.NewNotFoundError("invoice", id)
	}
	delete(r.rows, id)
	return nil
}

// Put stores s as-is, bypassing version checks. Useful for seeding
// invoices in states that are awkward to reach through the API.
func (r *MemoryRepository) Put(s invoice.State) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == 0 {
		r.nextID++
		s.ID = r.nextID
	} else if s.ID > r.nextID {
		r.nextID = s.ID
	}
	if s.Version == 0 {
		s.Version = 1
	}
	r.rows[s.ID] = s
	return s.ID
}

var _ invoice.Repository = (*MemoryRepository)(nil)
