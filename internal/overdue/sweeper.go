// Package overdue flags unpaid invoices whose due date has passed.
package overdue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"invoicing/internal/clock"
	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

// Result summarises one sweep.
type Result struct {
	Examined int
	Marked   []string // Numbers of invoices moved to OVERDUE
	Skipped  int      // Candidates whose status does not allow the transition
	Failed   int
}

// Sweeper moves SENT and PARTIALLY_PAID invoices past their due date to
// OVERDUE. Running it twice for the same day changes nothing the second time.
type Sweeper struct {
	repo  invoice.Repository
	clock clock.Clock
	log   zerolog.Logger
}

func NewSweeper(repo invoice.Repository, clk clock.Clock) *Sweeper {
	return &Sweeper{
		repo:  repo,
		clock: clk,
		log:   logger.WithComponent("overdue-sweeper"),
	}
}

// Sweep examines every invoice due strictly before today that is not PAID,
// CANCELLED or DRAFT. A failure to save one invoice does not stop the
// others; all failures are returned together.
func (s *Sweeper) Sweep(ctx context.Context, today time.Time) (Result, error) {
	const op = "overdue.Sweeper.Sweep"

	today = clock.Date(today)
	candidates, err := s.repo.Find(ctx, invoice.OverdueFilter(today))
	if err != nil {
		return Result{}, fmt.Errorf("%s: find candidates: %w", op, err)
	}

	var (
		res  Result
		errs []error
	)
	for _, inv := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Examined++
		log := logger.WithInvoice(s.log, inv.ID, inv.Number)

		changed, err := inv.MarkOverdue(today)
		if err != nil {
			if errors.Is(err, invoice.ErrInvalidState) {
				res.Skipped++
				log.Debug().Err(err).Msg("Skipping invoice")
				continue
			}
			res.Failed++
			errs = append(errs, fmt.Errorf("invoice %s: %w", inv.Number, err))
			continue
		}
		if !changed {
			continue
		}

		inv.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Save(ctx, inv); err != nil {
			res.Failed++
			log.Warn().Err(err).Msg("Could not save overdue invoice")
			errs = append(errs, fmt.Errorf("invoice %s: %w", inv.Number, err))
			continue
		}

		res.Marked = append(res.Marked, inv.Number)
		log.Info().
			Str("due_date", inv.DueDate.Format(time.DateOnly)).
			Str("outstanding", inv.Outstanding().String()).
			Msg("Invoice marked overdue")
	}

	s.log.Info().
		Str("today", today.Format(time.DateOnly)).
		Int("examined", res.Examined).
		Int("marked", len(res.Marked)).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Overdue sweep completed")

	if len(errs) > 0 {
		return res, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return res, nil
}
