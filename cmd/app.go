package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"invoicing/internal/clock"
	"invoicing/internal/invoice"
	"invoicing/internal/overdue"
	"invoicing/internal/payment"
	"invoicing/internal/store"
)

// app wires the ledger services for one command invocation.
type app struct {
	db       *gorm.DB
	clock    clock.Clock
	repo     *store.Repository
	invoices *invoice.Service
	payments *payment.Recorder
	sweeper  *overdue.Sweeper
}

func newApp(cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	dateFlag, _ := cmd.Flags().GetString("date")

	var clk clock.Clock = clock.SystemClock{}
	if dateFlag != "" {
		day, err := clock.ParseDate(dateFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", dateFlag, err)
		}
		// Keep the time of day so created/updated stamps still move.
		now := time.Now().UTC()
		clk = clock.Fixed(day.Add(now.Sub(clock.Date(now))))
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Error().Err(err).Str("db", dbPath).Msg("Failed to open ledger database")
		return nil, err
	}
	log.Debug().Str("db", dbPath).Msg("Ledger database opened")

	repo := store.NewRepository(db)
	return &app{
		db:       db,
		clock:    clk,
		repo:     repo,
		invoices: invoice.NewService(repo, clk, cfg.InvoiceDefaults()),
		payments: payment.NewRecorder(repo, clk),
		sweeper:  overdue.NewSweeper(repo, clk),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *app) today() time.Time {
	return clock.Today(a.clock)
}

// createContext creates a context with timeout and signal handling
func createContext(cmd *cobra.Command, log zerolog.Logger) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleLedgerError turns ledger errors into messages for the operator.
func handleLedgerError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Ledger operation failed")

	var verr *invoice.ValidationError
	var serr *invoice.InvalidStateError
	var nerr *invoice.NotFoundError
	var derr *invoice.DuplicateNumberError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("operation timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("operation was canceled")
	case errors.As(err, &verr):
		return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
	case errors.As(err, &serr):
		return fmt.Errorf("not allowed: cannot %s an invoice that is %s", serr.Op, serr.Status.DisplayName())
	case errors.As(err, &nerr):
		return fmt.Errorf("%s %v does not exist", nerr.Entity, nerr.Key)
	case errors.Is(err, invoice.ErrConcurrentUpdate):
		return fmt.Errorf("the invoice was changed by another process. Reload and try again")
	case errors.As(err, &derr):
		return fmt.Errorf("invoice number %s already exists. Check the latest invoice and --date, then try again", derr.Number)
	default:
		return err
	}
}
