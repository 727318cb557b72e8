package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"invoicing/internal/logger"
	"invoicing/internal/overdue"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark unpaid invoices past their due date as OVERDUE",
	Long: `Run the overdue sweep for today (or --date).

Every SENT or PARTIALLY_PAID invoice whose due date is before today becomes
OVERDUE. Running the sweep again on the same day changes nothing.

With --watch the sweep repeats every OVERDUE_SWEEP_INTERVAL until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

// SweepOutput reports the result of a single sweep.
type SweepOutput struct {
	Date     string   `json:"date"`
	Examined int      `json:"examined"`
	Marked   []string `json:"marked"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Bool("watch", false, "Keep running and sweep on every interval")
	sweepCmd.Flags().Duration("interval", 0, "Sweep interval for --watch (default: $OVERDUE_SWEEP_INTERVAL)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sweep")

	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.SweepInterval
	}

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Dur("interval", interval).Msg("Watching for overdue invoices")
		overdue.NewRunner(a.sweeper, interval).Start(ctx)
		return nil
	}

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	today := a.today()
	res, err := a.sweeper.Sweep(ctx, today)
	out := SweepOutput{
		Date:     today.Format(time.DateOnly),
		Examined: res.Examined,
		Marked:   res.Marked,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
	}
	if out.Marked == nil {
		out.Marked = []string{}
	}
	if writeErr := writeJSON(out, log); writeErr != nil {
		return writeErr
	}
	if err != nil {
		return handleLedgerError(err, log)
	}
	return nil
}
