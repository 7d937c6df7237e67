package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/booklib/server/internal/config"
	"github.com/booklib/server/internal/database"
	"github.com/booklib/server/internal/database/counters"
)

// ReconcileCountersCommand recomputes the denormalized download counters
// from the ledger. Useful when counter drift is suspected: the ledger is
// authoritative, the counters are a cache.
type ReconcileCountersCommand struct {
	DatabasePath string
	Verbose      bool
}

// NewReconcileCountersCommand creates a new ReconcileCountersCommand.
func NewReconcileCountersCommand() *ReconcileCountersCommand {
	return &ReconcileCountersCommand{}
}

// ParseFlags parses command line flags.
func (cmd *ReconcileCountersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reconcile-counters", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the application database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reconcile-counters [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Recompute book, user, scholar and category download counters from the\n")
		fmt.Fprintf(os.Stderr, "download ledger. Counters are a best-effort cache and can drift when\n")
		fmt.Fprintf(os.Stderr, "individual propagation writes fail; this command converges them back.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s reconcile-counters\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s reconcile-counters -db ./library.db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the reconciliation.
func (cmd *ReconcileCountersCommand) Run() error {
	if cmd.Verbose {
		fmt.Printf("Opening database at %s\n", cmd.DatabasePath)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := counters.NewRepository(db.DB)

	start := time.Now()
	if err := repo.Recompute(time.Now()); err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	fmt.Printf("Reconciled download counters in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
