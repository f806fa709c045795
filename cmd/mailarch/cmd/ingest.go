package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tvaillant/mailarch/internal/ingest"
)

var (
	ingestWorkers   int
	ingestBatchSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Ingest message files and mbox containers",
	Long: `Ingest email sources into the archive. Paths may be individual .eml
files, mbox containers, or directories, which are walked recursively.
Re-ingesting the same content is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		workers := ingestWorkers
		if workers == 0 {
			workers = cfg.Ingest.Workers
		}
		batchSize := ingestBatchSize
		if batchSize == 0 {
			batchSize = cfg.Ingest.BatchSize
		}

		progress := newCLIProgress()
		p := ingest.New(s, logger, ingest.Options{
			Workers:   workers,
			BatchSize: batchSize,
			Progress:  progress.onBatch,
		})

		start := time.Now()
		res, err := p.IngestPaths(cmd.Context(), args)
		progress.done()
		if err != nil {
			if cmd.Context().Err() != nil {
				fmt.Println("Ingest interrupted. Run again to continue; completed work is kept.")
				return nil
			}
			return fmt.Errorf("ingest: %w", err)
		}

		elapsed := time.Since(start).Round(time.Second)
		fmt.Println("Ingest complete!")
		fmt.Printf("  Processed: %d\n", res.Processed)
		fmt.Printf("  Failed:    %d\n", res.Failed)
		if res.Skipped > 0 {
			fmt.Printf("  Skipped:   %d unrecognized files\n", res.Skipped)
		}
		fmt.Printf("  Duration:  %s\n", elapsed)
		return nil
	},
}

// cliProgress renders per-batch counters, rewriting the line in place when
// stdout is a terminal and printing one line per batch otherwise.
type cliProgress struct {
	tty     bool
	printed bool
}

func newCLIProgress() *cliProgress {
	return &cliProgress{tty: isatty.IsTerminal(os.Stdout.Fd())}
}

func (p *cliProgress) onBatch(res ingest.Result) {
	p.printed = true
	if p.tty {
		fmt.Printf("\r  Processed: %d | Failed: %d | Batches: %d    ",
			res.Processed, res.Failed, res.Batches)
		return
	}
	fmt.Printf("batch %d: processed=%d failed=%d\n",
		res.Batches, res.Processed, res.Failed)
}

func (p *cliProgress) done() {
	if p.tty && p.printed {
		fmt.Println()
	}
}

func init() {
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "parallel workers (default from config)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "records per batch (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
