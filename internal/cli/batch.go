package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/selah/internal/pipeline"
	"github.com/ppiankov/selah/internal/worker"
)

var (
	concurrency  int
	batchJSON    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve many references from a file in parallel",
	Long: `Batch resolves references concurrently against one shared corpus:
- Read references from the input file (one per line, "#" starts a comment)
- Repeated references are resolved once
- Each failure is reported with its line number and does not stop the batch

Example:
  selah batch refs.txt
  selah batch refs.txt --concurrency 8 --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchJSON, "json", "", `write the JSON results to a path ("-" for stdout)`)
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	lines, err := worker.ReadReferencesFromFile(file)
	if err != nil {
		return fmt.Errorf("read references: %w", err)
	}

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Resolving %d references with %d workers...\n", len(lines), cfg.Concurrency.Workers)
	}

	report := p.Batch(ctx, lines)

	r := p.Renderer()
	if batchJSON != "" {
		if err := r.RenderJSON(report, batchJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if batchJSON != "-" {
		if err := r.WriteBatchSummary(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d references failed", report.Failed, report.Total)
	}
	return nil
}
