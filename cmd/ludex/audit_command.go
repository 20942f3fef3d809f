package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ludex/internal/audit"
	"ludex/internal/library"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var (
		libraryRoot string
		parallelism int
		delayMs     int
		force       bool
		dryRun      bool
		showAll     bool
	)

	cmd := &cobra.Command{
		Use:   "audit <collection>",
		Short: "Re-validate catalog linkage for a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "ludex.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire data directory lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another ludex process holds the data directory")
			}
			defer lock.Unlock()

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			provider, err := library.NewDirectoryProvider(libraryRoot)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := audit.OptionsFromConfig(cfg.Audit)
			if cmd.Flags().Changed("parallelism") {
				opts.MaxParallelism = parallelism
			}
			if cmd.Flags().Changed("delay-ms") {
				opts.APIDelay = time.Duration(delayMs) * time.Millisecond
			}
			opts.ForceFullRematch = force
			opts.DryRun = dryRun

			var bar *progressbar.ProgressBar
			onProgress := func(p audit.Progress) {
				if !isTerminal(cmd.OutOrStdout()) {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions(p.Total,
						progressbar.OptionSetDescription("Auditing"),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionThrottle(100*time.Millisecond),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(p.Processed)
			}

			scheduler := audit.NewScheduler(st, client, provider, cfg, logger)
			result, err := scheduler.Run(runCtx, args[0], opts, onProgress)
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
			}

			printAuditResult(cmd, result, showAll)
			if result.Failed {
				return fmt.Errorf("audit failed: %s", result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&libraryRoot, "library-root", ".", "Directory whose subdirectories hold local collections")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Maximum concurrent audit workers")
	cmd.Flags().IntVar(&delayMs, "delay-ms", 0, "Delay after each identity write, in milliseconds")
	cmd.Flags().BoolVar(&force, "force", false, "Re-match every item regardless of existing linkage")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match and report without writing anything")
	cmd.Flags().BoolVar(&showAll, "all", false, "Include skipped and unchanged items in the listing")
	return cmd
}

func printAuditResult(cmd *cobra.Command, result *audit.Result, showAll bool) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		if !showAll && (item.Outcome == audit.OutcomeSkipped || item.Outcome == audit.OutcomeUnchanged) {
			continue
		}
		rows = append(rows, []string{
			item.Title,
			string(item.Outcome),
			string(item.Strategy),
			string(item.Confidence),
			item.Detail,
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Title", "Outcome", "Strategy", "Confidence", "Detail"}, rows))
	}

	status := "completed"
	if result.Cancelled {
		status = "cancelled"
	} else if result.Failed {
		status = "failed"
	}
	fmt.Fprintf(out, "Audit %s in %s: %d items, %d updated, %d unchanged, %d not found, %d skipped, %d failed\n",
		status, result.Duration().Round(time.Millisecond),
		result.Summary.Total, result.Summary.Updated, result.Summary.Unchanged,
		result.Summary.NotFound, result.Summary.Skipped, result.Summary.Failed)
}
