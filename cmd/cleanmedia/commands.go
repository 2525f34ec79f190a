package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cleanmedia/internal/driver"
	"github.com/dmitrymomot/cleanmedia/internal/httpapi"
	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/internal/store/memory"
	"github.com/dmitrymomot/cleanmedia/pkg/config"
	"github.com/dmitrymomot/cleanmedia/pkg/filename"
	"github.com/dmitrymomot/cleanmedia/pkg/httpserver"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

// Messages printed for rename results.
const (
	msgFailed  = "Failed to rename file. Check your filesystem permissions."
	msgNothing = "No filenames need to be clean."
)

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var srvcfg httpserver.Config
			if err := config.Load(&srvcfg); err != nil {
				return err
			}

			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.close()

			opts := []httpapi.Option{
				httpapi.WithLogger(c.log),
				httpapi.WithRecords(a.store),
				httpapi.WithQueue(a.queue),
				httpapi.WithFileURL(a.files.URL),
				httpapi.WithHealthChecks(c.cfg.HealthTimeout, a.checks...),
				httpapi.WithRenameTimeout(c.cfg.RenameTimeout),
			}
			if a.registry != nil {
				opts = append(opts, httpapi.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
			}
			h, err := httpapi.New(a.service, opts...)
			if err != nil {
				return err
			}

			srv := httpserver.NewFromConfig(srvcfg, httpserver.WithLogger(c.log))
			if err := srv.Run(ctx, h.Routes()); err != nil {
				return err
			}
			return a.writeSnapshot()
		},
	}
}

func newScanCommand(c *cli) *cobra.Command {
	var (
		enqueue bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List attachments whose filenames need cleaning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.close()

			ids, err := a.service.Discover(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := json.NewEncoder(out).Encode(ids); err != nil {
					return err
				}
			} else if len(ids) == 0 {
				fmt.Fprintln(out, msgNothing)
			} else {
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
			}

			if enqueue && len(ids) > 0 {
				if err := a.queue.Push(ctx, ids...); err != nil {
					return err
				}
				n, err := a.queue.Len(ctx)
				if err != nil {
					return err
				}
				c.log.InfoContext(ctx, "pending attachments enqueued", slog.Int("count", len(ids)), logger.QueueLength(n))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "push the ids to the queue")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ids as a JSON array")
	return cmd
}

func newRunCommand(c *cli) *cobra.Command {
	var (
		ids         []int64
		discover    bool
		limit       int
		interval    time.Duration
		stopOnError bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename queued attachments one at a time",
		Long: `run pops attachment ids from the queue and renames each one.

With the memory queue and no --id, pending attachments are discovered first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.close()

			if len(ids) == 0 && (discover || c.cfg.QueueDriver == QueueMemory) {
				ids, err = a.service.Discover(ctx)
				if err != nil {
					return err
				}
			}
			if len(ids) > 0 {
				if err := a.queue.Push(ctx, ids...); err != nil {
					return err
				}
			}

			if interval == 0 {
				interval = c.cfg.RenameInterval
			}
			out := cmd.OutOrStdout()
			opts := []driver.RunnerOption{
				driver.WithLogger(c.log),
				driver.WithInterval(interval),
				driver.WithLimit(limit),
				driver.WithResultFunc(func(id int64, summary media.Summary, err error) {
					printResult(out, id, summary, err)
				}),
			}
			if stopOnError {
				opts = append(opts, driver.WithStopOnError())
			}
			runner, err := driver.NewRunner(a.queue, a.service, opts...)
			if err != nil {
				return err
			}

			report, runErr := runner.Run(ctx)
			if report.Processed == 0 && runErr == nil {
				fmt.Fprintln(out, msgNothing)
			}
			fmt.Fprintf(out, "processed=%d renamed=%d unchanged=%d failed=%d errors=%d\n",
				report.Processed, report.Renamed, report.Unchanged, report.Failed, report.Errors)

			return errors.Join(runErr, a.writeSnapshot())
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "id", nil, "attachment ids to enqueue before running")
	cmd.Flags().BoolVar(&discover, "discover", false, "enqueue every pending attachment before running")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many attachments (0 means no limit)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between attachments")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "abort on the first store error")
	return cmd
}

// printResult writes one line per attachment in the format of the original
// settings page: "old > new" on success.
func printResult(w io.Writer, id int64, summary media.Summary, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(w, "#%d: %v\n", id, err)
	case summary.Outcome == media.Success:
		fmt.Fprintf(w, "%s > %s\n", summary.OldName, summary.NewName)
		if n := summary.FailedVariants(); n > 0 {
			fmt.Fprintf(w, "#%d: %d size variant(s) kept their old name\n", id, n)
		}
	case summary.Outcome == media.PhysicalFailure:
		fmt.Fprintf(w, "#%d: %s\n", id, msgFailed)
	}
}

func newNameCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "name <filename>...",
		Short: "Print the clean form of filenames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := filename.New()
			if c.cfg.SubstitutionsFile != "" {
				subs, err := filename.LoadSubstitutions(c.cfg.SubstitutionsFile)
				if err != nil {
					return err
				}
				s = filename.New(filename.WithSubstitutions(subs...))
			}
			out := cmd.OutOrStdout()
			for _, name := range args {
				fmt.Fprintln(out, s.Clean(name))
			}
			return nil
		},
	}
}

func newImportCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <attachments.json>",
		Short: "Load attachment records from a JSON snapshot into the metadata store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snapshot, err := memory.LoadFile(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.close()

			ids, err := snapshot.Attachments(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				rec, err := snapshot.Get(ctx, id)
				if err != nil {
					return err
				}
				if err := a.store.Save(ctx, rec); err != nil {
					return fmt.Errorf("attachment %d: %w", id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d attachments\n", len(ids))
			return a.writeSnapshot()
		},
	}
}
