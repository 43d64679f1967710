package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logsearch/internal/backend"
	"logsearch/internal/domain"
	"logsearch/internal/session"
)

func newFollowCmd(opts *rootOptions) *cobra.Command {
	var (
		stream   string
		query    string
		sqlMode  bool
		queryFn  string
		rows     int
		last     time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Tail a search: refetch on an interval, printing only new records",
		Long: `Follow runs the search over a trailing window and refetches it on a
fixed interval. Each refetch advances the window to now; records newer
than the previously seen newest timestamp are printed as JSON lines.
Interrupt with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := backend.New(opts.url, opts.org, opts.token)
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			sess := session.New(client, logger, session.Config{
				Stream:      stream,
				SQLMode:     sqlMode,
				Query:       query,
				QueryFn:     queryFn,
				TimeRange:   domain.LastRange(last, time.Now()),
				RowsPerPage: rows,
			})

			if err := sess.ComputePartitions(ctx); err != nil {
				return err
			}
			if err := sess.FetchPage(ctx, 1, false); err != nil {
				return err
			}
			printHits(sess.Result().Hits, len(sess.Result().Hits))
			sess.SetRefreshMode(true)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				prev := len(sess.Result().Hits)
				sess.Retarget(domain.LastRange(last, time.Now()))
				if err := sess.ComputePartitions(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					logger.Warn("refresh failed", "error", err)
					continue
				}
				if err := sess.FetchPage(ctx, 1, false); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					logger.Warn("refresh failed", "error", err)
					continue
				}
				// New records were prepended by the timestamp merge.
				printHits(sess.Result().Hits, len(sess.Result().Hits)-prev)
			}
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to search (required)")
	cmd.Flags().StringVar(&query, "query", "", "Match expression, or full SQL with --sql")
	cmd.Flags().BoolVar(&sqlMode, "sql", false, "Treat --query as a complete SQL statement")
	cmd.Flags().StringVar(&queryFn, "fn", "", "Transform function applied by the backend")
	cmd.Flags().IntVar(&rows, "rows", 100, "Rows fetched per refresh")
	cmd.Flags().DurationVar(&last, "last", 5*time.Minute, "Trailing time window")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Refresh interval")
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}

// printHits writes the first n hits as JSON lines, oldest first.
func printHits(hits []json.RawMessage, n int) {
	if n > len(hits) {
		n = len(hits)
	}
	for i := n - 1; i >= 0; i-- {
		fmt.Fprintln(os.Stdout, string(hits[i]))
	}
}
