package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"logsearch/internal/backend"
	"logsearch/internal/session"
)

func newHistogramCmd(opts *rootOptions) *cobra.Command {
	var (
		stream  string
		query   string
		sqlMode bool
		width   int
		tf      timeFlags
	)

	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Print the hit-count histogram for a query",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := tf.resolve(time.Now())
			if err != nil {
				return err
			}

			client := backend.New(opts.url, opts.org, opts.token)
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			sess := session.New(client, logger, session.Config{
				Stream:    stream,
				SQLMode:   sqlMode,
				Query:     query,
				TimeRange: tr,
			})
			if _, err := sess.BuildQuery(); err != nil {
				return err
			}
			if err := sess.FetchHistogram(cmd.Context()); err != nil {
				return err
			}

			spec := sess.HistogramSpec()
			buckets := sess.HistogramBuckets()
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"interval": spec.Interval,
					"buckets":  buckets,
				})
			}

			var max int64
			for _, b := range buckets {
				if b.Count > max {
					max = b.Count
				}
			}
			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				rows = append(rows, []string{b.Key, fmt.Sprintf("%d", b.Count), bar(b.Count, max, width)})
			}
			if err := printTable(os.Stdout, []string{"BUCKET", "COUNT", ""}, rows); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\ninterval: %s\n", spec.Interval)
			return nil
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to search (required)")
	cmd.Flags().StringVar(&query, "query", "", "Match expression, or full SQL with --sql")
	cmd.Flags().BoolVar(&sqlMode, "sql", false, "Treat --query as a complete SQL statement")
	cmd.Flags().IntVar(&width, "width", 40, "Maximum bar width in characters")
	tf.register(cmd)
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}

// bar renders a proportional ASCII bar for one bucket.
func bar(count, max int64, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	n := int(count * int64(width) / max)
	if n == 0 && count > 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
