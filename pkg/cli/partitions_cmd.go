package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"logsearch/internal/backend"
	"logsearch/internal/session"
)

func newPartitionsCmd(opts *rootOptions) *cobra.Command {
	var (
		stream  string
		query   string
		sqlMode bool
		rows    int
		tf      timeFlags
	)

	cmd := &cobra.Command{
		Use:   "partitions",
		Short: "Show how the backend splits a query's time range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := tf.resolve(time.Now())
			if err != nil {
				return err
			}

			client := backend.New(opts.url, opts.org, opts.token)
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			sess := session.New(client, logger, session.Config{
				Stream:      stream,
				SQLMode:     sqlMode,
				Query:       query,
				TimeRange:   tr,
				RowsPerPage: rows,
			})
			if err := sess.ComputePartitions(cmd.Context()); err != nil {
				return err
			}

			parts := sess.Partitions()
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"sql":        sess.SQL(),
					"partitions": parts,
				})
			}

			tableRows := make([][]string, 0, len(parts))
			for i, p := range parts {
				tableRows = append(tableRows, []string{
					fmt.Sprintf("%d", i),
					microTime(p.Start),
					microTime(p.End),
				})
			}
			return printTable(os.Stdout, []string{"#", "START", "END"}, tableRows)
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to search (required)")
	cmd.Flags().StringVar(&query, "query", "", "Match expression, or full SQL with --sql")
	cmd.Flags().BoolVar(&sqlMode, "sql", false, "Treat --query as a complete SQL statement")
	cmd.Flags().IntVar(&rows, "rows", 100, "Rows per logical page")
	tf.register(cmd)
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}
