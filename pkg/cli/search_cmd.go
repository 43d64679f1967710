package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"logsearch/internal/session"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		stream  string
		query   string
		sqlMode bool
		queryFn string
		fields  []string
		page    int
		rows    int
		tf      timeFlags
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a search and print one page of results",
		Example: `  # Match expression over the last hour
  logsearch search --stream app_logs --query 'match_all("timeout")' --last 1h

  # Full SQL, second page
  logsearch search --stream app_logs --sql --query "SELECT * FROM app_logs WHERE level='error'" --page 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := tf.resolve(time.Now())
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page must be >= 1")
			}

			sess, err := opts.service().Run(cmd.Context(), session.Config{
				Stream:      stream,
				Fields:      fields,
				SQLMode:     sqlMode,
				Query:       query,
				QueryFn:     queryFn,
				TimeRange:   tr,
				RowsPerPage: rows,
			})
			if err != nil {
				return err
			}
			if page > 1 {
				if err := sess.FetchPage(cmd.Context(), page, false); err != nil {
					return err
				}
			}
			return printResult(cmd, sess, page)
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Stream to search (required)")
	cmd.Flags().StringVar(&query, "query", "", "Match expression, or full SQL with --sql")
	cmd.Flags().BoolVar(&sqlMode, "sql", false, "Treat --query as a complete SQL statement")
	cmd.Flags().StringVar(&queryFn, "fn", "", "Transform function applied by the backend")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Columns to select instead of *")
	cmd.Flags().IntVar(&page, "page", 1, "Logical page to fetch (1-based)")
	cmd.Flags().IntVar(&rows, "rows", 100, "Rows per logical page")
	tf.register(cmd)
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}

// printResult renders the accumulated page in the selected output format.
func printResult(cmd *cobra.Command, sess *session.Session, page int) error {
	res := sess.Result()

	if getOutputFormat(cmd) == "json" {
		return printJSON(os.Stdout, map[string]interface{}{
			"sql":       sess.SQL(),
			"page":      page,
			"total":     res.Total,
			"from":      res.From,
			"scan_size": res.ScanSize,
			"took":      res.Took,
			"hits":      res.Hits,
		})
	}

	rows := make([][]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var rec map[string]interface{}
		if err := json.Unmarshal(hit, &rec); err != nil {
			continue
		}
		row := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			row[i] = formatCell(rec[col])
		}
		rows = append(rows, row)
	}
	if err := printTable(os.Stdout, res.Columns, rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%d hit(s) of %d total, page %d, scanned %d bytes in %d ms\n",
		len(res.Hits), res.Total, page, res.ScanSize, res.Took)
	return nil
}

// formatCell renders one field value for table output.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; print integers without a
		// fractional part.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// microTime renders a microsecond epoch for display.
func microTime(us int64) string {
	return time.UnixMicro(us).UTC().Format(time.RFC3339)
}
