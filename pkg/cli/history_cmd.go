package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"logsearch/internal/db"
	"logsearch/internal/domain"
	"logsearch/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath     string
		stream     string
		status     string
		maxResults int
		pageToken  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past searches from the local history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != "" && status != "ok" && status != "error" {
				return fmt.Errorf("--status must be ok or error")
			}
			if maxResults < 1 {
				return fmt.Errorf("--max-results must be >= 1")
			}

			readDB, err := db.OpenSQLite(dbPath, "read", 1)
			if err != nil {
				return fmt.Errorf("open history db: %w", err)
			}
			defer readDB.Close() //nolint:errcheck

			filter := domain.HistoryFilter{
				Page: domain.PageRequest{MaxResults: maxResults, PageToken: pageToken},
			}
			if stream != "" {
				filter.Stream = &stream
			}
			if status != "" {
				filter.Status = &status
			}

			repo := history.New(nil, readDB)
			entries, total, err := repo.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			next := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total)
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"entries":         entries,
					"total":           total,
					"next_page_token": next,
				})
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				sql := e.SQL
				if len(sql) > 60 {
					sql = sql[:57] + "..."
				}
				rows = append(rows, []string{
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.Stream,
					e.Status,
					fmt.Sprintf("%d", e.Hits),
					fmt.Sprintf("%dms", e.DurationMS),
					sql,
				})
			}
			if err := printTable(os.Stdout, []string{"WHEN", "STREAM", "STATUS", "HITS", "TOOK", "SQL"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\n%d of %d entries\n", len(entries), total)
			if next != "" {
				fmt.Fprintf(os.Stdout, "next page: --page-token %s\n", next)
			}
			return nil
		},
	}

	defaultDB := os.Getenv("HISTORY_DB_PATH")
	if defaultDB == "" {
		defaultDB = "logsearch_history.sqlite"
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDB, "Path to the history SQLite file")
	cmd.Flags().StringVar(&stream, "stream", "", "Filter by stream")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (ok, error)")
	cmd.Flags().IntVar(&maxResults, "max-results", 50, "Entries per page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Page token from a previous listing")

	return cmd
}
