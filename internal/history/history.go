// Package history persists a local record of executed searches in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"logsearch/internal/domain"
)

// Repo implements domain.HistoryRepository over a split SQLite pool pair.
// Inserts go through writeDB; list and count queries use readDB.
type Repo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// New creates a Repo. In single-pool setups pass the same *sql.DB for both.
func New(writeDB, readDB *sql.DB) *Repo {
	return &Repo{writeDB: writeDB, readDB: readDB}
}

func (r *Repo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		return domain.ErrValidation("history entry ID is required")
	}
	if e.Status != "ok" && e.Status != "error" {
		return domain.ErrValidation("history status must be \"ok\" or \"error\", got %q", e.Status)
	}

	var errMsg interface{}
	if e.ErrorMsg != "" {
		errMsg = e.ErrorMsg
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO search_history (id, stream, sql, start_time, end_time, duration_ms, hits, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Stream, e.SQL, e.StartTime, e.EndTime, e.DurationMS, e.Hits, e.Status, errMsg,
		createdAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns entries newest-first, filtered and paginated. The second
// return value is the total count matching the filter before pagination.
func (r *Repo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	where, args := buildWhere(filter)

	var total int64
	countSQL := "SELECT count(*) FROM search_history" + where
	if err := r.readDB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	listSQL := `
		SELECT id, stream, sql, start_time, end_time, duration_ms, hits, status, error_msg, created_at
		FROM search_history` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	listArgs := append(append([]interface{}{}, args...), filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.readDB.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var errMsg sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Stream, &e.SQL, &e.StartTime, &e.EndTime,
			&e.DurationMS, &e.Hits, &e.Status, &errMsg, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan history entry: %w", err)
		}
		if errMsg.Valid {
			e.ErrorMsg = errMsg.String
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			e.CreatedAt = ts.UTC()
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history entries: %w", err)
	}

	return entries, total, nil
}

// PurgeOlderThan deletes entries created before cutoff and returns how many
// were removed.
func (r *Repo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.writeDB.ExecContext(ctx,
		"DELETE FROM search_history WHERE created_at < ?",
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge history rows affected: %w", err)
	}
	return n, nil
}

func buildWhere(filter domain.HistoryFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Stream != nil {
		conds = append(conds, "stream = ?")
		args = append(args, *filter.Stream)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From.UTC().Format("2006-01-02 15:04:05"))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.To.UTC().Format("2006-01-02 15:04:05"))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var _ domain.HistoryRepository = (*Repo)(nil)
