package querybuild

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"logsearch/internal/domain"
)

// FoldLimits handles SQL mode: comment lines are stripped, any LIMIT and
// OFFSET clauses are extracted (the caller folds them into the request's
// size and from) and removed, and the statement is re-serialized. A parse
// or serialize failure surfaces as a ValidationError.
func FoldLimits(stmt string) (sql string, limit, offset int, err error) {
	stmt = stripCommentLines(stmt)
	if strings.TrimSpace(stmt) == "" {
		return "", 0, 0, domain.ErrValidation("sql query is required")
	}

	result, perr := pg_query.Parse(stmt)
	if perr != nil || len(result.Stmts) == 0 {
		return "", 0, 0, domain.ErrValidation("invalid syntax")
	}

	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return "", 0, 0, domain.ErrValidation("invalid syntax: only SELECT statements are supported")
	}

	if n := constInt(sel.LimitCount); n >= 0 {
		limit = n
		sel.LimitCount = nil
	}
	if n := constInt(sel.LimitOffset); n >= 0 {
		offset = n
		sel.LimitOffset = nil
	}

	out, derr := pg_query.Deparse(result)
	if derr != nil {
		return "", 0, 0, domain.ErrValidation("invalid syntax")
	}
	return out, limit, offset, nil
}

// constInt extracts a non-negative integer constant from a limit/offset
// node. Returns -1 when the node is absent or not a plain integer.
func constInt(node *pg_query.Node) int {
	if node == nil {
		return -1
	}
	aconst := node.GetAConst()
	if aconst == nil {
		return -1
	}
	ival := aconst.GetIval()
	if ival == nil {
		return -1
	}
	if ival.Ival < 0 {
		return -1
	}
	return int(ival.Ival)
}

// stripCommentLines drops lines that are entirely "--" comments. Trailing
// comments on code lines are left for the parser.
func stripCommentLines(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
