// Package querybuild assembles search request SQL from either a free-text
// filter (raw mode) or a user-supplied SQL statement (SQL mode).
package querybuild

import (
	"fmt"
	"strings"

	"logsearch/internal/domain"
)

// Builder combines the user's query, selected stream, and time range into
// the request consumed by the paginated executor. Pagination fields on the
// output are overwritten per slice by the executor.
type Builder struct {
	Stream      string
	Fields      []string // known field names of the stream schema
	SQLMode     bool
	Query       string // free-text filter (raw mode) or full statement (SQL mode)
	QueryFn     string
	TimeRange   domain.TimeRange
	RowsPerPage int
}

// Build produces the request skeleton. An invalid time range or an
// unparseable SQL statement yields a ValidationError before any network
// activity.
func (b *Builder) Build() (*domain.SearchRequest, error) {
	if !b.TimeRange.Valid() {
		return nil, domain.ErrValidation("invalid time range: start is after end")
	}
	if b.Stream == "" {
		return nil, domain.ErrValidation("no stream selected")
	}

	q := domain.SearchQuery{
		From:      0,
		Size:      b.RowsPerPage,
		StartTime: b.TimeRange.Start,
		EndTime:   b.TimeRange.End,
		QueryFn:   b.QueryFn,
	}

	if b.SQLMode {
		sql, limit, offset, err := FoldLimits(b.Query)
		if err != nil {
			return nil, err
		}
		q.SQL = sql
		if limit > 0 {
			q.Size = limit
		}
		if offset > 0 {
			q.From = offset
		}
	} else {
		q.SQL = RawSQL(b.Stream, b.Query, b.Fields)
	}

	return &domain.SearchRequest{Query: q}, nil
}

// RawSQL builds the raw-mode statement: a select over the stream with a
// WHERE clause generated from the free-text filter. Tokens matching known
// field names are double-quoted; comparison operators are normalized to
// single-space padding.
func RawSQL(stream, filter string, fields []string) string {
	sql := fmt.Sprintf("select * from %q", stream)

	clause := strings.TrimSpace(filter)
	if clause == "" {
		return sql
	}

	clause = normalizeOperators(clause)
	tokens := strings.Split(clause, " ")
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	for i, tok := range tokens {
		if _, ok := known[tok]; ok {
			tokens[i] = `"` + tok + `"`
		}
	}
	return sql + " where " + strings.Join(tokens, " ")
}

// normalizeOperators surrounds =, !=, >=, <=, > and < with single spaces
// and collapses whitespace runs, leaving quoted strings untouched.
func normalizeOperators(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var quote byte
	space := func() {
		if n := b.Len(); n > 0 && b.String()[n-1] != ' ' {
			b.WriteByte(' ')
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			b.WriteByte(c)
		case ' ', '\t', '\n', '\r':
			space()
		case '!', '>', '<':
			if i+1 < len(s) && s[i+1] == '=' {
				space()
				b.WriteByte(c)
				b.WriteByte('=')
				b.WriteByte(' ')
				i++
			} else if c == '!' {
				b.WriteByte(c)
			} else {
				space()
				b.WriteByte(c)
				b.WriteByte(' ')
			}
		case '=':
			space()
			b.WriteString("= ")
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
