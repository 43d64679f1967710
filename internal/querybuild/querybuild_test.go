package querybuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logsearch/internal/domain"
)

func TestRawSQL(t *testing.T) {
	t.Parallel()

	fields := []string{"level", "kubernetes_namespace", "message"}

	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{
			name:   "empty filter",
			filter: "",
			want:   `select * from "default"`,
		},
		{
			name:   "bare term",
			filter: "error",
			want:   `select * from "default" where error`,
		},
		{
			name:   "field comparison gets quoted and spaced",
			filter: "level='error'",
			want:   `select * from "default" where "level" = 'error'`,
		},
		{
			name:   "multi-char operators",
			filter: "level!='debug' and code>=500",
			want:   `select * from "default" where "level" != 'debug' and code >= 500`,
		},
		{
			name:   "operators inside quoted strings untouched",
			filter: `message='a=b' and level = 'x>=y'`,
			want:   `select * from "default" where "message" = 'a=b' and "level" = 'x>=y'`,
		},
		{
			name:   "whitespace runs collapsed",
			filter: "level   =\n'error'",
			want:   `select * from "default" where "level" = 'error'`,
		},
		{
			name:   "non-field tokens stay bare",
			filter: "str_match(message, 'timeout')",
			want:   `select * from "default" where str_match(message, 'timeout')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RawSQL("default", tt.filter, fields))
		})
	}
}

func TestFoldLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stmt       string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{
			name: "no limit or offset",
			stmt: `SELECT * FROM tbl`,
		},
		{
			name:      "limit folded",
			stmt:      `SELECT * FROM tbl LIMIT 100`,
			wantLimit: 100,
		},
		{
			name:       "limit and offset folded",
			stmt:       `SELECT * FROM tbl LIMIT 50 OFFSET 200`,
			wantLimit:  50,
			wantOffset: 200,
		},
		{
			name:      "comment lines stripped",
			stmt:      "-- leading comment\nSELECT * FROM tbl LIMIT 10\n-- trailing comment",
			wantLimit: 10,
		},
		{
			name:    "garbage is invalid syntax",
			stmt:    "SELEKT blergh FROM",
			wantErr: true,
		},
		{
			name:    "non-select rejected",
			stmt:    "DELETE FROM tbl",
			wantErr: true,
		},
		{
			name:    "only comments",
			stmt:    "-- nothing here",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sql, limit, offset, err := FoldLimits(tt.stmt)
			if tt.wantErr {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.NotContains(t, sql, "LIMIT")
			assert.NotContains(t, sql, "OFFSET")
			assert.Contains(t, sql, "SELECT")
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	tr := domain.TimeRange{Start: 1000, End: 2000}

	t.Run("raw mode", func(t *testing.T) {
		t.Parallel()

		b := &Builder{
			Stream:      "default",
			Fields:      []string{"level"},
			Query:       "level='error'",
			TimeRange:   tr,
			RowsPerPage: 250,
		}
		req, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, `select * from "default" where "level" = 'error'`, req.Query.SQL)
		assert.Equal(t, 250, req.Query.Size)
		assert.Equal(t, int64(1000), req.Query.StartTime)
		assert.Equal(t, int64(2000), req.Query.EndTime)
	})

	t.Run("sql mode folds limit and offset", func(t *testing.T) {
		t.Parallel()

		b := &Builder{
			Stream:      "default",
			SQLMode:     true,
			Query:       `SELECT * FROM "default" LIMIT 20 OFFSET 40`,
			TimeRange:   tr,
			RowsPerPage: 250,
		}
		req, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, 20, req.Query.Size)
		assert.Equal(t, 40, req.Query.From)
	})

	t.Run("start after end rejected before any request", func(t *testing.T) {
		t.Parallel()

		b := &Builder{
			Stream:    "default",
			TimeRange: domain.TimeRange{Start: 2000, End: 1000},
		}
		_, err := b.Build()
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("missing stream rejected", func(t *testing.T) {
		t.Parallel()

		b := &Builder{TimeRange: tr}
		_, err := b.Build()
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}
