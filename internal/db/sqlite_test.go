package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/test.sqlite", "write")
	assert.Contains(t, write, "_journal_mode=WAL")
	assert.Contains(t, write, "_busy_timeout=5000")
	assert.Contains(t, write, "_synchronous=NORMAL")
	assert.Contains(t, write, "_foreign_keys=on")
	assert.Contains(t, write, "_txlock=immediate")
	assert.True(t, strings.HasPrefix(write, "/tmp/test.sqlite?"))

	read := buildDSN("/tmp/test.sqlite", "read")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "invalid", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_WriteMode(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpenSQLite_ReadDefaultPoolSize(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "read", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestOpenSQLitePair_SplitPools(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 4, readDB.Stats().MaxOpenConnections)

	_, err := writeDB.Exec(
		`INSERT INTO search_history (id, stream, sql, start_time, end_time, duration_ms, hits, status)
		 VALUES ('a', 'default', 'select * from "default"', 0, 1000, 12, 42, 'ok')`)
	require.NoError(t, err)

	var stream string
	require.NoError(t, readDB.QueryRow("SELECT stream FROM search_history WHERE id = 'a'").Scan(&stream))
	assert.Equal(t, "default", stream)
}

func TestOpenSQLitePair_ConcurrentWritesAndReads(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec(
				`INSERT INTO search_history (id, stream, sql, start_time, end_time, duration_ms, hits, status)
				 VALUES (?, 'default', 'select 1', 0, 1, 1, 0, 'ok')`, idx)
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = readDB.QueryRow("SELECT count(*) FROM search_history").Scan(&n)
		}(i)
	}
	wg.Wait()

	for i := range writeErrs {
		assert.NoError(t, writeErrs[i], "writer %d", i)
		assert.NoError(t, readErrs[i], "reader %d", i)
	}

	var n int
	require.NoError(t, readDB.QueryRow("SELECT count(*) FROM search_history").Scan(&n))
	assert.Equal(t, 20, n)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)
	require.NoError(t, RunMigrations(writeDB))
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/test.db", "write", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}
