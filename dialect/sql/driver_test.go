package sql_test

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/daolite/dialect"
	sqld "github.com/syssam/daolite/dialect/sql"
)

func mockDriver(t *testing.T) (*sqld.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqld.OpenDB(dialect.SQLite, db), mock
}

// TestExec checks statement execution and the argument contracts.
func TestExec(t *testing.T) {
	t.Parallel()

	drv, mock := mockDriver(t)
	ctx := context.Background()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(ctx, "CREATE TABLE t (id INTEGER);", []any{}, nil))

	var res sqld.Result
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, drv.Exec(ctx, "INSERT INTO t VALUES (?);", []any{int64(1)}, &res))
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	err = drv.Exec(ctx, "INSERT", "not-a-slice", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect []any")

	err = drv.Exec(ctx, "INSERT", []any{}, "bad-dest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Result")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestQuery checks row retrieval through the Rows wrapper.
func TestQuery(t *testing.T) {
	t.Parallel()

	drv, mock := mockDriver(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	var rows sqld.Rows
	require.NoError(t, drv.Query(ctx, "SELECT id FROM t;", []any{}, &rows))
	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []int64{1, 2}, ids)

	err := drv.Query(ctx, "SELECT", []any{}, "bad-dest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Rows")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestTx checks the transaction passthrough.
func TestTx(t *testing.T) {
	t.Parallel()

	drv, mock := mockDriver(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "INSERT INTO t VALUES (1);", []any{}, nil))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDebugDriver checks that wrapped calls are logged and passed through.
func TestDebugDriver(t *testing.T) {
	t.Parallel()

	drv, mock := mockDriver(t)
	var logged []string
	dbg := sqld.NewDebugDriver(drv, sqld.DebugWithLog(func(_ context.Context, v ...any) {
		var sb strings.Builder
		for _, x := range v {
			sb.WriteString(x.(string))
		}
		logged = append(logged, sb.String())
	}))

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, dbg.Exec(context.Background(), "DELETE FROM t;", []any{}, nil))

	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "DELETE FROM t")
	assert.NoError(t, mock.ExpectationsWereMet())
}
