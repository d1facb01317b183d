package dbmetrics

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/metrics"
)

func TestDB_RecordsQueryMetrics(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	db := Wrap(sqlDB, m)

	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = db.ExecContext(context.Background(), "UPDATE bookings SET status = $1", "cancelled")
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBQueriesTotal.WithLabelValues("update", "ok")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_NilMetrics(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := Wrap(sqlDB, nil)

	mock.ExpectExec("DELETE FROM vacation_days").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = db.ExecContext(context.Background(), "DELETE FROM vacation_days")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_PrefersTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := Wrap(sqlDB, nil)
	ctx := context.Background()

	assert.False(t, IsInTransaction(ctx))
	assert.Equal(t, DBExecutor(db), GetExecutor(ctx, db))

	mock.ExpectBegin()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	txCtx := WithTx(ctx, tx)
	assert.True(t, IsInTransaction(txCtx))
	assert.Equal(t, DBExecutor(tx), GetExecutor(txCtx, db))

	mock.ExpectRollback()
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOperation(t *testing.T) {
	assert.Equal(t, "select", operation("  SELECT id FROM bookings"))
	assert.Equal(t, "insert", operation("INSERT INTO quota_ledger"))
	assert.Equal(t, "unknown", operation(""))
}
