package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerStoreCommitsOnSuccess(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	store := NewLedgerStore(db, 2*time.Second)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '2000ms'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM credit_requests")).WithArgs("req-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(ctx context.Context, tx LedgerTx) error {
		return tx.DeleteCreditRequest(ctx, "req-1")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStoreRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	store := NewLedgerStore(db, 0)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_credit_balances")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET total_credits")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("history write failed")
	err := store.InTx(context.Background(), func(ctx context.Context, tx LedgerTx) error {
		if err := tx.SaveBalance(ctx, "student-1", "Cyber_Security", 4, 4); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStoreReportsLockContention(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	store := NewLedgerStore(db, 0)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, total_credits, updated_at FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(ctx context.Context, tx LedgerTx) error {
		_, err := tx.LockStudent(ctx, "student-1")
		return err
	})
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	require.NoError(t, mock.ExpectationsWereMet())
}
