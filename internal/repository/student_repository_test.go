package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestStudentRepositoryFindStudentLoadsBalances(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, total_credits, updated_at FROM students")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "total_credits", "updated_at"}).
			AddRow("student-1", "Asha Patel", "asha@example.org", 5.5, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, umbrella_key, credits FROM student_credit_balances")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "umbrella_key", "credits"}).
			AddRow("student-1", "Criminology", 1.5).
			AddRow("student-1", "Cyber_Security", 4.0))

	student, err := repo.FindStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, 5.5, student.TotalCredits)
	require.Equal(t, 4.0, student.Balance("Cyber_Security"))
	require.Equal(t, 0.0, student.Balance("Forensic_Science"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySaveBalance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_credit_balances")).
		WithArgs("student-1", "Cyber_Security", 1.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET total_credits")).
		WithArgs(2.5, sqlmock.AnyArg(), "student-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveBalance(context.Background(), "student-1", "Cyber_Security", 1, 2.5))
	require.NoError(t, mock.ExpectationsWereMet())
}
