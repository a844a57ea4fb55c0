package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

var courseHistoryRowColumns = []string{"id", "seq", "student_id", "umbrella_key", "name", "organization", "theory_hours",
	"practical_hours", "theory_credits", "practical_credits", "credits_earned", "running_count", "source_request_id",
	"certificate_contributed", "contributed_certificate_id", "credits_contributed", "is_remaining_split",
	"original_entry_id", "earned_at", "created_at"}

func TestCourseHistoryRepositoryLatestRunningCountDefaultsToZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseHistoryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT running_count FROM course_history")).
		WithArgs("student-1", "Cyber_Security").
		WillReturnRows(sqlmock.NewRows([]string{"running_count"}))

	count, err := repo.LatestRunningCount(context.Background(), "student-1", "Cyber_Security")
	require.NoError(t, err)
	require.Equal(t, 0.0, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseHistoryRepositoryInsertAndListAvailable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_history")).WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.CourseHistoryEntry{
		StudentID:     "student-1",
		UmbrellaKey:   "Cyber_Security",
		Name:          "Network Defence",
		Organization:  "CERT-In",
		TheoryHours:   30,
		TheoryCredits: 2,
		CreditsEarned: 2,
		RunningCount:  2,
	}
	require.NoError(t, repo.InsertCourseHistory(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.EarnedAt.IsZero())

	now := time.Now()
	rows := sqlmock.NewRows(courseHistoryRowColumns).
		AddRow(entry.ID, 1, "student-1", "Cyber_Security", "Network Defence", "CERT-In", 30.0, 0.0, 2.0, 0.0, 2.0, 2.0,
			nil, false, nil, nil, false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_history")).
		WithArgs("student-1", "Cyber_Security").
		WillReturnRows(rows)

	available, err := repo.ListAvailableForUpdate(context.Background(), "student-1", "Cyber_Security")
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, 2.0, available[0].CreditsEarned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseHistoryRepositoryMarkContributedOnce(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_history")).
		WithArgs("cert-1", 3.0, "entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkContributed(context.Background(), "entry-1", "cert-1", 3))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_history")).
		WithArgs("cert-2", 3.0, "entry-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkContributed(context.Background(), "entry-1", "cert-2", 3)
	require.ErrorIs(t, err, ErrAlreadyContributed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseHistoryRepositoryListHydratesContribution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseHistoryRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(courseHistoryRowColumns).
		AddRow("entry-1", 1, "student-1", "Cyber_Security", "Forensics", "NFSU", 30.0, 60.0, 2.0, 2.0, 4.0, 4.0,
			"req-1", true, "cert-1", 3.0, false, nil, now, now).
		AddRow("entry-2", 2, "student-1", "Cyber_Security", "Forensics", "NFSU", 7.5, 15.0, 0.5, 0.5, 1.0, 4.0,
			nil, false, nil, nil, true, "entry-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_history WHERE student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(rows)

	entries, err := repo.ListCourseHistory(context.Background(), "student-1", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Contribution)
	require.Equal(t, "cert-1", entries[0].Contribution.CertificateID)
	require.Equal(t, 3.0, entries[0].Contribution.CreditsContributed)
	require.Nil(t, entries[1].Contribution)
	require.True(t, entries[1].IsRemainingSplit)
	require.NoError(t, mock.ExpectationsWereMet())
}
