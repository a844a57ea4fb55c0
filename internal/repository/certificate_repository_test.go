package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

func TestCertificateRepositoryNextSequenceTakesAdvisoryLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("certificate:Cyber_Security").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sequence_no), 0) FROM certificates WHERE umbrella_key = $1")).
		WithArgs("Cyber_Security").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	seq, err := repo.NextCertificateSequence(context.Background(), "Cyber_Security")
	require.NoError(t, err)
	require.Equal(t, 8, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryMappingRoundTrip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificate_course_mappings")).WillReturnResult(sqlmock.NewResult(1, 1))

	mapping := &models.CertificateCourseMapping{
		CertificateID:        "cert-1",
		StudentID:            "student-1",
		UmbrellaKey:          "Cyber_Security",
		Qualification:        models.QualificationCertificate,
		TotalCreditsRequired: 3,
		Courses: models.CertificateCourses{
			{CourseHistoryEntryID: "entry-1", CourseName: "Forensics", TotalCredits: 4, CreditsUsed: 3},
		},
	}
	require.NoError(t, repo.InsertCertificateMapping(context.Background(), mapping))
	require.NotEmpty(t, mapping.ID)

	courses := `[{"courseHistoryEntryId":"entry-1","courseName":"Forensics","organization":"","theoryHours":0,"practicalHours":0,"totalCredits":4,"creditsUsed":3,"completionDate":"2024-01-02T00:00:00Z"}]`
	mock.ExpectQuery(regexp.QuoteMeta("FROM certificate_course_mappings WHERE certificate_id = $1")).
		WithArgs("cert-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "certificate_id", "student_id", "umbrella_key", "qualification",
			"total_credits_required", "courses", "created_at"}).
			AddRow(mapping.ID, "cert-1", "student-1", "Cyber_Security", "certificate", 3.0, []byte(courses), mapping.CreatedAt))

	loaded, err := repo.GetCertificateMapping(context.Background(), "cert-1")
	require.NoError(t, err)
	require.Len(t, loaded.Courses, 1)
	require.Equal(t, 3.0, loaded.Courses.CreditsUsed())
	require.NoError(t, mock.ExpectationsWereMet())
}
