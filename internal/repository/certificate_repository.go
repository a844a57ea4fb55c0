package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// CertificateRepository persists issued certificates and their course mappings.
type CertificateRepository struct {
	db sqlx.ExtContext
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `id, student_id, umbrella_key, qualification, claim_id, certificate_no, sequence_no,
       credits_consumed, issued_at`

// NextCertificateSequence returns 1 + the highest sequence issued for the umbrella.
// The advisory lock serialises numbering per umbrella until the transaction ends.
func (r *CertificateRepository) NextCertificateSequence(ctx context.Context, umbrellaKey string) (int, error) {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "certificate:"+umbrellaKey); err != nil {
		return 0, fmt.Errorf("lock certificate sequence: %w", err)
	}
	var current int
	const query = `SELECT COALESCE(MAX(sequence_no), 0) FROM certificates WHERE umbrella_key = $1`
	if err := sqlx.GetContext(ctx, r.db, &current, query, umbrellaKey); err != nil {
		return 0, fmt.Errorf("read certificate sequence: %w", err)
	}
	return current + 1, nil
}

// InsertCertificate stores an issued certificate.
func (r *CertificateRepository) InsertCertificate(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates
	(id, student_id, umbrella_key, qualification, claim_id, certificate_no, sequence_no, credits_consumed, issued_at)
	VALUES (:id, :student_id, :umbrella_key, :qualification, :claim_id, :certificate_no, :sequence_no, :credits_consumed, :issued_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, cert); err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

// InsertCertificateMapping stores the course attribution of a certificate.
func (r *CertificateRepository) InsertCertificateMapping(ctx context.Context, mapping *models.CertificateCourseMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificate_course_mappings
	(id, certificate_id, student_id, umbrella_key, qualification, total_credits_required, courses, created_at)
	VALUES (:id, :certificate_id, :student_id, :umbrella_key, :qualification, :total_credits_required, :courses, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, mapping); err != nil {
		return fmt.Errorf("insert certificate mapping: %w", err)
	}
	return nil
}

// GetCertificate fetches a certificate by identifier.
func (r *CertificateRepository) GetCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	var cert models.Certificate
	if err := sqlx.GetContext(ctx, r.db, &cert, query, id); err != nil {
		return nil, err
	}
	return &cert, nil
}

// GetCertificateByClaim fetches the certificate issued for a claim.
func (r *CertificateRepository) GetCertificateByClaim(ctx context.Context, claimID string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE claim_id = $1`
	var cert models.Certificate
	if err := sqlx.GetContext(ctx, r.db, &cert, query, claimID); err != nil {
		return nil, err
	}
	return &cert, nil
}

// ListCertificates returns a student's certificates, newest first.
func (r *CertificateRepository) ListCertificates(ctx context.Context, studentID string) ([]models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE student_id = $1 ORDER BY issued_at DESC`
	var certs []models.Certificate
	if err := sqlx.SelectContext(ctx, r.db, &certs, query, studentID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// GetCertificateMapping fetches the course attribution of a certificate.
func (r *CertificateRepository) GetCertificateMapping(ctx context.Context, certificateID string) (*models.CertificateCourseMapping, error) {
	const query = `SELECT id, certificate_id, student_id, umbrella_key, qualification, total_credits_required, courses, created_at
	FROM certificate_course_mappings WHERE certificate_id = $1`
	var mapping models.CertificateCourseMapping
	if err := sqlx.GetContext(ctx, r.db, &mapping, query, certificateID); err != nil {
		return nil, err
	}
	return &mapping, nil
}
