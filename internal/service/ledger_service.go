package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/pkg/cache"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
	"github.com/thethakurshivam/grs-sub003/pkg/export"
)

type courseHistoryReader interface {
	ListCourseHistory(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error)
}

type certificateStore interface {
	GetCertificate(ctx context.Context, id string) (*models.Certificate, error)
	ListCertificates(ctx context.Context, studentID string) ([]models.Certificate, error)
	GetCertificateMapping(ctx context.Context, certificateID string) (*models.CertificateCourseMapping, error)
}

type balanceCache interface {
	Enabled() bool
	Version(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

// LedgerConfig carries presentation settings for ledger reads.
type LedgerConfig struct {
	BalanceTTL time.Duration
	IssuerName string
	// Verifier signs certificate details and PDFs. Nil disables verification codes.
	Verifier *export.Verifier
}

// LedgerService serves read models over the credit ledger: balances, course history and certificates.
type LedgerService struct {
	students     studentReader
	history      courseHistoryReader
	certificates certificateStore
	cache        balanceCache
	renderer     certificateRenderer
	catalog      *UmbrellaCatalog
	logger       *zap.Logger
	cfg          LedgerConfig
}

// NewLedgerService constructs the service. cache and renderer are optional.
func NewLedgerService(students studentReader, history courseHistoryReader, certificates certificateStore, balances balanceCache,
	renderer certificateRenderer, catalog *UmbrellaCatalog, logger *zap.Logger, cfg LedgerConfig) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = NewUmbrellaCatalog(nil)
	}
	if renderer == nil {
		renderer = export.NewCertificatePDF()
	}
	if cfg.IssuerName == "" {
		cfg.IssuerName = "Credit Portal"
	}
	return &LedgerService{
		students:     students,
		history:      history,
		certificates: certificates,
		cache:        balances,
		renderer:     renderer,
		catalog:      catalog,
		logger:       logger,
		cfg:          cfg,
	}
}

// GetBalances returns every umbrella balance of the student.
func (s *LedgerService) GetBalances(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.BalanceSummary, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	return s.balanceSummary(ctx, studentID)
}

// GetBalance returns the balance of one umbrella. Umbrellas without postings read as zero.
func (s *LedgerService) GetBalance(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) (*models.UmbrellaBalance, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	key, ok := s.catalog.Normalize(umbrella)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrValidation, umbrella, "unknown umbrella")
	}
	summary, err := s.balanceSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &models.UmbrellaBalance{StudentID: studentID, UmbrellaKey: key, Credits: summary.Balances[key]}, nil
}

// versionedBalance is the cached form of a balance summary, stamped with the
// ledger version that was current before the database read.
type versionedBalance struct {
	Version int64                 `json:"version"`
	Summary models.BalanceSummary `json:"summary"`
}

func (s *LedgerService) balanceSummary(ctx context.Context, studentID string) (*models.BalanceSummary, error) {
	key := cache.BalanceKey(studentID)
	cacheable := false
	var version int64
	if s.cacheEnabled() {
		var err error
		version, err = s.cache.Version(ctx, cache.BalanceVersionKey(studentID))
		cacheable = err == nil
	}
	if cacheable {
		var cached versionedBalance
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit && cached.Version == version {
			return &cached.Summary, nil
		}
	}

	student, err := s.students.FindStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, studentID, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load balance")
	}
	balances := student.CreditBalances
	if balances == nil {
		balances = map[string]float64{}
	}
	summary := &models.BalanceSummary{StudentID: student.ID, TotalCredits: student.TotalCredits, Balances: balances}
	if cacheable {
		_ = s.cache.Set(ctx, key, versionedBalance{Version: version, Summary: *summary}, s.cfg.BalanceTTL)
	}
	return summary, nil
}

func (s *LedgerService) cacheEnabled() bool {
	return s.cache != nil && s.cache.Enabled()
}

// InvalidateBalance drops the cached balance of a student after a committed ledger change.
// The version bump also voids snapshots that readers loaded before the commit but
// write back afterwards.
func (s *LedgerService) InvalidateBalance(ctx context.Context, studentID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Bump(ctx, cache.BalanceVersionKey(studentID)); err != nil {
		s.logger.Warn("balance version bump failed", zap.String("student_id", studentID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, cache.BalanceKey(studentID)); err != nil {
		s.logger.Warn("balance cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// ListCourseHistory returns the student's entries oldest first, optionally for one umbrella.
func (s *LedgerService) ListCourseHistory(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) ([]models.CourseHistoryEntry, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	var key string
	if umbrella != "" {
		normalized, ok := s.catalog.Normalize(umbrella)
		if !ok {
			return nil, appErrors.WithResource(appErrors.ErrValidation, umbrella, "unknown umbrella")
		}
		key = normalized
	}
	if _, err := s.students.FindStudent(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, studentID, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.history.ListCourseHistory(ctx, studentID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course history")
	}
	return entries, nil
}

// GetCertificate returns a certificate with its course attribution.
func (s *LedgerService) GetCertificate(ctx context.Context, id string, actor *models.JWTClaims) (*models.CertificateDetail, error) {
	cert, err := s.certificates.GetCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, id, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if err := authorizeStudentAccess(actor, cert.StudentID); err != nil {
		return nil, err
	}
	mapping, err := s.certificates.GetCertificateMapping(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate mapping")
	}
	detail := &models.CertificateDetail{Certificate: *cert, Mapping: mapping}
	detail.VerificationCode = s.cfg.Verifier.Code(export.VerificationFields{
		CertificateNo:   cert.CertificateNo,
		StudentID:       cert.StudentID,
		Qualification:   string(cert.Qualification),
		CreditsConsumed: cert.CreditsConsumed,
		IssuedAt:        cert.IssuedAt,
	})
	return detail, nil
}

// ListCertificates returns the student's certificates, newest first.
func (s *LedgerService) ListCertificates(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Certificate, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	certs, err := s.certificates.ListCertificates(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// RenderCertificatePDF renders a printable certificate and returns it with a download filename.
func (s *LedgerService) RenderCertificatePDF(ctx context.Context, id string, actor *models.JWTClaims) ([]byte, string, error) {
	detail, err := s.GetCertificate(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}
	doc := export.CertificateDocument{
		CertificateNo:    detail.CertificateNo,
		IssuerName:       s.cfg.IssuerName,
		StudentID:        detail.StudentID,
		Umbrella:         detail.UmbrellaKey,
		Qualification:    string(detail.Qualification),
		CreditsConsumed:  detail.CreditsConsumed,
		IssuedAt:         detail.IssuedAt,
		VerificationCode: detail.VerificationCode,
	}
	if student, err := s.students.FindStudent(ctx, detail.StudentID); err == nil {
		doc.StudentName = student.FullName
	}
	if detail.Mapping != nil {
		for _, course := range detail.Mapping.Courses {
			doc.Courses = append(doc.Courses, export.CertificateLine{
				Course:         course.CourseName,
				Organization:   course.Organization,
				TheoryHours:    course.TheoryHours,
				PracticalHours: course.PracticalHours,
				CreditsUsed:    course.CreditsUsed,
				CompletedOn:    course.CompletionDate,
			})
		}
	}
	body, err := s.renderer.Render(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return body, fmt.Sprintf("%s.pdf", detail.CertificateNo), nil
}
