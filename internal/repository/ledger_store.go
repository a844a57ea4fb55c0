package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/pkg/database"
)

// ErrConcurrentUpdate marks a transaction that lost a lock race; retry the whole operation.
var ErrConcurrentUpdate = errors.New("concurrent ledger update")

// LedgerTx is the set of statements available inside one ledger transaction.
type LedgerTx interface {
	LockStudent(ctx context.Context, id string) (*models.Student, error)
	SaveBalance(ctx context.Context, studentID, umbrellaKey string, credits, total float64) error

	GetCreditRequest(ctx context.Context, id string) (*models.CreditRequest, error)
	GetCreditRequestForUpdate(ctx context.Context, id string) (*models.CreditRequest, error)
	UpdateCreditRequestDecision(ctx context.Context, req *models.CreditRequest) error
	DeleteCreditRequest(ctx context.Context, id string) error

	LatestRunningCount(ctx context.Context, studentID, umbrellaKey string) (float64, error)
	InsertCourseHistory(ctx context.Context, entry *models.CourseHistoryEntry) error
	FindBySourceRequest(ctx context.Context, requestID string) (*models.CourseHistoryEntry, error)
	ListAvailableForUpdate(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error)
	MarkContributed(ctx context.Context, entryID, certificateID string, credits float64) error

	GetClaim(ctx context.Context, id string) (*models.CertificationClaim, error)
	GetClaimForUpdate(ctx context.Context, id string) (*models.CertificationClaim, error)
	UpdateClaimDecision(ctx context.Context, claim *models.CertificationClaim) error
	DeleteClaim(ctx context.Context, id string) error
	InsertClaimOutcome(ctx context.Context, outcome *models.ClaimOutcome) error
	GetClaimOutcome(ctx context.Context, claimID string) (*models.ClaimOutcome, error)

	NextCertificateSequence(ctx context.Context, umbrellaKey string) (int, error)
	InsertCertificate(ctx context.Context, cert *models.Certificate) error
	InsertCertificateMapping(ctx context.Context, mapping *models.CertificateCourseMapping) error
	GetCertificateByClaim(ctx context.Context, claimID string) (*models.Certificate, error)
}

// LedgerStore runs ledger work inside a single database transaction.
type LedgerStore struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewLedgerStore constructs the store. lockTimeout bounds how long a transaction waits for row locks.
func NewLedgerStore(db *sqlx.DB, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{db: db, lockTimeout: lockTimeout}
}

type ledgerTx struct {
	*StudentRepository
	*CreditRequestRepository
	*CourseHistoryRepository
	*ClaimRepository
	*CertificateRepository
}

func newLedgerTx(tx *sqlx.Tx) *ledgerTx {
	return &ledgerTx{
		StudentRepository:       &StudentRepository{db: tx},
		CreditRequestRepository: &CreditRequestRepository{db: tx},
		CourseHistoryRepository: &CourseHistoryRepository{db: tx},
		ClaimRepository:         &ClaimRepository{db: tx},
		CertificateRepository:   &CertificateRepository{db: tx},
	}
}

// InTx commits when fn returns nil and rolls back otherwise, so callers never
// observe a partially applied finalization. Lock contention is reported as ErrConcurrentUpdate.
func (s *LedgerStore) InTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if database.IsContention(err) {
				err = fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
			}
		}
	}()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err = fn(ctx, newLedgerTx(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}
