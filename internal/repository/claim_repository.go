package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// ClaimRepository persists certification claims and their terminal outcomes.
type ClaimRepository struct {
	db sqlx.ExtContext
}

// NewClaimRepository constructs the repository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, student_id, umbrella_key, qualification, required_credits, submitted_by, created_at, updated_at,
       poc_decision, poc_decided_by, poc_decided_at, admin_decision, admin_decided_by, admin_decided_at,
       declined_reason, status`

// CreateClaim inserts a pending claim.
func (r *ClaimRepository) CreateClaim(ctx context.Context, claim *models.CertificationClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	claim.UpdatedAt = claim.CreatedAt
	claim.Status = claim.Derive()
	const query = `INSERT INTO certification_claims
	(id, student_id, umbrella_key, qualification, required_credits, submitted_by, created_at, updated_at, status)
	VALUES (:id, :student_id, :umbrella_key, :qualification, :required_credits, :submitted_by, :created_at, :updated_at, :status)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, claim); err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	return nil
}

// GetClaim fetches a live claim.
func (r *ClaimRepository) GetClaim(ctx context.Context, id string) (*models.CertificationClaim, error) {
	return r.getClaim(ctx, id, "")
}

// GetClaimForUpdate fetches and row-locks a live claim.
func (r *ClaimRepository) GetClaimForUpdate(ctx context.Context, id string) (*models.CertificationClaim, error) {
	return r.getClaim(ctx, id, " FOR UPDATE")
}

func (r *ClaimRepository) getClaim(ctx context.Context, id, suffix string) (*models.CertificationClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM certification_claims WHERE id = $1` + suffix
	var claim models.CertificationClaim
	if err := sqlx.GetContext(ctx, r.db, &claim, query, id); err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListClaims returns live claims matching the filter, oldest first, with the total count.
func (r *ClaimRepository) ListClaims(ctx context.Context, filter models.ApprovalFilter) ([]models.CertificationClaim, int, error) {
	where, args := buildApprovalWhere(filter)

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM certification_claims`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count claims: %w", err)
	}

	limit, offset := pageBounds(filter)
	query := fmt.Sprintf(`SELECT %s FROM certification_claims%s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		claimColumns, where, limit, offset)
	var claims []models.CertificationClaim
	if err := sqlx.SelectContext(ctx, r.db, &claims, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}
	return claims, total, nil
}

// UpdateClaimDecision persists both decisions and the derived status.
func (r *ClaimRepository) UpdateClaimDecision(ctx context.Context, claim *models.CertificationClaim) error {
	claim.UpdatedAt = time.Now().UTC()
	claim.Status = claim.Derive()
	const query = `UPDATE certification_claims SET
	poc_decision = :poc_decision, poc_decided_by = :poc_decided_by, poc_decided_at = :poc_decided_at,
	admin_decision = :admin_decision, admin_decided_by = :admin_decided_by, admin_decided_at = :admin_decided_at,
	declined_reason = :declined_reason, status = :status, updated_at = :updated_at
	WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, claim); err != nil {
		return fmt.Errorf("update claim decision: %w", err)
	}
	return nil
}

// DeleteClaim removes a claim once its outcome has been recorded.
func (r *ClaimRepository) DeleteClaim(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM certification_claims WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

// InsertClaimOutcome records the terminal snapshot of a claim.
func (r *ClaimRepository) InsertClaimOutcome(ctx context.Context, outcome *models.ClaimOutcome) error {
	if outcome.DecidedAt.IsZero() {
		outcome.DecidedAt = time.Now().UTC()
	}
	const query = `INSERT INTO claim_outcomes
	(claim_id, student_id, umbrella_key, qualification, required_credits, status, poc_decision, admin_decision,
	 decided_by, decided_role, declined_reason, certificate_id, decided_at)
	VALUES (:claim_id, :student_id, :umbrella_key, :qualification, :required_credits, :status, :poc_decision,
	 :admin_decision, :decided_by, :decided_role, :declined_reason, :certificate_id, :decided_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, outcome); err != nil {
		return fmt.Errorf("insert claim outcome: %w", err)
	}
	return nil
}

// GetClaimOutcome fetches the recorded outcome of a deleted claim.
func (r *ClaimRepository) GetClaimOutcome(ctx context.Context, claimID string) (*models.ClaimOutcome, error) {
	const query = `SELECT claim_id, student_id, umbrella_key, qualification, required_credits, status, poc_decision,
       admin_decision, decided_by, decided_role, declined_reason, certificate_id, decided_at
	FROM claim_outcomes WHERE claim_id = $1`
	var outcome models.ClaimOutcome
	if err := sqlx.GetContext(ctx, r.db, &outcome, query, claimID); err != nil {
		return nil, err
	}
	return &outcome, nil
}
