package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// CreditRequestRepository persists pending credit requests.
type CreditRequestRepository struct {
	db sqlx.ExtContext
}

// NewCreditRequestRepository constructs the repository.
func NewCreditRequestRepository(db *sqlx.DB) *CreditRequestRepository {
	return &CreditRequestRepository{db: db}
}

const creditRequestColumns = `id, student_id, umbrella_key, organization, course_name, theory_hours, practical_hours,
       total_hours, no_of_days, calculated_credits, document_ref, submitted_by, created_at, updated_at,
       poc_decision, poc_decided_by, poc_decided_at, admin_decision, admin_decided_by, admin_decided_at,
       declined_reason, status`

// CreateCreditRequest inserts a new request with both decisions unset.
func (r *CreditRequestRepository) CreateCreditRequest(ctx context.Context, req *models.CreditRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = req.CreatedAt
	req.Status = req.Derive()
	const query = `INSERT INTO credit_requests
	(id, student_id, umbrella_key, organization, course_name, theory_hours, practical_hours, total_hours, no_of_days,
	 calculated_credits, document_ref, submitted_by, created_at, updated_at, status)
	VALUES (:id, :student_id, :umbrella_key, :organization, :course_name, :theory_hours, :practical_hours, :total_hours,
	 :no_of_days, :calculated_credits, :document_ref, :submitted_by, :created_at, :updated_at, :status)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, req); err != nil {
		return fmt.Errorf("create credit request: %w", err)
	}
	return nil
}

// GetCreditRequest fetches a request by identifier.
func (r *CreditRequestRepository) GetCreditRequest(ctx context.Context, id string) (*models.CreditRequest, error) {
	return r.getCreditRequest(ctx, id, "")
}

// GetCreditRequestForUpdate fetches and row-locks a request.
func (r *CreditRequestRepository) GetCreditRequestForUpdate(ctx context.Context, id string) (*models.CreditRequest, error) {
	return r.getCreditRequest(ctx, id, " FOR UPDATE")
}

func (r *CreditRequestRepository) getCreditRequest(ctx context.Context, id, suffix string) (*models.CreditRequest, error) {
	query := `SELECT ` + creditRequestColumns + ` FROM credit_requests WHERE id = $1` + suffix
	var req models.CreditRequest
	if err := sqlx.GetContext(ctx, r.db, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListCreditRequests returns requests matching the filter, oldest first, with the total count.
func (r *CreditRequestRepository) ListCreditRequests(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditRequest, int, error) {
	where, args := buildApprovalWhere(filter)

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM credit_requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count credit requests: %w", err)
	}

	limit, offset := pageBounds(filter)
	query := fmt.Sprintf(`SELECT %s FROM credit_requests%s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		creditRequestColumns, where, limit, offset)
	var requests []models.CreditRequest
	if err := sqlx.SelectContext(ctx, r.db, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list credit requests: %w", err)
	}
	return requests, total, nil
}

// UpdateCreditRequestDecision persists both decisions and the derived status.
func (r *CreditRequestRepository) UpdateCreditRequestDecision(ctx context.Context, req *models.CreditRequest) error {
	req.UpdatedAt = time.Now().UTC()
	req.Status = req.Derive()
	const query = `UPDATE credit_requests SET
	poc_decision = :poc_decision, poc_decided_by = :poc_decided_by, poc_decided_at = :poc_decided_at,
	admin_decision = :admin_decision, admin_decided_by = :admin_decided_by, admin_decided_at = :admin_decided_at,
	declined_reason = :declined_reason, status = :status, updated_at = :updated_at
	WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, req); err != nil {
		return fmt.Errorf("update credit request decision: %w", err)
	}
	return nil
}

// DeleteCreditRequest removes a materialised request.
func (r *CreditRequestRepository) DeleteCreditRequest(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credit_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete credit request: %w", err)
	}
	return nil
}
