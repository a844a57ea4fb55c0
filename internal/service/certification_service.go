package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/dto"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

type claimStore interface {
	CreateClaim(ctx context.Context, claim *models.CertificationClaim) error
	GetClaim(ctx context.Context, id string) (*models.CertificationClaim, error)
	GetClaimOutcome(ctx context.Context, claimID string) (*models.ClaimOutcome, error)
	ListClaims(ctx context.Context, filter models.ApprovalFilter) ([]models.CertificationClaim, int, error)
}

type certificateReader interface {
	GetCertificate(ctx context.Context, id string) (*models.Certificate, error)
}

// CertificationService runs the dual-approval workflow for qualification claims.
type CertificationService struct {
	workflowHooks
	claims       claimStore
	certificates certificateReader
	students     studentReader
	ledger       ledgerRunner
	catalog      *UmbrellaCatalog
	thresholds   *QualificationThresholds
	issuer       *CertificateIssuer
}

// NewCertificationService constructs the workflow.
func NewCertificationService(claims claimStore, certificates certificateReader, students studentReader, ledger ledgerRunner,
	catalog *UmbrellaCatalog, thresholds *QualificationThresholds, issuer *CertificateIssuer, opts ...WorkflowOption) *CertificationService {
	hooks := newWorkflowHooks(opts)
	if catalog == nil {
		catalog = NewUmbrellaCatalog(nil)
	}
	if issuer == nil {
		issuer = NewCertificateIssuer(hooks.logger)
	}
	issuer.now = hooks.now
	return &CertificationService{
		workflowHooks: hooks,
		claims:        claims,
		certificates:  certificates,
		students:      students,
		ledger:        ledger,
		catalog:       catalog,
		thresholds:    thresholds,
		issuer:        issuer,
	}
}

// SubmitClaim creates a pending claim when the umbrella balance already covers the qualification.
func (s *CertificationService) SubmitClaim(ctx context.Context, req dto.SubmitClaimRequest, actor *models.JWTClaims) (*models.CertificationClaim, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent && strings.TrimSpace(req.StudentID) == "" {
		req.StudentID = actor.UserID
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid claim payload")
	}
	if err := authorizeStudentAccess(actor, req.StudentID); err != nil {
		return nil, err
	}
	umbrella, ok := s.catalog.Normalize(req.Umbrella)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrValidation, req.Umbrella, "unknown umbrella")
	}
	qualification, ok := models.ParseQualification(req.Qualification)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrValidation, req.Qualification, "unknown qualification")
	}
	required, ok := s.thresholds.Required(umbrella, qualification)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrValidation, req.Qualification, "no credit threshold for qualification")
	}

	student, err := s.students.FindStudent(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, req.StudentID, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if balance := student.Balance(umbrella); !creditsCover(balance, required) {
		return nil, appErrors.WithResource(appErrors.ErrInsufficientCredits, student.ID,
			fmt.Sprintf("%s balance %g is below the %g credits required for %s", umbrella, balance, required, qualification))
	}

	claim := &models.CertificationClaim{
		StudentID:       student.ID,
		UmbrellaKey:     umbrella,
		Qualification:   qualification,
		RequiredCredits: required,
		SubmittedBy:     actor.UserID,
		CreatedAt:       s.now(),
	}
	if err := s.claims.CreateClaim(ctx, claim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create claim")
	}

	s.logger.Info("claim submitted",
		zap.String("claim_id", claim.ID),
		zap.String("student_id", claim.StudentID),
		zap.String("umbrella", umbrella),
		zap.String("qualification", string(qualification)))
	s.afterCommit(ctx, claim.StudentID, false, []models.Event{
		s.event(models.EventClaimSubmitted, claim.StudentID, umbrella, claim.ID, nil,
			map[string]interface{}{"qualification": qualification, "requiredCredits": required}),
	})
	return claim, nil
}

// Decide records one reviewer's verdict on a claim. The approval completing the pair
// re-checks the balance and issues the certificate in the same transaction.
func (s *CertificationService) Decide(ctx context.Context, id string, reviewer models.Reviewer, req dto.DecisionRequest) (*dto.ClaimDecisionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision payload")
	}
	approve := *req.Approve

	var (
		result    dto.ClaimDecisionResult
		events    []models.Event
		studentID string
		issued    bool
	)
	err := s.inTx(ctx, s.ledger, "decide_claim", func(ctx context.Context, tx repository.LedgerTx) error {
		result, events, issued = dto.ClaimDecisionResult{}, nil, false

		current, err := tx.GetClaim(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return s.concluded(ctx, tx, id, reviewer, approve, &result)
		}
		if err != nil {
			return err
		}
		if !reviewer.CanReview(current.UmbrellaKey) {
			return appErrors.WithResource(appErrors.ErrForbidden, id, "umbrella outside reviewer scope")
		}

		student, err := tx.LockStudent(ctx, current.StudentID)
		if err != nil {
			return err
		}
		claim, err := tx.GetClaimForUpdate(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return s.concluded(ctx, tx, id, reviewer, approve, &result)
		}
		if err != nil {
			return err
		}
		studentID = claim.StudentID

		effect, err := evaluateDecision(claim.Approval, reviewer.Role, approve, id)
		if err != nil {
			return err
		}
		switch effect {
		case decisionNoop:
			result.Claim, result.NoOp = claim, true
			return nil
		case decisionRecord:
			claim.Record(reviewer.Role, approve, reviewer.UserID, s.now(), req.Reason)
			result.Claim = claim
			if approve {
				if err := tx.UpdateClaimDecision(ctx, claim); err != nil {
					return err
				}
				events = append(events, s.event(models.EventClaimPOCApproved, claim.StudentID, claim.UmbrellaKey, claim.ID, &reviewer, nil))
				return nil
			}
			outcome := s.outcome(claim, reviewer, nil)
			if err := s.conclude(ctx, tx, claim, outcome); err != nil {
				return err
			}
			result.Outcome = outcome
			events = append(events, s.event(models.EventClaimDeclined, claim.StudentID, claim.UmbrellaKey, claim.ID, &reviewer,
				map[string]interface{}{"status": claim.Status, "reason": req.Reason}))
			return nil
		}

		if balance := student.Balance(claim.UmbrellaKey); !creditsCover(balance, claim.RequiredCredits) {
			return appErrors.WithResource(appErrors.ErrInsufficientCredits, id,
				fmt.Sprintf("%s balance %g is below the %g credits required", claim.UmbrellaKey, balance, claim.RequiredCredits))
		}
		claim.Record(reviewer.Role, approve, reviewer.UserID, s.now(), "")
		issuance, err := s.issuer.Issue(ctx, tx, student, claim)
		if err != nil {
			return err
		}
		outcome := s.outcome(claim, reviewer, &issuance.Certificate.ID)
		if err := s.conclude(ctx, tx, claim, outcome); err != nil {
			return err
		}
		result.Claim, result.Outcome = claim, outcome
		result.Certificate, result.Mapping, result.Finalized = issuance.Certificate, issuance.Mapping, true
		issued = true
		events = append(events, s.event(models.EventCertificateIssued, claim.StudentID, claim.UmbrellaKey, claim.ID, &reviewer,
			map[string]interface{}{
				"certificateId":   issuance.Certificate.ID,
				"certificateNo":   issuance.Certificate.CertificateNo,
				"creditsConsumed": claim.RequiredCredits,
				"balance":         issuance.Balance,
			}))
		return nil
	})
	if err != nil {
		s.metrics.RecordDecision("claim", string(reviewer.Role), "error")
		return nil, ledgerError(err, id, "decide claim")
	}

	outcome := "recorded"
	switch {
	case result.NoOp:
		outcome = "noop"
	case issued:
		outcome = "finalized"
		s.metrics.AddCreditsConsumed(result.Certificate.UmbrellaKey, result.Certificate.CreditsConsumed)
	}
	s.metrics.RecordDecision("claim", string(reviewer.Role), outcome)
	s.afterCommit(ctx, studentID, issued, events)
	return &result, nil
}

func (s *CertificationService) outcome(claim *models.CertificationClaim, reviewer models.Reviewer, certificateID *string) *models.ClaimOutcome {
	return &models.ClaimOutcome{
		ClaimID:         claim.ID,
		StudentID:       claim.StudentID,
		UmbrellaKey:     claim.UmbrellaKey,
		Qualification:   claim.Qualification,
		RequiredCredits: claim.RequiredCredits,
		Status:          claim.Status,
		PocDecision:     claim.PocDecision,
		AdminDecision:   claim.AdminDecision,
		DecidedBy:       reviewer.UserID,
		DecidedRole:     reviewer.Role,
		DeclinedReason:  claim.DeclinedReason,
		CertificateID:   certificateID,
		DecidedAt:       s.now(),
	}
}

// conclude records the terminal snapshot and removes the transient claim.
func (s *CertificationService) conclude(ctx context.Context, tx repository.LedgerTx, claim *models.CertificationClaim, outcome *models.ClaimOutcome) error {
	if err := tx.InsertClaimOutcome(ctx, outcome); err != nil {
		return err
	}
	return tx.DeleteClaim(ctx, claim.ID)
}

// concluded resolves a decision on a claim that was already finalized or declined.
func (s *CertificationService) concluded(ctx context.Context, tx repository.LedgerTx, id string, reviewer models.Reviewer, approve bool, result *dto.ClaimDecisionResult) error {
	outcome, err := tx.GetClaimOutcome(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WithResource(appErrors.ErrNotFound, id, "claim not found")
	}
	if err != nil {
		return err
	}
	if !reviewer.CanReview(outcome.UmbrellaKey) {
		return appErrors.WithResource(appErrors.ErrForbidden, id, "umbrella outside reviewer scope")
	}
	effect, err := evaluateDecision(outcome.Approval(), reviewer.Role, approve, id)
	if err != nil {
		return err
	}
	if effect != decisionNoop {
		return appErrors.WithResource(appErrors.ErrStateConflict, id, fmt.Sprintf("claim already %s", outcome.Status))
	}
	result.Outcome, result.NoOp = outcome, true
	if outcome.Status == models.ApprovalApproved {
		cert, err := tx.GetCertificateByClaim(ctx, id)
		if err != nil {
			return err
		}
		result.Certificate, result.Finalized = cert, true
	}
	return nil
}

// GetClaim returns the live claim, or its recorded outcome once the claim has been concluded.
func (s *CertificationService) GetClaim(ctx context.Context, id string, actor *models.JWTClaims) (*models.ClaimView, error) {
	claim, err := s.claims.GetClaim(ctx, id)
	if err == nil {
		if err := s.authorizeClaim(actor, claim.StudentID, claim.UmbrellaKey); err != nil {
			return nil, err
		}
		return &models.ClaimView{Claim: claim}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}

	outcome, err := s.claims.GetClaimOutcome(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, id, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim outcome")
	}
	if err := s.authorizeClaim(actor, outcome.StudentID, outcome.UmbrellaKey); err != nil {
		return nil, err
	}
	view := &models.ClaimView{Outcome: outcome}
	if outcome.CertificateID != nil {
		cert, err := s.certificates.GetCertificate(ctx, *outcome.CertificateID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
		}
		view.Certificate = cert
	}
	return view, nil
}

func (s *CertificationService) authorizeClaim(actor *models.JWTClaims, studentID, umbrellaKey string) error {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return err
	}
	if reviewer, ok := models.ReviewerFromClaims(actor); ok && !reviewer.CanReview(umbrellaKey) {
		return appErrors.ErrForbidden
	}
	return nil
}

// ListClaims returns live claims visible to the actor.
func (s *CertificationService) ListClaims(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.CertificationClaim, *models.Pagination, error) {
	filter, err := buildApprovalFilter(s.catalog, query, actor)
	if err != nil {
		return nil, nil, err
	}
	claims, total, err := s.claims.ListClaims(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claims")
	}
	page, size := pageWindow(query.Page, query.PageSize)
	return claims, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Umbrellas lists the catalog with the effective thresholds of each umbrella.
func (s *CertificationService) Umbrellas() []dto.UmbrellaView {
	keys := s.catalog.List()
	views := make([]dto.UmbrellaView, 0, len(keys))
	for _, key := range keys {
		views = append(views, dto.UmbrellaView{
			Key:        key,
			Name:       strings.ReplaceAll(key, "_", " "),
			Thresholds: s.thresholds.ForUmbrella(key),
		})
	}
	return views
}
