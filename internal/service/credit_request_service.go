package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/dto"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

type creditRequestStore interface {
	CreateCreditRequest(ctx context.Context, req *models.CreditRequest) error
	GetCreditRequest(ctx context.Context, id string) (*models.CreditRequest, error)
	ListCreditRequests(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditRequest, int, error)
}

// CreditRequestService runs the dual-approval workflow that turns course submissions into ledger credits.
type CreditRequestService struct {
	workflowHooks
	requests creditRequestStore
	students studentReader
	ledger   ledgerRunner
	catalog  *UmbrellaCatalog
}

// NewCreditRequestService constructs the workflow.
func NewCreditRequestService(requests creditRequestStore, students studentReader, ledger ledgerRunner, catalog *UmbrellaCatalog, opts ...WorkflowOption) *CreditRequestService {
	if catalog == nil {
		catalog = NewUmbrellaCatalog(nil)
	}
	return &CreditRequestService{
		workflowHooks: newWorkflowHooks(opts),
		requests:      requests,
		students:      students,
		ledger:        ledger,
		catalog:       catalog,
	}
}

// Submit validates a course submission and stores it awaiting both approvals.
func (s *CreditRequestService) Submit(ctx context.Context, req dto.SubmitCreditRequest, actor *models.JWTClaims) (*models.CreditRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent && strings.TrimSpace(req.StudentID) == "" {
		req.StudentID = actor.UserID
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid credit request payload")
	}
	if err := authorizeStudentAccess(actor, req.StudentID); err != nil {
		return nil, err
	}
	umbrella, ok := s.catalog.Normalize(req.Umbrella)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrValidation, req.Umbrella, "unknown umbrella")
	}
	if req.TheoryHours+req.PracticalHours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "theory or practical hours must be greater than zero")
	}
	if _, err := s.students.FindStudent(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, req.StudentID, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	credits := CalculateCredits(req.TheoryHours, req.PracticalHours)
	request := &models.CreditRequest{
		StudentID:         req.StudentID,
		UmbrellaKey:       umbrella,
		Organization:      strings.TrimSpace(req.Organization),
		CourseName:        strings.TrimSpace(req.CourseName),
		TheoryHours:       req.TheoryHours,
		PracticalHours:    req.PracticalHours,
		TotalHours:        req.TheoryHours + req.PracticalHours,
		NoOfDays:          req.NoOfDays,
		CalculatedCredits: credits.Total,
		DocumentRef:       strings.TrimSpace(req.DocumentRef),
		SubmittedBy:       actor.UserID,
		CreatedAt:         s.now(),
	}
	if err := s.requests.CreateCreditRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create credit request")
	}

	s.logger.Info("credit request submitted",
		zap.String("request_id", request.ID),
		zap.String("student_id", request.StudentID),
		zap.String("umbrella", umbrella),
		zap.Float64("credits", credits.Total))
	s.afterCommit(ctx, request.StudentID, false, []models.Event{
		s.event(models.EventCreditRequestSubmitted, request.StudentID, umbrella, request.ID, nil,
			map[string]interface{}{"calculatedCredits": credits.Total}),
	})
	return request, nil
}

// Decide records one reviewer's verdict. The approval that completes the pair
// materialises the request into course history and the ledger in the same transaction.
func (s *CreditRequestService) Decide(ctx context.Context, id string, reviewer models.Reviewer, req dto.DecisionRequest) (*dto.CreditRequestDecisionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision payload")
	}
	approve := *req.Approve

	var (
		result    dto.CreditRequestDecisionResult
		events    []models.Event
		studentID string
	)
	err := s.inTx(ctx, s.ledger, "decide_credit_request", func(ctx context.Context, tx repository.LedgerTx) error {
		result, events = dto.CreditRequestDecisionResult{}, nil

		current, err := tx.GetCreditRequest(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return s.materialized(ctx, tx, id, approve, &result)
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
		request, err := tx.GetCreditRequestForUpdate(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return s.materialized(ctx, tx, id, approve, &result)
		}
		if err != nil {
			return err
		}
		studentID = request.StudentID

		effect, err := evaluateDecision(request.Approval, reviewer.Role, approve, id)
		if err != nil {
			return err
		}
		switch effect {
		case decisionNoop:
			result.Request, result.NoOp = request, true
			return nil
		case decisionRecord:
			request.Record(reviewer.Role, approve, reviewer.UserID, s.now(), req.Reason)
			if err := tx.UpdateCreditRequestDecision(ctx, request); err != nil {
				return err
			}
			result.Request = request
			kind := models.EventCreditRequestPOCApproved
			if !approve {
				kind = models.EventCreditRequestDeclined
			}
			events = append(events, s.event(kind, request.StudentID, request.UmbrellaKey, request.ID, &reviewer,
				map[string]interface{}{"status": request.Status, "reason": req.Reason}))
			return nil
		}

		request.Record(reviewer.Role, approve, reviewer.UserID, s.now(), "")
		entry, err := s.materialize(ctx, tx, student, request)
		if err != nil {
			return err
		}
		result.Request, result.Entry, result.Finalized = request, entry, true
		events = append(events, s.event(models.EventCreditRequestApproved, request.StudentID, request.UmbrellaKey, request.ID, &reviewer,
			map[string]interface{}{"courseHistoryEntryId": entry.ID, "creditsEarned": entry.CreditsEarned}))
		return nil
	})
	if err != nil {
		s.metrics.RecordDecision("credit_request", string(reviewer.Role), "error")
		return nil, ledgerError(err, id, "decide credit request")
	}

	outcome := "recorded"
	switch {
	case result.NoOp:
		outcome = "noop"
	case result.Finalized:
		outcome = "finalized"
		s.metrics.AddCreditsPosted(result.Entry.UmbrellaKey, result.Entry.CreditsEarned)
		s.logger.Info("credit request finalized",
			zap.String("request_id", id),
			zap.String("student_id", studentID),
			zap.String("entry_id", result.Entry.ID),
			zap.Float64("credits", result.Entry.CreditsEarned))
	}
	s.metrics.RecordDecision("credit_request", string(reviewer.Role), outcome)
	s.afterCommit(ctx, studentID, result.Finalized && !result.NoOp, events)
	return &result, nil
}

// materialize posts the request's credits. Order matters: ledger, history, then the request row.
func (s *CreditRequestService) materialize(ctx context.Context, tx repository.LedgerTx, student *models.Student, request *models.CreditRequest) (*models.CourseHistoryEntry, error) {
	credits := CalculateCredits(request.TheoryHours, request.PracticalHours)
	balance := student.Balance(request.UmbrellaKey) + credits.Total
	total := student.TotalCredits + credits.Total
	if err := tx.SaveBalance(ctx, student.ID, request.UmbrellaKey, balance, total); err != nil {
		return nil, err
	}

	latest, err := tx.LatestRunningCount(ctx, student.ID, request.UmbrellaKey)
	if err != nil {
		return nil, err
	}
	sourceID := request.ID
	entry := &models.CourseHistoryEntry{
		StudentID:        student.ID,
		UmbrellaKey:      request.UmbrellaKey,
		Name:             request.CourseName,
		Organization:     request.Organization,
		TheoryHours:      request.TheoryHours,
		PracticalHours:   request.PracticalHours,
		TheoryCredits:    credits.Theory,
		PracticalCredits: credits.Practical,
		CreditsEarned:    credits.Total,
		RunningCount:     latest + credits.Total,
		SourceRequestID:  &sourceID,
		EarnedAt:         s.now(),
	}
	if err := tx.InsertCourseHistory(ctx, entry); err != nil {
		return nil, err
	}
	if err := tx.DeleteCreditRequest(ctx, request.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// materialized resolves a decision on a request that no longer exists.
func (s *CreditRequestService) materialized(ctx context.Context, tx repository.LedgerTx, id string, approve bool, result *dto.CreditRequestDecisionResult) error {
	entry, err := tx.FindBySourceRequest(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WithResource(appErrors.ErrNotFound, id, "credit request not found")
	}
	if err != nil {
		return err
	}
	if !approve {
		return appErrors.WithResource(appErrors.ErrStateConflict, id, "already approved")
	}
	result.Entry, result.Finalized, result.NoOp = entry, true, true
	return nil
}

// Get returns a live or declined request.
func (s *CreditRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.CreditRequest, error) {
	request, err := s.requests.GetCreditRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithResource(appErrors.ErrNotFound, id, "credit request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credit request")
	}
	if err := authorizeStudentAccess(actor, request.StudentID); err != nil {
		return nil, err
	}
	if reviewer, ok := models.ReviewerFromClaims(actor); ok && !reviewer.CanReview(request.UmbrellaKey) {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// List returns requests visible to the actor, optionally restricted to a review queue.
func (s *CreditRequestService) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.CreditRequest, *models.Pagination, error) {
	filter, err := buildApprovalFilter(s.catalog, query, actor)
	if err != nil {
		return nil, nil, err
	}
	requests, total, err := s.requests.ListCreditRequests(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list credit requests")
	}
	page, size := pageWindow(query.Page, query.PageSize)
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func buildApprovalFilter(catalog *UmbrellaCatalog, query dto.ApprovalQuery, actor *models.JWTClaims) (models.ApprovalFilter, error) {
	page, size := pageWindow(query.Page, query.PageSize)
	filter := models.ApprovalFilter{
		Queue:     query.Queue,
		StudentID: query.StudentID,
		Status:    query.Status,
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	switch filter.Queue {
	case "", models.QueuePOC, models.QueueAdmin:
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "queue must be poc or admin")
	}
	if query.Umbrella != "" {
		umbrella, ok := catalog.Normalize(query.Umbrella)
		if !ok {
			return filter, appErrors.WithResource(appErrors.ErrValidation, query.Umbrella, "unknown umbrella")
		}
		filter.UmbrellaKey = umbrella
	}
	if err := reviewerFilter(actor, &filter); err != nil {
		return filter, err
	}
	return filter, nil
}
