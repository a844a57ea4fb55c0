package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

type decisionEffect int

const (
	decisionNoop decisionEffect = iota
	decisionRecord
	decisionFinalize
)

// evaluateDecision applies the two-of-two rules to a pending or declined record.
func evaluateDecision(a models.Approval, role models.ReviewerRole, approve bool, resourceID string) (decisionEffect, error) {
	if current := a.DecisionOf(role); current != nil {
		if *current == approve {
			return decisionNoop, nil
		}
		return decisionNoop, appErrors.WithResource(appErrors.ErrStateConflict, resourceID,
			fmt.Sprintf("%s already %s", role, verdict(*current)))
	}
	if a.Derive().Terminal() {
		return decisionNoop, appErrors.WithResource(appErrors.ErrStateConflict, resourceID, "already declined")
	}
	if role == models.ReviewerAdmin && !a.PocApproved() {
		return decisionNoop, appErrors.WithResource(appErrors.ErrStateConflict, resourceID, "awaiting POC approval")
	}
	if !approve {
		return decisionRecord, nil
	}
	other := models.ReviewerAdmin
	if role == models.ReviewerAdmin {
		other = models.ReviewerPOC
	}
	if decision := a.DecisionOf(other); decision != nil && *decision {
		return decisionFinalize, nil
	}
	return decisionRecord, nil
}

func verdict(approved bool) string {
	if approved {
		return "approved"
	}
	return "declined"
}

type eventNotifier interface {
	Notify(ctx context.Context, events ...models.Event)
}

type balanceInvalidator interface {
	InvalidateBalance(ctx context.Context, studentID string)
}

type ledgerRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error
}

type studentReader interface {
	FindStudent(ctx context.Context, id string) (*models.Student, error)
}

// workflowHooks carries the side-effect collaborators shared by both workflows.
type workflowHooks struct {
	logger    *zap.Logger
	validator *validator.Validate
	notifier  eventNotifier
	balances  balanceInvalidator
	metrics   *MetricsService
	now       func() time.Time
}

// WorkflowOption configures CreditRequestService and CertificationService.
type WorkflowOption func(*workflowHooks)

// WithWorkflowLogger sets the logger.
func WithWorkflowLogger(logger *zap.Logger) WorkflowOption {
	return func(h *workflowHooks) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithWorkflowValidator overrides the payload validator.
func WithWorkflowValidator(validate *validator.Validate) WorkflowOption {
	return func(h *workflowHooks) {
		if validate != nil {
			h.validator = validate
		}
	}
}

// WithWorkflowNotifier publishes committed transitions.
func WithWorkflowNotifier(notifier eventNotifier) WorkflowOption {
	return func(h *workflowHooks) { h.notifier = notifier }
}

// WithBalanceInvalidator drops cached balances after a committed ledger change.
func WithBalanceInvalidator(balances balanceInvalidator) WorkflowOption {
	return func(h *workflowHooks) { h.balances = balances }
}

// WithWorkflowMetrics records decision counters.
func WithWorkflowMetrics(metrics *MetricsService) WorkflowOption {
	return func(h *workflowHooks) { h.metrics = metrics }
}

// WithWorkflowClock overrides time.Now, mainly for tests.
func WithWorkflowClock(now func() time.Time) WorkflowOption {
	return func(h *workflowHooks) {
		if now != nil {
			h.now = now
		}
	}
}

func newWorkflowHooks(opts []WorkflowOption) workflowHooks {
	h := workflowHooks{
		logger:    zap.NewNop(),
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&h)
		}
	}
	return h
}

// afterCommit runs the non-transactional side effects of a committed change.
func (h workflowHooks) afterCommit(ctx context.Context, studentID string, ledgerChanged bool, events []models.Event) {
	if ledgerChanged && h.balances != nil {
		h.balances.InvalidateBalance(ctx, studentID)
	}
	if len(events) > 0 && h.notifier != nil {
		h.notifier.Notify(ctx, events...)
	}
}

func (h workflowHooks) event(kind models.EventType, studentID, umbrellaKey, resourceID string, reviewer *models.Reviewer, payload map[string]interface{}) models.Event {
	evt := models.Event{
		Type:        kind,
		StudentID:   studentID,
		UmbrellaKey: umbrellaKey,
		ResourceID:  resourceID,
		Payload:     payload,
		OccurredAt:  h.now(),
	}
	if reviewer != nil {
		evt.ActorID = reviewer.UserID
		evt.ActorRole = reviewer.Role
	}
	return evt
}

func (h workflowHooks) inTx(ctx context.Context, ledger ledgerRunner, operation string, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	start := time.Now()
	err := ledger.InTx(ctx, fn)
	h.metrics.ObserveLedgerTx(operation, time.Since(start))
	return err
}

// ledgerError normalises errors escaping a ledger transaction.
func ledgerError(err error, resourceID, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrConcurrentUpdate) {
		return appErrors.WithResource(appErrors.ErrConcurrency, resourceID, "")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
	wrapped.ResourceID = resourceID
	return wrapped
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// authorizeStudentAccess lets students see only their own records.
func authorizeStudentAccess(actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleSuperAdmin, models.RolePOC:
		return nil
	case models.RoleStudent:
		if actor.UserID == studentID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

// reviewerFilter scopes listings to what the actor may see.
func reviewerFilter(actor *models.JWTClaims, filter *models.ApprovalFilter) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
	case models.RolePOC:
		if len(actor.Umbrellas) == 0 {
			return appErrors.WithResource(appErrors.ErrForbidden, actor.UserID, "POC has no umbrella assignment")
		}
		filter.Umbrellas = actor.Umbrellas
	case models.RoleStudent:
		if filter.Queue != "" {
			return appErrors.ErrForbidden
		}
		filter.StudentID = actor.UserID
	default:
		return appErrors.ErrForbidden
	}
	return nil
}

func pageWindow(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}
