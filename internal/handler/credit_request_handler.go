package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thethakurshivam/grs-sub003/internal/dto"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
	"github.com/thethakurshivam/grs-sub003/pkg/response"
)

type creditRequestService interface {
	Submit(ctx context.Context, req dto.SubmitCreditRequest, actor *models.JWTClaims) (*models.CreditRequest, error)
	Decide(ctx context.Context, id string, reviewer models.Reviewer, req dto.DecisionRequest) (*dto.CreditRequestDecisionResult, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.CreditRequest, error)
	List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.CreditRequest, *models.Pagination, error)
}

// CreditRequestHandler exposes the course credit approval workflow.
type CreditRequestHandler struct {
	service creditRequestService
}

// NewCreditRequestHandler builds a new handler.
func NewCreditRequestHandler(service creditRequestService) *CreditRequestHandler {
	return &CreditRequestHandler{service: service}
}

// Submit godoc
// @Summary Submit a course for credit
// @Tags Credit Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitCreditRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /credit-requests [post]
func (h *CreditRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid credit request payload"))
		return
	}
	request, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Decide godoc
// @Summary Record a POC or Admin decision
// @Description The second approval posts the credits to the student's ledger.
// @Tags Credit Requests
// @Accept json
// @Produce json
// @Param id path string true "Credit request ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /credit-requests/{id}/decision [post]
func (h *CreditRequestHandler) Decide(c *gin.Context) {
	reviewer, err := reviewerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	result, err := h.service.Decide(c.Request.Context(), c.Param("id"), reviewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get credit request
// @Tags Credit Requests
// @Produce json
// @Param id path string true "Credit request ID"
// @Success 200 {object} response.Envelope
// @Router /credit-requests/{id} [get]
func (h *CreditRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// List godoc
// @Summary List credit requests
// @Tags Credit Requests
// @Produce json
// @Param queue query string false "Review queue (poc or admin)"
// @Param umbrella query string false "Umbrella"
// @Param studentId query string false "Student"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /credit-requests [get]
func (h *CreditRequestHandler) List(c *gin.Context) {
	requests, pagination, err := h.service.List(c.Request.Context(), approvalQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}
