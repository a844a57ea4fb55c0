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

type certificationService interface {
	SubmitClaim(ctx context.Context, req dto.SubmitClaimRequest, actor *models.JWTClaims) (*models.CertificationClaim, error)
	Decide(ctx context.Context, id string, reviewer models.Reviewer, req dto.DecisionRequest) (*dto.ClaimDecisionResult, error)
	GetClaim(ctx context.Context, id string, actor *models.JWTClaims) (*models.ClaimView, error)
	ListClaims(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.CertificationClaim, *models.Pagination, error)
	Umbrellas() []dto.UmbrellaView
}

// ClaimHandler exposes qualification claims.
type ClaimHandler struct {
	service certificationService
}

// NewClaimHandler builds a new handler.
func NewClaimHandler(service certificationService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// Submit godoc
// @Summary Claim a qualification
// @Tags Claims
// @Accept json
// @Produce json
// @Param payload body dto.SubmitClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /claims [post]
func (h *ClaimHandler) Submit(c *gin.Context) {
	var req dto.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid claim payload"))
		return
	}
	claim, err := h.service.SubmitClaim(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

// Decide godoc
// @Summary Record a POC or Admin decision on a claim
// @Description The second approval consumes credits and issues the certificate.
// @Tags Claims
// @Accept json
// @Produce json
// @Param id path string true "Claim ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /claims/{id}/decision [post]
func (h *ClaimHandler) Decide(c *gin.Context) {
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
// @Summary Get claim or its outcome
// @Tags Claims
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	view, err := h.service.GetClaim(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// List godoc
// @Summary List pending claims
// @Tags Claims
// @Produce json
// @Param queue query string false "Review queue (poc or admin)"
// @Param umbrella query string false "Umbrella"
// @Param studentId query string false "Student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	claims, pagination, err := h.service.ListClaims(c.Request.Context(), approvalQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, pagination)
}

// Umbrellas godoc
// @Summary List umbrellas and qualification thresholds
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /umbrellas [get]
func (h *ClaimHandler) Umbrellas(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Umbrellas(), nil)
}
