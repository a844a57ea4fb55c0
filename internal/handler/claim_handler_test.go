package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thethakurshivam/grs-sub003/internal/dto"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

type certificationServiceMock struct {
	submitErr error
	view      *models.ClaimView
}

func (m *certificationServiceMock) SubmitClaim(ctx context.Context, req dto.SubmitClaimRequest, actor *models.JWTClaims) (*models.CertificationClaim, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &models.CertificationClaim{ID: "claim-1", UmbrellaKey: req.Umbrella, RequiredCredits: 20}, nil
}

func (m *certificationServiceMock) Decide(ctx context.Context, id string, reviewer models.Reviewer, req dto.DecisionRequest) (*dto.ClaimDecisionResult, error) {
	cert := &models.Certificate{ID: "cert-1", CertificateNo: "rru_Cyber_Security_1"}
	return &dto.ClaimDecisionResult{Certificate: cert, Finalized: true}, nil
}

func (m *certificationServiceMock) GetClaim(ctx context.Context, id string, actor *models.JWTClaims) (*models.ClaimView, error) {
	if m.view == nil {
		return nil, appErrors.WithResource(appErrors.ErrNotFound, id, "claim not found")
	}
	return m.view, nil
}

func (m *certificationServiceMock) ListClaims(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.CertificationClaim, *models.Pagination, error) {
	return []models.CertificationClaim{}, &models.Pagination{Page: 1, PageSize: 50}, nil
}

func (m *certificationServiceMock) Umbrellas() []dto.UmbrellaView {
	return []dto.UmbrellaView{{Key: "Cyber_Security", Name: "Cyber Security", Thresholds: map[string]float64{"certificate": 20}}}
}

func TestClaimHandlerSubmitInsufficientCredits(t *testing.T) {
	mock := &certificationServiceMock{submitErr: appErrors.WithResource(appErrors.ErrInsufficientCredits, "student-1", "balance too low")}
	handler := NewClaimHandler(mock)
	c, w := jsonContext(t, http.MethodPost, "/claims", dto.SubmitClaimRequest{Umbrella: "Cyber_Security", Qualification: "diploma"},
		&models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Submit(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_CREDITS")
}

func TestClaimHandlerDecideIssuesCertificate(t *testing.T) {
	handler := NewClaimHandler(&certificationServiceMock{})
	c, w := jsonContext(t, http.MethodPost, "/claims/claim-1/decision", map[string]interface{}{"approve": true},
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "claim-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rru_Cyber_Security_1")
}

func TestClaimHandlerDecideMissingVerdict(t *testing.T) {
	handler := NewClaimHandler(&certificationServiceMock{})
	c, w := jsonContext(t, http.MethodPost, "/claims/claim-1/decision", "{", &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Decide(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimHandlerGet(t *testing.T) {
	certID := "cert-1"
	mock := &certificationServiceMock{view: &models.ClaimView{Outcome: &models.ClaimOutcome{ClaimID: "claim-1", Status: models.ApprovalApproved, CertificateID: &certID}}}
	handler := NewClaimHandler(mock)
	c, w := jsonContext(t, http.MethodGet, "/claims/claim-1", nil, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "claim-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"certificateId":"cert-1"`)

	handler = NewClaimHandler(&certificationServiceMock{})
	c, w = jsonContext(t, http.MethodGet, "/claims/missing", nil, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClaimHandlerUmbrellas(t *testing.T) {
	handler := NewClaimHandler(&certificationServiceMock{})
	c, w := jsonContext(t, http.MethodGet, "/umbrellas", nil, nil)

	handler.Umbrellas(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"Cyber_Security"`)
}
