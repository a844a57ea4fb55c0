package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

type ledgerServiceMock struct {
	umbrella string
}

func (m *ledgerServiceMock) GetBalances(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.BalanceSummary, error) {
	return &models.BalanceSummary{StudentID: studentID, TotalCredits: 4, Balances: map[string]float64{"Cyber_Security": 4}}, nil
}

func (m *ledgerServiceMock) GetBalance(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) (*models.UmbrellaBalance, error) {
	m.umbrella = umbrella
	return &models.UmbrellaBalance{StudentID: studentID, UmbrellaKey: "Cyber_Security", Credits: 4}, nil
}

func (m *ledgerServiceMock) ListCourseHistory(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) ([]models.CourseHistoryEntry, error) {
	return []models.CourseHistoryEntry{{ID: "entry-1", CreditsEarned: 4}}, nil
}

func (m *ledgerServiceMock) ListCertificates(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Certificate, error) {
	return []models.Certificate{}, nil
}

func (m *ledgerServiceMock) GetCertificate(ctx context.Context, id string, actor *models.JWTClaims) (*models.CertificateDetail, error) {
	if id != "cert-1" {
		return nil, appErrors.WithResource(appErrors.ErrNotFound, id, "certificate not found")
	}
	return &models.CertificateDetail{Certificate: models.Certificate{ID: id, CertificateNo: "rru_Cyber_Security_1"}}, nil
}

func (m *ledgerServiceMock) RenderCertificatePDF(ctx context.Context, id string, actor *models.JWTClaims) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "rru_Cyber_Security_1.pdf", nil
}

func TestLedgerHandlerBalance(t *testing.T) {
	mock := &ledgerServiceMock{}
	handler := NewLedgerHandler(mock)
	actor := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}

	c, w := jsonContext(t, http.MethodGet, "/students/student-1/balance", nil, actor)
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}
	handler.Balance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCredits":4`)
	assert.Empty(t, mock.umbrella)

	c, w = jsonContext(t, http.MethodGet, "/students/student-1/balance?umbrella=cyber%20security", nil, actor)
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}
	handler.Balance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cyber security", mock.umbrella)
	assert.Contains(t, w.Body.String(), `"umbrellaKey":"Cyber_Security"`)
}

func TestLedgerHandlerCertificate(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceMock{})
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

	c, w := jsonContext(t, http.MethodGet, "/certificates/cert-2", nil, actor)
	c.Params = gin.Params{{Key: "id", Value: "cert-2"}}
	handler.Certificate(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = jsonContext(t, http.MethodGet, "/certificates/cert-1/pdf", nil, actor)
	c.Params = gin.Params{{Key: "id", Value: "cert-1"}}
	handler.CertificatePDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rru_Cyber_Security_1.pdf")
}
