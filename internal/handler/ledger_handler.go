package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/pkg/response"
)

type ledgerService interface {
	GetBalances(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.BalanceSummary, error)
	GetBalance(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) (*models.UmbrellaBalance, error)
	ListCourseHistory(ctx context.Context, studentID, umbrella string, actor *models.JWTClaims) ([]models.CourseHistoryEntry, error)
	ListCertificates(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Certificate, error)
	GetCertificate(ctx context.Context, id string, actor *models.JWTClaims) (*models.CertificateDetail, error)
	RenderCertificatePDF(ctx context.Context, id string, actor *models.JWTClaims) ([]byte, string, error)
}

// LedgerHandler exposes balances, course history and certificates.
type LedgerHandler struct {
	service ledgerService
}

// NewLedgerHandler builds a new handler.
func NewLedgerHandler(service ledgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Balance godoc
// @Summary Get credit balance
// @Description Returns every umbrella balance, or one when umbrella is given.
// @Tags Ledger
// @Produce json
// @Param id path string true "Student ID"
// @Param umbrella query string false "Umbrella"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	studentID := c.Param("id")
	if umbrella := strings.TrimSpace(c.Query("umbrella")); umbrella != "" {
		balance, err := h.service.GetBalance(c.Request.Context(), studentID, umbrella, claimsFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, balance, nil)
		return
	}
	summary, err := h.service.GetBalances(c.Request.Context(), studentID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CourseHistory godoc
// @Summary List course history
// @Tags Ledger
// @Produce json
// @Param id path string true "Student ID"
// @Param umbrella query string false "Umbrella"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/course-history [get]
func (h *LedgerHandler) CourseHistory(c *gin.Context) {
	entries, err := h.service.ListCourseHistory(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("umbrella")), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Certificates godoc
// @Summary List a student's certificates
// @Tags Certificates
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/certificates [get]
func (h *LedgerHandler) Certificates(c *gin.Context) {
	certs, err := h.service.ListCertificates(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// Certificate godoc
// @Summary Get certificate with course attribution
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *LedgerHandler) Certificate(c *gin.Context) {
	detail, err := h.service.GetCertificate(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CertificatePDF godoc
// @Summary Download certificate as PDF
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Certificate ID"
// @Success 200 {file} binary
// @Router /certificates/{id}/pdf [get]
func (h *LedgerHandler) CertificatePDF(c *gin.Context) {
	body, filename, err := h.service.RenderCertificatePDF(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, "application/pdf", filename, body)
}
