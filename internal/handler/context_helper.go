package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thethakurshivam/grs-sub003/internal/dto"
	"github.com/thethakurshivam/grs-sub003/internal/middleware"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// reviewerFromContext resolves the caller as a POC or Admin reviewer.
func reviewerFromContext(c *gin.Context) (models.Reviewer, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Reviewer{}, appErrors.ErrUnauthorized
	}
	reviewer, ok := models.ReviewerFromClaims(claims)
	if !ok {
		return models.Reviewer{}, appErrors.Clone(appErrors.ErrForbidden, "only POC and Admin reviewers may decide")
	}
	return reviewer, nil
}

func approvalQueryFromContext(c *gin.Context) dto.ApprovalQuery {
	query := dto.ApprovalQuery{
		Queue:     models.ReviewQueue(strings.ToLower(strings.TrimSpace(c.Query("queue")))),
		StudentID: strings.TrimSpace(c.Query("studentId")),
		Umbrella:  strings.TrimSpace(c.Query("umbrella")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			if status = strings.TrimSpace(status); status != "" {
				query.Status = append(query.Status, models.ApprovalStatus(status))
			}
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		query.PageSize = size
	}
	return query
}
