package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// buildApprovalWhere translates an ApprovalFilter into a WHERE clause with positional args.
func buildApprovalWhere(filter models.ApprovalFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 5)

	switch filter.Queue {
	case models.QueuePOC:
		conditions = append(conditions, "status = 'pending' AND poc_decision IS NULL")
	case models.QueueAdmin:
		conditions = append(conditions, "status = 'pending' AND poc_decision = true AND admin_decision IS NULL")
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.UmbrellaKey != "" {
		args = append(args, filter.UmbrellaKey)
		conditions = append(conditions, fmt.Sprintf("umbrella_key = $%d", len(args)))
	}
	if len(filter.Umbrellas) > 0 {
		args = append(args, pq.Array(filter.Umbrellas))
		conditions = append(conditions, fmt.Sprintf("umbrella_key = ANY($%d)", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func pageBounds(filter models.ApprovalFilter) (int, int) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
