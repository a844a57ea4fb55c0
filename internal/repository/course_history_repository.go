package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// ErrAlreadyContributed is returned when an entry was consumed by another certificate.
var ErrAlreadyContributed = errors.New("course history entry already contributed")

// CourseHistoryRepository persists the append-only course history.
type CourseHistoryRepository struct {
	db sqlx.ExtContext
}

// NewCourseHistoryRepository constructs the repository.
func NewCourseHistoryRepository(db *sqlx.DB) *CourseHistoryRepository {
	return &CourseHistoryRepository{db: db}
}

const courseHistoryColumns = `id, seq, student_id, umbrella_key, name, organization, theory_hours, practical_hours,
       theory_credits, practical_credits, credits_earned, running_count, source_request_id,
       certificate_contributed, contributed_certificate_id, credits_contributed, is_remaining_split,
       original_entry_id, earned_at, created_at`

// LatestRunningCount returns the running count of the newest entry for the student and umbrella.
func (r *CourseHistoryRepository) LatestRunningCount(ctx context.Context, studentID, umbrellaKey string) (float64, error) {
	const query = `SELECT running_count FROM course_history
	WHERE student_id = $1 AND umbrella_key = $2 ORDER BY seq DESC LIMIT 1`
	var count float64
	if err := sqlx.GetContext(ctx, r.db, &count, query, studentID, umbrellaKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("latest running count: %w", err)
	}
	return count, nil
}

// InsertCourseHistory appends an entry. seq is assigned by the database.
func (r *CourseHistoryRepository) InsertCourseHistory(ctx context.Context, entry *models.CourseHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.EarnedAt.IsZero() {
		entry.EarnedAt = entry.CreatedAt
	}
	const query = `INSERT INTO course_history
	(id, student_id, umbrella_key, name, organization, theory_hours, practical_hours, theory_credits, practical_credits,
	 credits_earned, running_count, source_request_id, certificate_contributed, contributed_certificate_id,
	 credits_contributed, is_remaining_split, original_entry_id, earned_at, created_at)
	VALUES (:id, :student_id, :umbrella_key, :name, :organization, :theory_hours, :practical_hours, :theory_credits,
	 :practical_credits, :credits_earned, :running_count, :source_request_id, :certificate_contributed,
	 :contributed_certificate_id, :credits_contributed, :is_remaining_split, :original_entry_id, :earned_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, entry); err != nil {
		return fmt.Errorf("insert course history: %w", err)
	}
	return nil
}

// FindBySourceRequest returns the entry materialised from a credit request.
func (r *CourseHistoryRepository) FindBySourceRequest(ctx context.Context, requestID string) (*models.CourseHistoryEntry, error) {
	query := `SELECT ` + courseHistoryColumns + ` FROM course_history WHERE source_request_id = $1`
	var entry models.CourseHistoryEntry
	if err := sqlx.GetContext(ctx, r.db, &entry, query, requestID); err != nil {
		return nil, err
	}
	entry.Hydrate()
	return &entry, nil
}

// ListAvailableForUpdate returns unconsumed entries oldest first and locks them.
func (r *CourseHistoryRepository) ListAvailableForUpdate(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error) {
	query := `SELECT ` + courseHistoryColumns + ` FROM course_history
	WHERE student_id = $1 AND umbrella_key = $2 AND certificate_contributed = false
	ORDER BY earned_at ASC, seq ASC FOR UPDATE`
	var entries []models.CourseHistoryEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, studentID, umbrellaKey); err != nil {
		return nil, fmt.Errorf("list available course history: %w", err)
	}
	return entries, nil
}

// MarkContributed records that certificateID consumed credits of the entry.
func (r *CourseHistoryRepository) MarkContributed(ctx context.Context, entryID, certificateID string, credits float64) error {
	const query = `UPDATE course_history
	SET certificate_contributed = true, contributed_certificate_id = $1, credits_contributed = $2
	WHERE id = $3 AND certificate_contributed = false`
	result, err := r.db.ExecContext(ctx, query, certificateID, credits, entryID)
	if err != nil {
		return fmt.Errorf("mark course history contributed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course history update rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyContributed, entryID)
	}
	return nil
}

// ListCourseHistory returns a student's entries in FIFO order, optionally for one umbrella.
func (r *CourseHistoryRepository) ListCourseHistory(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error) {
	query := `SELECT ` + courseHistoryColumns + ` FROM course_history WHERE student_id = $1`
	args := []interface{}{studentID}
	if umbrellaKey != "" {
		query += ` AND umbrella_key = $2`
		args = append(args, umbrellaKey)
	}
	query += ` ORDER BY umbrella_key, earned_at ASC, seq ASC`
	var entries []models.CourseHistoryEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list course history: %w", err)
	}
	for i := range entries {
		entries[i].Hydrate()
	}
	return entries, nil
}
