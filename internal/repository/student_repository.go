package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// StudentRepository reads students and owns the credit ledger columns.
type StudentRepository struct {
	db sqlx.ExtContext
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const selectStudent = `SELECT id, full_name, email, total_credits, updated_at FROM students WHERE id = $1`

// FindStudent loads a student with every umbrella balance.
func (r *StudentRepository) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	return r.loadStudent(ctx, selectStudent, id)
}

// LockStudent loads a student and holds its row lock until the transaction ends.
// Every ledger mutation for the student is serialised behind this lock.
func (r *StudentRepository) LockStudent(ctx context.Context, id string) (*models.Student, error) {
	return r.loadStudent(ctx, selectStudent+" FOR UPDATE", id)
}

func (r *StudentRepository) loadStudent(ctx context.Context, query, id string) (*models.Student, error) {
	var student models.Student
	if err := sqlx.GetContext(ctx, r.db, &student, query, id); err != nil {
		return nil, err
	}
	balances, err := r.ListBalances(ctx, id)
	if err != nil {
		return nil, err
	}
	student.CreditBalances = make(map[string]float64, len(balances))
	for _, b := range balances {
		student.CreditBalances[b.UmbrellaKey] = b.Credits
	}
	return &student, nil
}

// ListBalances returns the per-umbrella balance rows of a student.
func (r *StudentRepository) ListBalances(ctx context.Context, studentID string) ([]models.CreditBalanceRow, error) {
	const query = `SELECT student_id, umbrella_key, credits FROM student_credit_balances
	WHERE student_id = $1 ORDER BY umbrella_key`
	var rows []models.CreditBalanceRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list credit balances: %w", err)
	}
	return rows, nil
}

// SaveBalance writes the umbrella balance and the running total. Callers must hold LockStudent.
func (r *StudentRepository) SaveBalance(ctx context.Context, studentID, umbrellaKey string, credits, total float64) error {
	now := time.Now().UTC()
	const upsert = `INSERT INTO student_credit_balances (student_id, umbrella_key, credits, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (student_id, umbrella_key) DO UPDATE SET credits = EXCLUDED.credits, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, upsert, studentID, umbrellaKey, credits, now); err != nil {
		return fmt.Errorf("save credit balance: %w", err)
	}
	const updateTotal = `UPDATE students SET total_credits = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, updateTotal, total, now, studentID); err != nil {
		return fmt.Errorf("save total credits: %w", err)
	}
	return nil
}
