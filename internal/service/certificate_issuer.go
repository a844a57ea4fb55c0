package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
	appErrors "github.com/thethakurshivam/grs-sub003/pkg/errors"
)

var errHistoryShort = errors.New("available course history does not cover the requirement")

// creditAllocation is the share of one course history entry consumed by a certificate.
type creditAllocation struct {
	Entry models.CourseHistoryEntry
	Take  float64
}

// Partial reports whether part of the entry is left over.
func (a creditAllocation) Partial() bool {
	return a.Entry.CreditsEarned-a.Take > creditEpsilon
}

// allocateCredits walks entries oldest first and takes credits until required is met.
func allocateCredits(entries []models.CourseHistoryEntry, required float64) ([]creditAllocation, error) {
	ordered := make([]models.CourseHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.CertificateContributed || entry.CreditsEarned <= creditEpsilon {
			continue
		}
		ordered = append(ordered, entry)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].EarnedAt.Equal(ordered[j].EarnedAt) {
			return ordered[i].EarnedAt.Before(ordered[j].EarnedAt)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	remaining := required
	plan := make([]creditAllocation, 0, len(ordered))
	for _, entry := range ordered {
		if remaining <= creditEpsilon {
			break
		}
		take := entry.CreditsEarned
		if remaining < take {
			take = remaining
		}
		plan = append(plan, creditAllocation{Entry: entry, Take: take})
		remaining -= take
	}
	if remaining > creditEpsilon {
		return nil, fmt.Errorf("%w: short by %g credits", errHistoryShort, remaining)
	}
	return plan, nil
}

// remainderSplit builds the available entry carrying the unconsumed part of a partially used entry.
// Hours and credits shrink by the same ratio; the split keeps the original's FIFO position.
func remainderSplit(original models.CourseHistoryEntry, take, runningCount float64) *models.CourseHistoryEntry {
	remainder := original.CreditsEarned - take
	ratio := remainder / original.CreditsEarned
	originalID := original.ID
	return &models.CourseHistoryEntry{
		StudentID:        original.StudentID,
		UmbrellaKey:      original.UmbrellaKey,
		Name:             original.Name,
		Organization:     original.Organization,
		TheoryHours:      original.TheoryHours * ratio,
		PracticalHours:   original.PracticalHours * ratio,
		TheoryCredits:    original.TheoryCredits * ratio,
		PracticalCredits: original.PracticalCredits * ratio,
		CreditsEarned:    remainder,
		RunningCount:     runningCount,
		IsRemainingSplit: true,
		OriginalEntryID:  &originalID,
		EarnedAt:         original.EarnedAt,
	}
}

// Issuance is everything a certificate issuance wrote.
type Issuance struct {
	Certificate *models.Certificate
	Mapping     *models.CertificateCourseMapping
	Splits      []models.CourseHistoryEntry
	Balance     float64
}

// CertificateIssuer consumes course history FIFO and records the resulting certificate.
// It must run inside the caller's ledger transaction with the student row locked.
type CertificateIssuer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewCertificateIssuer constructs the issuer.
func NewCertificateIssuer(logger *zap.Logger) *CertificateIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateIssuer{logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Issue consumes claim.RequiredCredits from the student's umbrella and creates the certificate and mapping.
func (i *CertificateIssuer) Issue(ctx context.Context, tx repository.LedgerTx, student *models.Student, claim *models.CertificationClaim) (*Issuance, error) {
	required := claim.RequiredCredits
	umbrella := claim.UmbrellaKey

	entries, err := tx.ListAvailableForUpdate(ctx, student.ID, umbrella)
	if err != nil {
		return nil, err
	}
	plan, err := allocateCredits(entries, required)
	if err != nil {
		i.logger.Error("course history and ledger disagree",
			zap.String("student_id", student.ID),
			zap.String("umbrella", umbrella),
			zap.Float64("balance", student.Balance(umbrella)),
			zap.Error(err))
		wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "course history does not cover ledger balance")
		wrapped.ResourceID = claim.ID
		return nil, wrapped
	}

	seq, err := tx.NextCertificateSequence(ctx, umbrella)
	if err != nil {
		return nil, err
	}
	issuedAt := i.now()
	cert := &models.Certificate{
		ID:              uuid.NewString(),
		StudentID:       student.ID,
		UmbrellaKey:     umbrella,
		Qualification:   claim.Qualification,
		ClaimID:         claim.ID,
		CertificateNo:   models.CertificateNumber(umbrella, seq),
		SequenceNo:      seq,
		CreditsConsumed: required,
		IssuedAt:        issuedAt,
	}
	if err := tx.InsertCertificate(ctx, cert); err != nil {
		return nil, err
	}

	runningCount, err := tx.LatestRunningCount(ctx, student.ID, umbrella)
	if err != nil {
		return nil, err
	}
	courses := make(models.CertificateCourses, 0, len(plan))
	splits := make([]models.CourseHistoryEntry, 0, 1)
	for _, alloc := range plan {
		take := alloc.Take
		if !alloc.Partial() {
			take = alloc.Entry.CreditsEarned
		}
		if err := tx.MarkContributed(ctx, alloc.Entry.ID, cert.ID, take); err != nil {
			return nil, err
		}
		if alloc.Partial() {
			split := remainderSplit(alloc.Entry, take, runningCount)
			if err := tx.InsertCourseHistory(ctx, split); err != nil {
				return nil, err
			}
			splits = append(splits, *split)
		}
		courses = append(courses, models.CertificateCourse{
			CourseHistoryEntryID: alloc.Entry.ID,
			CourseName:           alloc.Entry.Name,
			Organization:         alloc.Entry.Organization,
			TheoryHours:          alloc.Entry.TheoryHours,
			PracticalHours:       alloc.Entry.PracticalHours,
			TotalCredits:         alloc.Entry.CreditsEarned,
			CreditsUsed:          take,
			CompletionDate:       alloc.Entry.EarnedAt,
		})
	}

	balance, ok := deductCredits(student.Balance(umbrella), required)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrInternal, claim.ID, "umbrella balance would become negative")
	}
	total, ok := deductCredits(student.TotalCredits, required)
	if !ok {
		return nil, appErrors.WithResource(appErrors.ErrInternal, claim.ID, "total credits would become negative")
	}
	if err := tx.SaveBalance(ctx, student.ID, umbrella, balance, total); err != nil {
		return nil, err
	}
	if student.CreditBalances == nil {
		student.CreditBalances = make(map[string]float64)
	}
	student.CreditBalances[umbrella] = balance
	student.TotalCredits = total

	mapping := &models.CertificateCourseMapping{
		CertificateID:        cert.ID,
		StudentID:            student.ID,
		UmbrellaKey:          umbrella,
		Qualification:        claim.Qualification,
		TotalCreditsRequired: required,
		Courses:              courses,
		CreatedAt:            issuedAt,
	}
	if err := tx.InsertCertificateMapping(ctx, mapping); err != nil {
		return nil, err
	}

	i.logger.Info("certificate issued",
		zap.String("certificate_no", cert.CertificateNo),
		zap.String("student_id", student.ID),
		zap.Int("courses", len(courses)),
		zap.Int("splits", len(splits)))
	return &Issuance{Certificate: cert, Mapping: mapping, Splits: splits, Balance: balance}, nil
}
