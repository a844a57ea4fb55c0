package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
)

// ledgerState is an in-memory stand-in for the ledger tables. Methods do not lock.
type ledgerState struct {
	students map[string]models.Student
	requests map[string]models.CreditRequest
	history  []models.CourseHistoryEntry
	claims   map[string]models.CertificationClaim
	outcomes map[string]models.ClaimOutcome
	certs    map[string]models.Certificate
	mappings map[string]models.CertificateCourseMapping
	seq      int64

	failures map[string]error
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		students: make(map[string]models.Student),
		requests: make(map[string]models.CreditRequest),
		claims:   make(map[string]models.CertificationClaim),
		outcomes: make(map[string]models.ClaimOutcome),
		certs:    make(map[string]models.Certificate),
		mappings: make(map[string]models.CertificateCourseMapping),
		failures: make(map[string]error),
	}
}

func (s *ledgerState) clone() *ledgerState {
	out := newLedgerState()
	for k, v := range s.students {
		v.CreditBalances = copyBalances(v.CreditBalances)
		out.students[k] = v
	}
	for k, v := range s.requests {
		out.requests[k] = v
	}
	out.history = append(out.history, s.history...)
	for k, v := range s.claims {
		out.claims[k] = v
	}
	for k, v := range s.outcomes {
		out.outcomes[k] = v
	}
	for k, v := range s.certs {
		out.certs[k] = v
	}
	for k, v := range s.mappings {
		v.Courses = append(models.CertificateCourses(nil), v.Courses...)
		out.mappings[k] = v
	}
	out.seq = s.seq
	out.failures = s.failures
	return out
}

func copyBalances(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *ledgerState) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *ledgerState) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	student.CreditBalances = copyBalances(student.CreditBalances)
	return &student, nil
}

func (s *ledgerState) LockStudent(ctx context.Context, id string) (*models.Student, error) {
	if err := s.fail("LockStudent"); err != nil {
		return nil, err
	}
	return s.FindStudent(ctx, id)
}

func (s *ledgerState) SaveBalance(ctx context.Context, studentID, umbrellaKey string, credits, total float64) error {
	if err := s.fail("SaveBalance"); err != nil {
		return err
	}
	student := s.students[studentID]
	student.CreditBalances = copyBalances(student.CreditBalances)
	student.CreditBalances[umbrellaKey] = credits
	student.TotalCredits = total
	s.students[studentID] = student
	return nil
}

func (s *ledgerState) CreateCreditRequest(ctx context.Context, req *models.CreditRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = req.Derive()
	s.requests[req.ID] = *req
	return nil
}

func (s *ledgerState) GetCreditRequest(ctx context.Context, id string) (*models.CreditRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &req, nil
}

func (s *ledgerState) GetCreditRequestForUpdate(ctx context.Context, id string) (*models.CreditRequest, error) {
	return s.GetCreditRequest(ctx, id)
}

func (s *ledgerState) ListCreditRequests(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditRequest, int, error) {
	out := make([]models.CreditRequest, 0)
	for _, req := range s.requests {
		if matchesFilter(filter, req.Approval, req.StudentID, req.UmbrellaKey) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

func (s *ledgerState) UpdateCreditRequestDecision(ctx context.Context, req *models.CreditRequest) error {
	if err := s.fail("UpdateCreditRequestDecision"); err != nil {
		return err
	}
	req.Status = req.Derive()
	s.requests[req.ID] = *req
	return nil
}

func (s *ledgerState) DeleteCreditRequest(ctx context.Context, id string) error {
	if err := s.fail("DeleteCreditRequest"); err != nil {
		return err
	}
	delete(s.requests, id)
	return nil
}

func (s *ledgerState) LatestRunningCount(ctx context.Context, studentID, umbrellaKey string) (float64, error) {
	var latest float64
	for _, entry := range s.history {
		if entry.StudentID == studentID && entry.UmbrellaKey == umbrellaKey {
			latest = entry.RunningCount
		}
	}
	return latest, nil
}

func (s *ledgerState) InsertCourseHistory(ctx context.Context, entry *models.CourseHistoryEntry) error {
	if err := s.fail("InsertCourseHistory"); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.EarnedAt.IsZero() {
		entry.EarnedAt = time.Now().UTC()
	}
	s.seq++
	entry.Seq = s.seq
	s.history = append(s.history, *entry)
	return nil
}

func (s *ledgerState) FindBySourceRequest(ctx context.Context, requestID string) (*models.CourseHistoryEntry, error) {
	for _, entry := range s.history {
		if entry.SourceRequestID != nil && *entry.SourceRequestID == requestID {
			entry.Hydrate()
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *ledgerState) ListAvailableForUpdate(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error) {
	out := make([]models.CourseHistoryEntry, 0)
	for _, entry := range s.history {
		if entry.StudentID == studentID && entry.UmbrellaKey == umbrellaKey && !entry.CertificateContributed {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *ledgerState) MarkContributed(ctx context.Context, entryID, certificateID string, credits float64) error {
	if err := s.fail("MarkContributed"); err != nil {
		return err
	}
	for i := range s.history {
		if s.history[i].ID != entryID {
			continue
		}
		if s.history[i].CertificateContributed {
			return repository.ErrAlreadyContributed
		}
		certID, used := certificateID, credits
		s.history[i].CertificateContributed = true
		s.history[i].ContributedCertificateID = &certID
		s.history[i].CreditsContributed = &used
		return nil
	}
	return sql.ErrNoRows
}

func (s *ledgerState) ListCourseHistory(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error) {
	out := make([]models.CourseHistoryEntry, 0)
	for _, entry := range s.history {
		if entry.StudentID == studentID && (umbrellaKey == "" || entry.UmbrellaKey == umbrellaKey) {
			entry.Hydrate()
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *ledgerState) CreateClaim(ctx context.Context, claim *models.CertificationClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = claim.Derive()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *ledgerState) GetClaim(ctx context.Context, id string) (*models.CertificationClaim, error) {
	claim, ok := s.claims[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &claim, nil
}

func (s *ledgerState) GetClaimForUpdate(ctx context.Context, id string) (*models.CertificationClaim, error) {
	return s.GetClaim(ctx, id)
}

func (s *ledgerState) ListClaims(ctx context.Context, filter models.ApprovalFilter) ([]models.CertificationClaim, int, error) {
	out := make([]models.CertificationClaim, 0)
	for _, claim := range s.claims {
		if matchesFilter(filter, claim.Approval, claim.StudentID, claim.UmbrellaKey) {
			out = append(out, claim)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, len(out), nil
}

func (s *ledgerState) UpdateClaimDecision(ctx context.Context, claim *models.CertificationClaim) error {
	if err := s.fail("UpdateClaimDecision"); err != nil {
		return err
	}
	claim.Status = claim.Derive()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *ledgerState) DeleteClaim(ctx context.Context, id string) error {
	if err := s.fail("DeleteClaim"); err != nil {
		return err
	}
	delete(s.claims, id)
	return nil
}

func (s *ledgerState) InsertClaimOutcome(ctx context.Context, outcome *models.ClaimOutcome) error {
	if err := s.fail("InsertClaimOutcome"); err != nil {
		return err
	}
	s.outcomes[outcome.ClaimID] = *outcome
	return nil
}

func (s *ledgerState) GetClaimOutcome(ctx context.Context, claimID string) (*models.ClaimOutcome, error) {
	outcome, ok := s.outcomes[claimID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &outcome, nil
}

func (s *ledgerState) NextCertificateSequence(ctx context.Context, umbrellaKey string) (int, error) {
	highest := 0
	for _, cert := range s.certs {
		if cert.UmbrellaKey == umbrellaKey && cert.SequenceNo > highest {
			highest = cert.SequenceNo
		}
	}
	return highest + 1, nil
}

func (s *ledgerState) InsertCertificate(ctx context.Context, cert *models.Certificate) error {
	if err := s.fail("InsertCertificate"); err != nil {
		return err
	}
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	s.certs[cert.ID] = *cert
	return nil
}

func (s *ledgerState) InsertCertificateMapping(ctx context.Context, mapping *models.CertificateCourseMapping) error {
	if err := s.fail("InsertCertificateMapping"); err != nil {
		return err
	}
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	s.mappings[mapping.CertificateID] = *mapping
	return nil
}

func (s *ledgerState) GetCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	cert, ok := s.certs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &cert, nil
}

func (s *ledgerState) GetCertificateByClaim(ctx context.Context, claimID string) (*models.Certificate, error) {
	for _, cert := range s.certs {
		if cert.ClaimID == claimID {
			c := cert
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *ledgerState) ListCertificates(ctx context.Context, studentID string) ([]models.Certificate, error) {
	out := make([]models.Certificate, 0)
	for _, cert := range s.certs {
		if cert.StudentID == studentID {
			out = append(out, cert)
		}
	}
	return out, nil
}

func (s *ledgerState) GetCertificateMapping(ctx context.Context, certificateID string) (*models.CertificateCourseMapping, error) {
	mapping, ok := s.mappings[certificateID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &mapping, nil
}

func matchesFilter(filter models.ApprovalFilter, a models.Approval, studentID, umbrellaKey string) bool {
	switch filter.Queue {
	case models.QueuePOC:
		if a.Derive() != models.ApprovalPending || a.PocDecision != nil {
			return false
		}
	case models.QueueAdmin:
		if a.Derive() != models.ApprovalPending || !a.PocApproved() || a.AdminDecision != nil {
			return false
		}
	}
	if filter.StudentID != "" && filter.StudentID != studentID {
		return false
	}
	if filter.UmbrellaKey != "" && filter.UmbrellaKey != umbrellaKey {
		return false
	}
	if len(filter.Umbrellas) > 0 {
		found := false
		for _, u := range filter.Umbrellas {
			found = found || u == umbrellaKey
		}
		if !found {
			return false
		}
	}
	if len(filter.Status) > 0 {
		found := false
		for _, st := range filter.Status {
			found = found || st == a.Derive()
		}
		if !found {
			return false
		}
	}
	return true
}

// memLedger serialises transactions with a mutex and restores a snapshot on failure,
// standing in for the student row lock and transaction rollback.
type memLedger struct {
	mu    sync.Mutex
	state *ledgerState
	txs   int
}

func newMemLedger() *memLedger {
	return &memLedger{state: newLedgerState()}
}

func (m *memLedger) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	snapshot := m.state.clone()
	if err := fn(ctx, m.state); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memLedger) failNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.failures[op] = err
}

func (m *memLedger) addStudent(id string, balances map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, v := range balances {
		total += v
	}
	m.state.students[id] = models.Student{ID: id, FullName: "Student " + id, CreditBalances: copyBalances(balances), TotalCredits: total}
}

func (m *memLedger) addHistory(entry models.CourseHistoryEntry) models.CourseHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest, _ := m.state.LatestRunningCount(context.Background(), entry.StudentID, entry.UmbrellaKey)
	entry.RunningCount = latest + entry.CreditsEarned
	_ = m.state.InsertCourseHistory(context.Background(), &entry)
	return entry
}

func (m *memLedger) student(id string) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	student := m.state.students[id]
	student.CreditBalances = copyBalances(student.CreditBalances)
	return &student
}

func (m *memLedger) historyOf(studentID string) []models.CourseHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, _ := m.state.ListCourseHistory(context.Background(), studentID, "")
	return entries
}

func (m *memLedger) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FindStudent(ctx, id)
}

func (m *memLedger) CreateCreditRequest(ctx context.Context, req *models.CreditRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateCreditRequest(ctx, req)
}

func (m *memLedger) GetCreditRequest(ctx context.Context, id string) (*models.CreditRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetCreditRequest(ctx, id)
}

func (m *memLedger) ListCreditRequests(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListCreditRequests(ctx, filter)
}

func (m *memLedger) CreateClaim(ctx context.Context, claim *models.CertificationClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateClaim(ctx, claim)
}

func (m *memLedger) GetClaim(ctx context.Context, id string) (*models.CertificationClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetClaim(ctx, id)
}

func (m *memLedger) GetClaimOutcome(ctx context.Context, claimID string) (*models.ClaimOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetClaimOutcome(ctx, claimID)
}

func (m *memLedger) ListClaims(ctx context.Context, filter models.ApprovalFilter) ([]models.CertificationClaim, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListClaims(ctx, filter)
}

func (m *memLedger) GetCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetCertificate(ctx, id)
}

func (m *memLedger) ListCertificates(ctx context.Context, studentID string) ([]models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListCertificates(ctx, studentID)
}

func (m *memLedger) GetCertificateMapping(ctx context.Context, certificateID string) (*models.CertificateCourseMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetCertificateMapping(ctx, certificateID)
}

func (m *memLedger) ListCourseHistory(ctx context.Context, studentID, umbrellaKey string) ([]models.CourseHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListCourseHistory(ctx, studentID, umbrellaKey)
}

// tickingClock returns strictly increasing timestamps so FIFO order is deterministic.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}
