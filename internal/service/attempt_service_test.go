package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ─── In-memory fakes ────────────────────────────────────────────────

type fakeAttemptStore struct {
	attempts      map[uuid.UUID]*model.Attempt
	answers       map[uuid.UUID]map[uuid.UUID]string
	marked        map[uuid.UUID]map[uuid.UUID]bool
	finalizeCalls int
	now           func() time.Time
}

func newFakeAttemptStore(now func() time.Time) *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: make(map[uuid.UUID]*model.Attempt),
		answers:  make(map[uuid.UUID]map[uuid.UUID]string),
		marked:   make(map[uuid.UUID]map[uuid.UUID]bool),
		now:      now,
	}
}

func (f *fakeAttemptStore) Create(_ context.Context, a *model.Attempt) error {
	for _, existing := range f.attempts {
		if existing.ExamID == a.ExamID && existing.StudentID == a.StudentID {
			return repository.ErrDuplicate
		}
	}
	a.ID = uuid.New()
	a.StartedAt = f.now()
	copied := *a
	f.attempts[a.ID] = &copied
	return nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAttemptStore) GetByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttemptStore) UpsertAnswer(_ context.Context, attemptID, questionID uuid.UUID, selected string) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.SubmittedAt != nil {
		return repository.ErrAlreadySubmitted
	}
	if f.answers[attemptID] == nil {
		f.answers[attemptID] = make(map[uuid.UUID]string)
	}
	f.answers[attemptID][questionID] = selected
	return nil
}

func (f *fakeAttemptStore) ReplaceDraft(_ context.Context, attemptID uuid.UUID, answers map[uuid.UUID]string, marked map[uuid.UUID]bool) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.SubmittedAt != nil {
		return repository.ErrAlreadySubmitted
	}
	f.answers[attemptID] = make(map[uuid.UUID]string)
	for k, v := range answers {
		f.answers[attemptID][k] = v
	}
	f.marked[attemptID] = make(map[uuid.UUID]bool)
	for k, v := range marked {
		f.marked[attemptID][k] = v
	}
	return nil
}

func (f *fakeAttemptStore) GetDraft(_ context.Context, attemptID uuid.UUID) (map[uuid.UUID]string, map[uuid.UUID]bool, error) {
	if _, ok := f.attempts[attemptID]; !ok {
		return nil, nil, repository.ErrNotFound
	}
	answers := make(map[uuid.UUID]string)
	for k, v := range f.answers[attemptID] {
		answers[k] = v
	}
	marked := make(map[uuid.UUID]bool)
	for k, v := range f.marked[attemptID] {
		marked[k] = v
	}
	return answers, marked, nil
}

func (f *fakeAttemptStore) Finalize(_ context.Context, attemptID uuid.UUID, g *model.GradeOutcome, submittedAt time.Time) error {
	f.finalizeCalls++
	a, ok := f.attempts[attemptID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.SubmittedAt != nil {
		return repository.ErrAlreadySubmitted
	}
	a.SubmittedAt = &submittedAt
	a.Score = &g.Score
	a.TotalQuestions = &g.TotalQuestions
	a.Percentage = &g.Percentage
	a.Review = &g.Review
	a.Feedback = g.Feedback
	return nil
}

func (f *fakeAttemptStore) ListByStudent(_ context.Context, studentID int) ([]model.AttemptSummary, error) {
	var out []model.AttemptSummary
	for _, a := range f.attempts {
		if a.StudentID == studentID {
			out = append(out, model.AttemptSummary{
				ID:          a.ID,
				ExamID:      a.ExamID,
				StartedAt:   a.StartedAt,
				SubmittedAt: a.SubmittedAt,
				Score:       a.Score,
				Percentage:  a.Percentage,
			})
		}
	}
	return out, nil
}

type fakeExamStore struct {
	exams    map[uuid.UUID]*model.Exam
	enrolled map[string]bool
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		exams:    make(map[uuid.UUID]*model.Exam),
		enrolled: make(map[string]bool),
	}
}

func enrollKey(examID uuid.UUID, studentID int) string {
	return fmt.Sprintf("%s:%d", examID, studentID)
}

func (f *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (f *fakeExamStore) IsEnrolled(_ context.Context, examID uuid.UUID, studentID int) (bool, error) {
	return f.enrolled[enrollKey(examID, studentID)], nil
}

type fakeQuestionStore struct {
	byExam map[uuid.UUID][]model.Question
}

func (f *fakeQuestionStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	return f.byExam[examID], nil
}

// ─── Fixture ────────────────────────────────────────────────────────

type attemptFixture struct {
	svc       *AttemptService
	attempts  *fakeAttemptStore
	exams     *fakeExamStore
	questions *fakeQuestionStore
	exam      *model.Exam
	clock     time.Time
}

const fixtureStudent = 7

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()

	fx := &attemptFixture{
		clock: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	now := func() time.Time { return fx.clock }

	fx.attempts = newFakeAttemptStore(now)
	fx.exams = newFakeExamStore()
	fx.questions = &fakeQuestionStore{byExam: make(map[uuid.UUID][]model.Question)}

	fx.exam = &model.Exam{
		ID:              uuid.New(),
		Name:            "Algebra Basics",
		Schedule:        fx.clock.Add(-time.Hour),
		DurationMinutes: 30,
	}
	fx.exams.exams[fx.exam.ID] = fx.exam
	fx.exams.enrolled[enrollKey(fx.exam.ID, fixtureStudent)] = true

	questions := make([]model.Question, 4)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			Options:       json.RawMessage(`["A","B"]`),
			CorrectAnswer: "A",
		}
	}
	fx.questions.byExam[fx.exam.ID] = questions

	fx.svc = NewAttemptService(fx.attempts, fx.exams, fx.questions, 30*time.Second, zerolog.Nop())
	fx.svc.now = now

	return fx
}

func (fx *attemptFixture) advance(d time.Duration) {
	fx.clock = fx.clock.Add(d)
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestStartIsIdempotent(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	fx.advance(5 * time.Minute)

	second, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("resume returned a different attempt: %s vs %s", second.ID, first.ID)
	}
	if !second.StartedAt.Equal(first.StartedAt) {
		t.Fatalf("resume changed started_at: %v vs %v", second.StartedAt, first.StartedAt)
	}
}

func TestStartBeforeSchedule(t *testing.T) {
	fx := newAttemptFixture(t)
	fx.exam.Schedule = fx.clock.Add(time.Hour)

	_, err := fx.svc.Start(context.Background(), fixtureStudent, fx.exam.ID)
	if !errors.Is(err, ErrExamNotOpen) {
		t.Fatalf("got %v, want ErrExamNotOpen", err)
	}
}

func TestStartRequiresEnrollment(t *testing.T) {
	fx := newAttemptFixture(t)

	_, err := fx.svc.Start(context.Background(), 99, fx.exam.ID)
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("got %v, want ErrNotEnrolled", err)
	}
}

func TestStartAfterSubmitRejected(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("got %v, want ErrAlreadySubmitted", err)
	}
}

func TestSaveAnswerOwnership(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	questionID := fx.questions.byExam[fx.exam.ID][0].ID
	err = fx.svc.SaveAnswer(ctx, 99, attempt.ID, questionID, "A")
	if !errors.Is(err, ErrNotAttemptOwner) {
		t.Fatalf("got %v, want ErrNotAttemptOwner", err)
	}
}

func TestSaveAnswerDeadline(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	questionID := fx.questions.byExam[fx.exam.ID][0].ID

	// Inside the window.
	fx.advance(29 * time.Minute)
	if err := fx.svc.SaveAnswer(ctx, fixtureStudent, attempt.ID, questionID, "A"); err != nil {
		t.Fatalf("save inside window: %v", err)
	}

	// Past the deadline but within grace.
	fx.advance(time.Minute + 20*time.Second)
	if err := fx.svc.SaveAnswer(ctx, fixtureStudent, attempt.ID, questionID, "B"); err != nil {
		t.Fatalf("save within grace: %v", err)
	}

	// Past deadline plus grace.
	fx.advance(time.Minute)
	err = fx.svc.SaveAnswer(ctx, fixtureStudent, attempt.ID, questionID, "A")
	if !errors.Is(err, ErrTimeExpired) {
		t.Fatalf("got %v, want ErrTimeExpired", err)
	}
}

func TestSubmitGradesOnce(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	questions := fx.questions.byExam[fx.exam.ID]
	for _, q := range questions[:3] {
		if err := fx.svc.SaveAnswer(ctx, fixtureStudent, attempt.ID, q.ID, "A"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	first, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Score != 3 || first.TotalQuestions != 4 {
		t.Fatalf("got %d/%d, want 3/4", first.Score, first.TotalQuestions)
	}
	if first.Percentage != 75 {
		t.Fatalf("got percentage %d, want 75", first.Percentage)
	}
	if first.Review != ReviewGood {
		t.Fatalf("got review %q, want %q", first.Review, ReviewGood)
	}
	if first.ExamName != "Algebra Basics" {
		t.Fatalf("got exam name %q", first.ExamName)
	}

	// Re-submit is a no-op returning the stored outcome.
	second, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID)
	if err != nil {
		t.Fatalf("re-submit: %v", err)
	}
	if second.Score != first.Score || !second.SubmittedAt.Equal(first.SubmittedAt) {
		t.Fatalf("re-submit changed the stored result")
	}
	if fx.attempts.finalizeCalls != 1 {
		t.Fatalf("finalize ran %d times, want 1", fx.attempts.finalizeCalls)
	}
}

func TestSubmitAcceptedAfterDeadline(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Well past deadline plus grace. Submit must still be accepted and
	// grade the empty answer set.
	fx.advance(2 * time.Hour)
	result, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID)
	if err != nil {
		t.Fatalf("submit after deadline: %v", err)
	}
	if result.Score != 0 || result.TotalQuestions != 4 {
		t.Fatalf("got %d/%d, want 0/4", result.Score, result.TotalQuestions)
	}
	if result.Review != ReviewNeedsImprovement {
		t.Fatalf("got review %q", result.Review)
	}
}

func TestGetResultBeforeSubmit(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = fx.svc.GetResult(ctx, fixtureStudent, attempt.ID)
	if !errors.Is(err, ErrResultNotReady) {
		t.Fatalf("got %v, want ErrResultNotReady", err)
	}
}

func TestGetResultOwnership(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = fx.svc.GetResult(ctx, 99, attempt.ID)
	if !errors.Is(err, ErrNotAttemptOwner) {
		t.Fatalf("got %v, want ErrNotAttemptOwner", err)
	}
}

func TestSaveDraftRoundTrip(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	questions := fx.questions.byExam[fx.exam.ID]
	answers := map[uuid.UUID]string{
		questions[0].ID: "A",
		questions[1].ID: "B",
	}
	marked := map[uuid.UUID]bool{questions[2].ID: true}

	if err := fx.svc.SaveDraft(ctx, fixtureStudent, attempt.ID, answers, marked); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	draft, err := fx.svc.GetDraft(ctx, fixtureStudent, attempt.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if len(draft.Answers) != 2 || draft.Answers[questions[0].ID] != "A" {
		t.Fatalf("draft answers wrong: %v", draft.Answers)
	}
	if !draft.MarkedForReview[questions[2].ID] {
		t.Fatalf("review flag lost")
	}
}

func TestSaveAfterSubmitRejected(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	attempt, err := fx.svc.Start(ctx, fixtureStudent, fx.exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fixtureStudent, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	questionID := fx.questions.byExam[fx.exam.ID][0].ID
	err = fx.svc.SaveAnswer(ctx, fixtureStudent, attempt.ID, questionID, "A")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("got %v, want ErrAlreadySubmitted", err)
	}
}
