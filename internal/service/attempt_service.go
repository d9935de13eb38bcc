package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain errors for the attempt lifecycle.
var (
	ErrExamNotOpen      = errors.New("exam schedule has not opened yet")
	ErrNotEnrolled      = errors.New("student is not enrolled in this exam")
	ErrNotAttemptOwner  = errors.New("attempt belongs to another student")
	ErrResultNotReady   = errors.New("attempt has not been submitted")
	ErrTimeExpired      = errors.New("exam time has expired")
	ErrAlreadySubmitted = repository.ErrAlreadySubmitted
)

// AttemptStore is the persistence contract the attempt engine needs. The
// pgx-backed repository implements it; tests use an in-memory fake.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error)
	UpsertAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selected string) error
	ReplaceDraft(ctx context.Context, attemptID uuid.UUID, answers map[uuid.UUID]string, marked map[uuid.UUID]bool) error
	GetDraft(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]string, map[uuid.UUID]bool, error)
	Finalize(ctx context.Context, attemptID uuid.UUID, g *model.GradeOutcome, submittedAt time.Time) error
	ListByStudent(ctx context.Context, studentID int) ([]model.AttemptSummary, error)
}

// ExamStore is the read-only exam contract the attempt engine needs.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	IsEnrolled(ctx context.Context, examID uuid.UUID, studentID int) (bool, error)
}

// QuestionStore supplies an exam's questions for grading.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// AttemptService owns the attempt state machine: creation, draft
// persistence, timer-bound submission, grading and feedback.
type AttemptService struct {
	attempts  AttemptStore
	exams     ExamStore
	questions QuestionStore
	// grace extends the server-side write deadline past started_at+duration
	// to absorb client clock skew and in-flight autosaves.
	grace time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts AttemptStore,
	exams ExamStore,
	questions QuestionStore,
	grace time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		exams:     exams,
		questions: questions,
		grace:     grace,
		now:       time.Now,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start creates an attempt for (student, exam) or resumes the existing one.
// The returned attempt's StartedAt is server-assigned and is the sole
// authority for remaining-time computation — the client clock is never
// trusted.
//
// A second start after submission fails with ErrAlreadySubmitted: attempts
// are single-use.
func (s *AttemptService) Start(ctx context.Context, studentID int, examID uuid.UUID) (*model.Attempt, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if exam.Schedule.After(s.now()) {
		return nil, ErrExamNotOpen
	}

	enrolled, err := s.exams.IsEnrolled(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	existing, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil {
		if existing.Submitted() {
			return nil, ErrAlreadySubmitted
		}
		// Idempotent resume: same attempt id, same started_at.
		return existing, nil
	}

	attempt := &model.Attempt{ExamID: examID, StudentID: studentID}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Concurrent start won the insert; resume theirs.
			existing, fetchErr := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, refetch failed: %w", fetchErr)
			}
			if existing.Submitted() {
				return nil, ErrAlreadySubmitted
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Msg("Attempt started")

	return attempt, nil
}

// SaveAnswer upserts a single answer into the attempt's answer map. No
// correctness is computed here; grading is deferred to Submit.
func (s *AttemptService) SaveAnswer(ctx context.Context, studentID int, attemptID, questionID uuid.UUID, selected string) error {
	attempt, err := s.loadOwned(ctx, studentID, attemptID)
	if err != nil {
		return err
	}

	if err := s.checkDeadline(ctx, attempt); err != nil {
		return err
	}

	return s.attempts.UpsertAnswer(ctx, attemptID, questionID, selected)
}

// SaveDraft replaces the attempt's answer and review-flag maps wholesale.
// Used by the client's periodic autosave; last write wins.
func (s *AttemptService) SaveDraft(ctx context.Context, studentID int, attemptID uuid.UUID, answers map[uuid.UUID]string, marked map[uuid.UUID]bool) error {
	attempt, err := s.loadOwned(ctx, studentID, attemptID)
	if err != nil {
		return err
	}

	if err := s.checkDeadline(ctx, attempt); err != nil {
		return err
	}

	return s.attempts.ReplaceDraft(ctx, attemptID, answers, marked)
}

// GetDraft returns the saved answers and review flags so a reloaded client
// can restore its state.
func (s *AttemptService) GetDraft(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.Draft, error) {
	if _, err := s.loadOwned(ctx, studentID, attemptID); err != nil {
		return nil, err
	}

	answers, marked, err := s.attempts.GetDraft(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return &model.Draft{Answers: answers, MarkedForReview: marked}, nil
}

// Submit grades the attempt against the exam's question list and persists
// the outcome atomically. Submitting an already-submitted attempt is a
// no-op that returns the stored result — grading happens exactly once.
//
// Submit is also the timer backstop: it is always accepted regardless of
// the deadline and grades whatever is stored, so a timer-expiry submission
// with zero answers yields a graded result, not an error.
func (s *AttemptService) Submit(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.AttemptResult, error) {
	attempt, err := s.loadOwned(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.Submitted() {
		return s.resultView(ctx, attempt)
	}

	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers, _, err := s.attempts.GetDraft(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	outcome := Grade(questions, answers)

	submittedAt := s.now()
	if err := s.attempts.Finalize(ctx, attemptID, outcome, submittedAt); err != nil {
		if errors.Is(err, repository.ErrAlreadySubmitted) {
			// A concurrent submit finalized first; its result stands.
			stored, fetchErr := s.attempts.GetByID(ctx, attemptID)
			if fetchErr != nil {
				return nil, fmt.Errorf("refetch after concurrent submit: %w", fetchErr)
			}
			return s.resultView(ctx, stored)
		}
		return nil, fmt.Errorf("finalize: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("score", outcome.Score).
		Int("total", outcome.TotalQuestions).
		Int("percentage", outcome.Percentage).
		Msg("Attempt submitted and graded")

	attempt.SubmittedAt = &submittedAt
	attempt.Score = &outcome.Score
	attempt.TotalQuestions = &outcome.TotalQuestions
	attempt.Percentage = &outcome.Percentage
	attempt.Review = &outcome.Review
	attempt.Feedback = outcome.Feedback
	return s.resultView(ctx, attempt)
}

// GetResult returns the persisted grading output for the attempt's owner.
func (s *AttemptService) GetResult(ctx context.Context, requestorID int, attemptID uuid.UUID) (*model.AttemptResult, error) {
	attempt, err := s.loadOwned(ctx, requestorID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Submitted() {
		return nil, ErrResultNotReady
	}
	return s.resultView(ctx, attempt)
}

// ListMine returns the student's attempt history, newest first.
func (s *AttemptService) ListMine(ctx context.Context, studentID int) ([]model.AttemptSummary, error) {
	return s.attempts.ListByStudent(ctx, studentID)
}

// RemainingTime computes the seconds left on the attempt's timer from the
// server-assigned started_at. Never negative.
func (s *AttemptService) RemainingTime(attempt *model.Attempt, exam *model.Exam) float64 {
	remaining := time.Until(exam.Deadline(attempt.StartedAt))
	if remaining < 0 {
		remaining = 0
	}
	return remaining.Seconds()
}

// loadOwned fetches the attempt and verifies ownership.
func (s *AttemptService) loadOwned(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// checkDeadline rejects answer mutations received after the attempt's
// deadline plus grace. Submit deliberately skips this check.
func (s *AttemptService) checkDeadline(ctx context.Context, attempt *model.Attempt) error {
	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if s.now().After(exam.Deadline(attempt.StartedAt).Add(s.grace)) {
		return ErrTimeExpired
	}
	return nil
}

// resultView assembles the result payload from a terminal attempt plus the
// denormalized exam name.
func (s *AttemptService) resultView(ctx context.Context, attempt *model.Attempt) (*model.AttemptResult, error) {
	if !attempt.Submitted() {
		return nil, ErrResultNotReady
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	result := &model.AttemptResult{
		AttemptID:   attempt.ID,
		ExamID:      attempt.ExamID,
		ExamName:    exam.Name,
		Feedback:    attempt.Feedback,
		StartedAt:   attempt.StartedAt,
		SubmittedAt: *attempt.SubmittedAt,
	}
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	if attempt.TotalQuestions != nil {
		result.TotalQuestions = *attempt.TotalQuestions
	}
	if attempt.Percentage != nil {
		result.Percentage = *attempt.Percentage
	}
	if attempt.Review != nil {
		result.Review = *attempt.Review
	}
	return result, nil
}
