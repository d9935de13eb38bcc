package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles attempt data access. Every mutation runs inside
// a transaction that first locks the attempts row and re-checks submitted_at,
// so concurrent saves serialize and a terminal attempt can never be written.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new attempt with a server-assigned started_at. Returns
// ErrDuplicate if an attempt for (student, exam) already exists; callers
// refetch and resume or reject based on its submitted_at.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id)
		 VALUES ($1, $2)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		a.ExamID, a.StudentID,
	).Scan(&a.ID, &a.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves an attempt by id, including stored grading output.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	var feedback []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, submitted_at,
		        score, total_questions, percentage, review, feedback
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
		&a.Score, &a.TotalQuestions, &a.Percentage, &a.Review, &feedback)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &a.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	return a, nil
}

// GetByExamAndStudent retrieves the attempt for an (exam, student) pair.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	var feedback []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, submitted_at,
		        score, total_questions, percentage, review, feedback
		 FROM attempts WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
		&a.Score, &a.TotalQuestions, &a.Percentage, &a.Review, &feedback)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &a.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	return a, nil
}

// lockAttempt takes a row lock on the attempt and returns its submitted_at.
// The lock serializes all writers for this attempt until the tx ends.
func lockAttempt(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID) (*time.Time, error) {
	var submittedAt *time.Time
	err := tx.QueryRow(ctx,
		`SELECT submitted_at FROM attempts WHERE id = $1 FOR UPDATE`, attemptID,
	).Scan(&submittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return submittedAt, nil
}

// UpsertAnswer writes a single answer (last write wins). Returns
// ErrAlreadySubmitted if the attempt is terminal.
func (r *AttemptRepository) UpsertAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selected string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	submittedAt, err := lockAttempt(ctx, tx, attemptID)
	if err != nil {
		return err
	}
	if submittedAt != nil {
		return ErrAlreadySubmitted
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id, selected)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected = EXCLUDED.selected, updated_at = NOW()`,
		attemptID, questionID, selected,
	)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}

	return tx.Commit(ctx)
}

// ReplaceDraft replaces the attempt's whole answer and review-flag state.
// The row lock makes near-simultaneous autosaves serialize instead of
// interleaving partial maps.
func (r *AttemptRepository) ReplaceDraft(ctx context.Context, attemptID uuid.UUID, answers map[uuid.UUID]string, marked map[uuid.UUID]bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	submittedAt, err := lockAttempt(ctx, tx, attemptID)
	if err != nil {
		return err
	}
	if submittedAt != nil {
		return ErrAlreadySubmitted
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM attempt_answers WHERE attempt_id = $1`, attemptID); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}

	// Union of both maps: a question can be marked for review without an answer.
	questionIDs := make(map[uuid.UUID]struct{}, len(answers)+len(marked))
	for qid := range answers {
		questionIDs[qid] = struct{}{}
	}
	for qid := range marked {
		questionIDs[qid] = struct{}{}
	}

	batch := &pgx.Batch{}
	for qid := range questionIDs {
		batch.Queue(
			`INSERT INTO attempt_answers (attempt_id, question_id, selected, marked_for_review)
			 VALUES ($1, $2, $3, $4)`,
			attemptID, qid, answers[qid], marked[qid],
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}

	return tx.Commit(ctx)
}

// GetDraft returns the attempt's saved answers and review flags.
func (r *AttemptRepository) GetDraft(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]string, map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected, marked_for_review
		 FROM attempt_answers WHERE attempt_id = $1`, attemptID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	answers := make(map[uuid.UUID]string)
	marked := make(map[uuid.UUID]bool)
	for rows.Next() {
		var qid uuid.UUID
		var selected string
		var flagged bool
		if err := rows.Scan(&qid, &selected, &flagged); err != nil {
			return nil, nil, err
		}
		if selected != "" {
			answers[qid] = selected
		}
		if flagged {
			marked[qid] = true
		}
	}
	return answers, marked, rows.Err()
}

// Finalize persists the grading outcome and sets submitted_at in one atomic
// update. Returns ErrAlreadySubmitted if another submit won the race; the
// stored result is then authoritative and must not be overwritten.
func (r *AttemptRepository) Finalize(ctx context.Context, attemptID uuid.UUID, g *model.GradeOutcome, submittedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := lockAttempt(ctx, tx, attemptID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadySubmitted
	}

	feedback, err := json.Marshal(g.Feedback)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE attempts
		 SET score = $2, total_questions = $3, percentage = $4,
		     review = $5, feedback = $6, submitted_at = $7
		 WHERE id = $1`,
		attemptID, g.Score, g.TotalQuestions, g.Percentage, g.Review, feedback, submittedAt,
	)
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}

	return tx.Commit(ctx)
}

// ListByStudent retrieves a student's attempts joined with exam names,
// newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.AttemptSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, e.name, a.started_at, a.submitted_at, a.score, a.percentage
		 FROM attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE a.student_id = $1
		 ORDER BY a.started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.AttemptSummary
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.ID, &s.ExamID, &s.ExamName, &s.StartedAt, &s.SubmittedAt, &s.Score, &s.Percentage); err != nil {
			return nil, err
		}
		attempts = append(attempts, s)
	}
	return attempts, rows.Err()
}
