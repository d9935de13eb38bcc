package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam and enrollment data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts an exam together with its ordered question references in
// one transaction. The question list is fixed at creation.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (name, difficulty, qtype, schedule, duration_minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		e.Name, e.Difficulty, e.QType, e.Schedule, e.DurationMinutes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	batch := &pgx.Batch{}
	for i, qid := range questionIDs {
		batch.Queue(
			`INSERT INTO exam_questions (exam_id, question_id, position) VALUES ($1, $2, $3)`,
			e.ID, qid, i+1,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert exam questions: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, difficulty, qtype, schedule, duration_minutes, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Difficulty, &e.QType, &e.Schedule, &e.DurationMinutes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListAssigned retrieves all exams with the given student's enrollment and
// attempt status overlaid, ordered by schedule.
func (r *ExamRepository) ListAssigned(ctx context.Context, studentID int) ([]model.AssignedExam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.name, e.difficulty, e.qtype, e.schedule, e.duration_minutes,
		        e.created_at, e.updated_at,
		        EXISTS (SELECT 1 FROM exam_enrollments en
		                WHERE en.exam_id = e.id AND en.student_id = $1) AS enrolled,
		        EXISTS (SELECT 1 FROM attempts a
		                WHERE a.exam_id = e.id AND a.student_id = $1
		                  AND a.submitted_at IS NOT NULL) AS attempted
		 FROM exams e
		 ORDER BY e.schedule`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.AssignedExam
	for rows.Next() {
		var e model.AssignedExam
		if err := rows.Scan(&e.ID, &e.Name, &e.Difficulty, &e.QType, &e.Schedule, &e.DurationMinutes,
			&e.CreatedAt, &e.UpdatedAt, &e.Enrolled, &e.Attempted); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Update applies a partial update to an exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET name = $2, schedule = $3, duration_minutes = $4, updated_at = NOW()
		 WHERE id = $1`,
		e.ID, e.Name, e.Schedule, e.DurationMinutes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exam. Question links, enrollments and attempts cascade.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Enroll adds a student to the exam's enrolled set. Idempotent.
func (r *ExamRepository) Enroll(ctx context.Context, examID uuid.UUID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_enrollments (exam_id, student_id)
		 VALUES ($1, $2)
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		examID, studentID,
	)
	return err
}

// IsEnrolled reports whether the student is in the exam's enrolled set.
func (r *ExamRepository) IsEnrolled(ctx context.Context, examID uuid.UUID, studentID int) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_enrollments
		                WHERE exam_id = $1 AND student_id = $2)`,
		examID, studentID,
	).Scan(&enrolled)
	return enrolled, err
}
