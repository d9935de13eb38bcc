package repository

import (
	"context"
	"errors"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves an exam's questions in their fixed order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text, q.options, q.correct_answer, q.category,
		        q.difficulty, q.qtype, q.explanation, q.created_at
		 FROM questions q
		 JOIN exam_questions eq ON eq.question_id = q.id
		 WHERE eq.exam_id = $1
		 ORDER BY eq.position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// PickForExam selects up to limit bank questions matching the given
// difficulty and type. Used to compose a new exam.
func (r *QuestionRepository) PickForExam(ctx context.Context, difficulty model.Difficulty, qtype model.QuestionType, limit int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, correct_answer, category,
		        difficulty, qtype, explanation, created_at
		 FROM questions
		 WHERE difficulty = $1 AND qtype = $2
		 ORDER BY created_at
		 LIMIT $3`, difficulty, qtype, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// List retrieves bank questions with pagination.
func (r *QuestionRepository) List(ctx context.Context, limit, offset int) ([]model.Question, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, correct_answer, category,
		        difficulty, qtype, explanation, created_at
		 FROM questions
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	return questions, total, err
}

// Create inserts a new bank question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, options, correct_answer, category, difficulty, qtype, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		q.QuestionText, q.Options, q.CorrectAnswer, q.Category, q.Difficulty, q.QType, q.Explanation,
	).Scan(&q.ID, &q.CreatedAt)
}

// Update rewrites a bank question's editable fields.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $2, options = $3, correct_answer = $4, category = $5, explanation = $6
		 WHERE id = $1`,
		q.ID, q.QuestionText, q.Options, q.CorrectAnswer, q.Category, q.Explanation,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a bank question. Fails if an exam still references it.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExamIDsContaining returns the exams whose fixed question list includes the
// given question. Used to invalidate cached papers after an edit.
func (r *QuestionRepository) ExamIDsContaining(ctx context.Context, questionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id FROM exam_questions WHERE question_id = $1`, questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		examIDs = append(examIDs, id)
	}
	return examIDs, rows.Err()
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Category,
			&q.Difficulty, &q.QType, &q.Explanation, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single bank question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_text, options, correct_answer, category,
		        difficulty, qtype, explanation, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Category,
		&q.Difficulty, &q.QType, &q.Explanation, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}
