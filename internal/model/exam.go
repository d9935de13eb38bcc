package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a scheduled exam composed from bank questions.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Difficulty      Difficulty `json:"difficulty"`
	QType           QuestionType `json:"qtype"`
	Schedule        time.Time  `json:"schedule"`
	DurationMinutes int        `json:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Deadline returns the latest instant at which answer writes for an attempt
// started at startedAt are on time.
func (e *Exam) Deadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// AssignedExam is an exam as listed for a specific student, with that
// student's enrollment and attempt status overlaid.
type AssignedExam struct {
	Exam
	Enrolled  bool `json:"enrolled"`
	Attempted bool `json:"attempted"`
}

// ExamPaper is the student-facing payload for taking an exam. Cached in
// Redis without correct answers.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Name            string               `json:"name"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Name            string    `json:"name" binding:"required,min=3,max=255"`
	Difficulty      string    `json:"difficulty" binding:"required,oneof=Easy Medium Hard"`
	QType           string    `json:"qtype" binding:"required,oneof=MCQ TrueFalse"`
	Schedule        time.Time `json:"schedule" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Name            string     `json:"name" binding:"omitempty,min=3,max=255"`
	Schedule        *time.Time `json:"schedule" binding:"omitempty"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}
