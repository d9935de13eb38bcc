package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one student's single timed pass at one exam. It is created when
// the student starts the exam and becomes immutable once submitted_at is set.
type Attempt struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      int        `json:"student_id"`
	ExamID         uuid.UUID  `json:"exam_id"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Score          *int       `json:"score,omitempty"`
	TotalQuestions *int       `json:"total_questions,omitempty"`
	Percentage     *int       `json:"percentage,omitempty"`
	Review         *string    `json:"review,omitempty"`
	Feedback       []FeedbackEntry `json:"feedback,omitempty"`
}

// Submitted reports whether the attempt has reached its terminal state.
func (a *Attempt) Submitted() bool {
	return a.SubmittedAt != nil
}

// FeedbackEntry is the per-question grading feedback stored with a
// submitted attempt. Explanation is populated only for incorrect answers.
type FeedbackEntry struct {
	QuestionID    uuid.UUID `json:"question_id"`
	QuestionText  string    `json:"question_text"`
	StudentAnswer string    `json:"student_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	IsCorrect     bool      `json:"is_correct"`
	Explanation   string    `json:"explanation,omitempty"`
}

// GradeOutcome is the deterministic output of grading an attempt.
type GradeOutcome struct {
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	Percentage     int             `json:"percentage"`
	Review         string          `json:"review"`
	Feedback       []FeedbackEntry `json:"feedback"`
}

// AttemptSummary is an attempt row joined with its exam name, used in the
// student's attempt history.
type AttemptSummary struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      uuid.UUID  `json:"exam_id"`
	ExamName    string     `json:"exam_name"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Percentage  *int       `json:"percentage,omitempty"`
}

// AttemptResult is the result view returned after submission.
type AttemptResult struct {
	AttemptID      uuid.UUID       `json:"attempt_id"`
	ExamID         uuid.UUID       `json:"exam_id"`
	ExamName       string          `json:"exam_name"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	Percentage     int             `json:"percentage"`
	Review         string          `json:"review"`
	Feedback       []FeedbackEntry `json:"feedback"`
	StartedAt      time.Time       `json:"started_at"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

// StartAttemptRequest is the payload for starting (or resuming) an attempt.
type StartAttemptRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// SaveAnswerRequest is the payload for upserting a single answer.
type SaveAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Selected   string    `json:"selected" binding:"required,max=255"`
}

// SaveDraftRequest is the payload for the periodic bulk autosave. Both maps
// are keyed by question id and replace the stored draft wholesale.
type SaveDraftRequest struct {
	Answers         map[uuid.UUID]string `json:"answers" binding:"required"`
	MarkedForReview map[uuid.UUID]bool   `json:"marked_for_review"`
}

// Draft is the in-progress answer/review state returned on reload.
type Draft struct {
	Answers         map[uuid.UUID]string `json:"answers"`
	MarkedForReview map[uuid.UUID]bool   `json:"marked_for_review"`
}
