package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "MCQ"
	QuestionTypeTrueFalse QuestionType = "TrueFalse"
)

// Difficulty enumerates question/exam difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is a bank question. Exams reference questions; they never copy them.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"` // JSON string array; implicit {true,false} for TrueFalse
	CorrectAnswer string          `json:"correct_answer,omitempty"`
	Category      string          `json:"category"`
	Difficulty    Difficulty      `json:"difficulty"`
	QType         QuestionType    `json:"qtype"`
	Explanation   string          `json:"explanation,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// QuestionForStudent is a question stripped of the correct answer and
// explanation, safe to send to an examinee.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	Position     int             `json:"position"`
}

// CreateQuestionRequest is the payload for adding a bank question.
type CreateQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"required"`
	CorrectAnswer string          `json:"correct_answer" binding:"required,max=255"`
	Category      string          `json:"category" binding:"omitempty,max=100"`
	Difficulty    string          `json:"difficulty" binding:"required,oneof=Easy Medium Hard"`
	QType         string          `json:"qtype" binding:"required,oneof=MCQ TrueFalse"`
	Explanation   string          `json:"explanation" binding:"omitempty,max=2000"`
}

// UpdateQuestionRequest is the payload for updating a bank question.
type UpdateQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectAnswer string          `json:"correct_answer" binding:"omitempty,max=255"`
	Category      string          `json:"category" binding:"omitempty,max=100"`
	Explanation   string          `json:"explanation" binding:"omitempty,max=2000"`
}
