package service

import (
	"math"
	"strings"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
)

// Review messages by percentage tier. Boundaries are closed on the lower
// end: exactly 80 is "great", exactly 100 is "perfect".
const (
	ReviewPerfect          = "Perfect score!"
	ReviewGreat            = "Great job! You've mastered most of the material."
	ReviewGood             = "Good effort! Review the missed questions to improve."
	ReviewKeepPracticing   = "Keep practicing! Revisit the topics you missed."
	ReviewNeedsImprovement = "Needs improvement. Consider revisiting the concepts."
)

// fallbackExplanation is shown for incorrect answers when the question has
// no explanation of its own.
const fallbackExplanation = "Review this concept in your notes or textbook."

// Grade compares the stored answers against the exam's questions and builds
// the full grading outcome. It is pure and deterministic: the same inputs
// always produce the same score and feedback.
//
// Unanswered questions count as incorrect. Total is the question count,
// independent of how many were answered. A zero-question exam grades to
// percentage 0 rather than dividing by zero.
func Grade(questions []model.Question, answers map[uuid.UUID]string) *model.GradeOutcome {
	score := 0
	feedback := make([]model.FeedbackEntry, 0, len(questions))

	for _, q := range questions {
		studentAnswer := answers[q.ID]
		isCorrect := normalizeAnswer(studentAnswer) == normalizeAnswer(q.CorrectAnswer) &&
			normalizeAnswer(studentAnswer) != ""

		entry := model.FeedbackEntry{
			QuestionID:    q.ID,
			QuestionText:  q.QuestionText,
			StudentAnswer: studentAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
		}

		if isCorrect {
			score++
		} else {
			// Explanations are only surfaced on incorrect answers.
			entry.Explanation = q.Explanation
			if strings.TrimSpace(entry.Explanation) == "" {
				entry.Explanation = fallbackExplanation
			}
		}

		feedback = append(feedback, entry)
	}

	total := len(questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	return &model.GradeOutcome{
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage,
		Review:         reviewFor(percentage),
		Feedback:       feedback,
	}
}

// normalizeAnswer trims surrounding whitespace and lowercases, so
// " Paris " and "paris" compare equal to "Paris".
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// reviewFor maps a percentage to exactly one review tier.
func reviewFor(percentage int) string {
	switch {
	case percentage == 100:
		return ReviewPerfect
	case percentage >= 80:
		return ReviewGreat
	case percentage >= 60:
		return ReviewGood
	case percentage >= 40:
		return ReviewKeepPracticing
	default:
		return ReviewNeedsImprovement
	}
}
