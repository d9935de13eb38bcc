package service

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
)

func makeQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			Options:       json.RawMessage(`["A","B","C","D"]`),
			CorrectAnswer: "A",
		}
	}
	return questions
}

func allCorrect(questions []model.Question) map[uuid.UUID]string {
	answers := make(map[uuid.UUID]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = q.CorrectAnswer
	}
	return answers
}

func TestGradeAllCorrect(t *testing.T) {
	questions := makeQuestions(10)
	outcome := Grade(questions, allCorrect(questions))

	if outcome.Score != 10 || outcome.TotalQuestions != 10 {
		t.Fatalf("got score %d/%d, want 10/10", outcome.Score, outcome.TotalQuestions)
	}
	if outcome.Percentage != 100 {
		t.Fatalf("got percentage %d, want 100", outcome.Percentage)
	}
	if outcome.Review != ReviewPerfect {
		t.Fatalf("got review %q, want %q", outcome.Review, ReviewPerfect)
	}
	for _, entry := range outcome.Feedback {
		if !entry.IsCorrect {
			t.Fatalf("entry for %s marked incorrect", entry.QuestionID)
		}
		if entry.Explanation != "" {
			t.Fatalf("correct answer carries explanation %q", entry.Explanation)
		}
	}
}

func TestGradeNormalization(t *testing.T) {
	questions := []model.Question{
		{ID: uuid.New(), QuestionText: "Capital of France?", CorrectAnswer: "Paris"},
	}
	cases := []string{"Paris", "paris", "PARIS", "  Paris  ", "\tparis\n"}

	for _, answer := range cases {
		outcome := Grade(questions, map[uuid.UUID]string{questions[0].ID: answer})
		if outcome.Score != 1 {
			t.Errorf("answer %q not accepted", answer)
		}
	}

	outcome := Grade(questions, map[uuid.UUID]string{questions[0].ID: "London"})
	if outcome.Score != 0 {
		t.Errorf("wrong answer accepted")
	}
}

func TestGradeBlankAnswerNeverCorrect(t *testing.T) {
	// A question whose correct answer is whitespace must not be satisfied
	// by an empty or whitespace submission.
	q := model.Question{ID: uuid.New(), CorrectAnswer: "   "}

	for _, answer := range []string{"", "   ", "\t"} {
		outcome := Grade([]model.Question{q}, map[uuid.UUID]string{q.ID: answer})
		if outcome.Score != 0 {
			t.Errorf("blank answer %q counted as correct", answer)
		}
	}
}

func TestGradeUnansweredCountsAsIncorrect(t *testing.T) {
	questions := makeQuestions(4)
	answers := allCorrect(questions)
	delete(answers, questions[3].ID)

	outcome := Grade(questions, answers)

	if outcome.Score != 3 || outcome.TotalQuestions != 4 {
		t.Fatalf("got %d/%d, want 3/4", outcome.Score, outcome.TotalQuestions)
	}
	if outcome.Percentage != 75 {
		t.Fatalf("got percentage %d, want 75", outcome.Percentage)
	}

	last := outcome.Feedback[3]
	if last.IsCorrect {
		t.Fatal("unanswered question marked correct")
	}
	if last.StudentAnswer != "" {
		t.Fatalf("unanswered question has student answer %q", last.StudentAnswer)
	}
}

func TestGradeExplanationFallback(t *testing.T) {
	withExplanation := model.Question{ID: uuid.New(), CorrectAnswer: "A", Explanation: "A is right because of X."}
	withoutExplanation := model.Question{ID: uuid.New(), CorrectAnswer: "A"}

	outcome := Grade(
		[]model.Question{withExplanation, withoutExplanation},
		map[uuid.UUID]string{withExplanation.ID: "B", withoutExplanation.ID: "B"},
	)

	if got := outcome.Feedback[0].Explanation; got != "A is right because of X." {
		t.Errorf("got explanation %q", got)
	}
	if got := outcome.Feedback[1].Explanation; got != fallbackExplanation {
		t.Errorf("got fallback %q, want %q", got, fallbackExplanation)
	}
}

func TestGradeZeroQuestions(t *testing.T) {
	outcome := Grade(nil, nil)

	if outcome.Score != 0 || outcome.TotalQuestions != 0 {
		t.Fatalf("got %d/%d, want 0/0", outcome.Score, outcome.TotalQuestions)
	}
	if outcome.Percentage != 0 {
		t.Fatalf("got percentage %d, want 0", outcome.Percentage)
	}
	if outcome.Review != ReviewNeedsImprovement {
		t.Fatalf("got review %q", outcome.Review)
	}
	if len(outcome.Feedback) != 0 {
		t.Fatalf("got %d feedback entries", len(outcome.Feedback))
	}
}

func TestReviewTierBoundaries(t *testing.T) {
	cases := []struct {
		percentage int
		want       string
	}{
		{100, ReviewPerfect},
		{99, ReviewGreat},
		{80, ReviewGreat},
		{79, ReviewGood},
		{60, ReviewGood},
		{59, ReviewKeepPracticing},
		{40, ReviewKeepPracticing},
		{39, ReviewNeedsImprovement},
		{0, ReviewNeedsImprovement},
	}

	for _, tc := range cases {
		if got := reviewFor(tc.percentage); got != tc.want {
			t.Errorf("reviewFor(%d) = %q, want %q", tc.percentage, got, tc.want)
		}
	}
}

func TestGradeDeterministic(t *testing.T) {
	questions := makeQuestions(7)
	answers := allCorrect(questions)
	delete(answers, questions[0].ID)
	answers[questions[1].ID] = "wrong"

	first := Grade(questions, answers)
	for i := 0; i < 5; i++ {
		again := Grade(questions, answers)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("grading is not deterministic: run %d differs", i)
		}
	}
}

func TestGradePercentageRounding(t *testing.T) {
	// 1 of 3 correct rounds to 33, 2 of 3 to 67.
	questions := makeQuestions(3)

	answers := map[uuid.UUID]string{questions[0].ID: "A"}
	if got := Grade(questions, answers).Percentage; got != 33 {
		t.Errorf("1/3 = %d, want 33", got)
	}

	answers[questions[1].ID] = "A"
	if got := Grade(questions, answers).Percentage; got != 67 {
		t.Errorf("2/3 = %d, want 67", got)
	}
}
