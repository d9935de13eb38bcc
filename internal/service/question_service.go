package service

import (
	"context"
	"fmt"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionService handles question bank CRUD for admins.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// List returns bank questions with pagination.
func (s *QuestionService) List(ctx context.Context, limit, offset int) ([]model.Question, int, error) {
	return s.questionRepo.List(ctx, limit, offset)
}

// GetByID retrieves a single bank question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create inserts a new bank question.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
		Difficulty:    model.Difficulty(req.Difficulty),
		QType:         model.QuestionType(req.QType),
		Explanation:   req.Explanation,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update applies a partial edit to a bank question, then drops the cached
// papers of every exam that includes it so they rebuild with fresh text.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if len(req.Options) > 0 {
		q.Options = req.Options
	}
	if req.CorrectAnswer != "" {
		q.CorrectAnswer = req.CorrectAnswer
	}
	if req.Category != "" {
		q.Category = req.Category
	}
	if req.Explanation != "" {
		q.Explanation = req.Explanation
	}

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.invalidatePapers(ctx, id)
	return q, nil
}

// Delete removes a bank question. The exam_questions foreign key rejects the
// delete while any exam still references it.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}

func (s *QuestionService) invalidatePapers(ctx context.Context, questionID uuid.UUID) {
	examIDs, err := s.questionRepo.ExamIDsContaining(ctx, questionID)
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Paper invalidation lookup failed")
		return
	}
	for _, examID := range examIDs {
		if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache invalidation failed")
		}
	}
}
