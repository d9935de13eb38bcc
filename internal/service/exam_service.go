package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors for exam management.
var (
	ErrScheduleInPast = errors.New("scheduled time cannot be in the past")
	ErrNoQuestions    = errors.New("no bank questions match this difficulty and type")
)

// examQuestionCount is how many bank questions are drawn into a new exam.
const examQuestionCount = 10

// ExamService handles the exam catalog, enrollment gating and the Redis
// paper cache.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// Create validates the request, draws matching bank questions and inserts
// the exam. The question list composition is fixed at creation.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	if req.Schedule.Before(time.Now()) {
		return nil, ErrScheduleInPast
	}

	questions, err := s.questionRepo.PickForExam(ctx,
		model.Difficulty(req.Difficulty), model.QuestionType(req.QType), examQuestionCount)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	questionIDs := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	exam := &model.Exam{
		Name:            req.Name,
		Difficulty:      model.Difficulty(req.Difficulty),
		QType:           model.QuestionType(req.QType),
		Schedule:        req.Schedule,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.examRepo.Create(ctx, exam, questionIDs); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	// Warm the paper cache so the first student hit skips PostgreSQL.
	if err := s.warmPaperCache(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Paper cache warm failed")
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Exam created")

	return exam, nil
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListAssigned returns all exams with the student's enrollment/attempt
// status overlaid.
func (s *ExamService) ListAssigned(ctx context.Context, studentID int) ([]model.AssignedExam, error) {
	return s.examRepo.ListAssigned(ctx, studentID)
}

// Update applies a partial admin update and refreshes the paper cache.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if req.Name != "" {
		exam.Name = req.Name
	}
	if req.Schedule != nil {
		exam.Schedule = *req.Schedule
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}

	if err := s.RefreshPaperCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Paper cache refresh failed")
	}

	return exam, nil
}

// Delete removes an exam and drops its cached paper.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Paper cache invalidation failed")
	}
	return nil
}

// Enroll idempotently adds the student to the exam's enrolled set.
func (s *ExamService) Enroll(ctx context.Context, examID uuid.UUID, studentID int) error {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	return s.examRepo.Enroll(ctx, examID, studentID)
}

// IsEnrolled reports whether the student is enrolled in the exam.
func (s *ExamService) IsEnrolled(ctx context.Context, examID uuid.UUID, studentID int) (bool, error) {
	return s.examRepo.IsEnrolled(ctx, examID, studentID)
}

// GetPaper returns the student-facing paper payload (no correct answers).
// Reads go through Redis with a PostgreSQL fallback that self-heals the
// cache on a miss.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		paper := &model.ExamPaper{}
		if err := json.Unmarshal([]byte(raw), paper); err == nil {
			return paper, nil
		}
		// Corrupt cache entry: fall through and rebuild from the database.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache read failed")
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if err := s.warmPaperCache(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache self-heal failed")
	}

	return buildPaper(exam, questions), nil
}

// RefreshPaperCache rebuilds the cached paper from the database.
func (s *ExamService) RefreshPaperCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	return s.warmPaperCache(ctx, exam, questions)
}

func (s *ExamService) warmPaperCache(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	payload, err := json.Marshal(buildPaper(exam, questions))
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), payload, 0).Err(); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}
	return nil
}

// buildPaper strips correct answers and explanations from the question set.
func buildPaper(exam *model.Exam, questions []model.Question) *model.ExamPaper {
	stripped := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		stripped[i] = model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Position:     i + 1,
		}
	}
	return &model.ExamPaper{
		ExamID:          exam.ID,
		Name:            exam.Name,
		DurationMinutes: exam.DurationMinutes,
		Questions:       stripped,
	}
}
