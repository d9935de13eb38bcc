package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IncidentService handles the integrity incident log. Writes are queue-first:
// the HTTP path enqueues to Redis and a background worker persists batches.
type IncidentService struct {
	incidentRepo *repository.IncidentRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(incidentRepo *repository.IncidentRepository, rdb *redis.Client, log zerolog.Logger) *IncidentService {
	return &IncidentService{
		incidentRepo: incidentRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "incident_service").Logger(),
	}
}

// Report records one violation. The student name is denormalized into the
// row so the log survives roster changes.
//
// Reporting must never break a running exam: if the queue is down the
// incident is written directly, and if that also fails the error is logged
// and swallowed so the student's session continues.
func (s *IncidentService) Report(ctx context.Context, studentID int, studentName string, examID uuid.UUID, vtype string, occurredAt time.Time) error {
	payload, err := json.Marshal(map[string]interface{}{
		"student_id":   studentID,
		"student_name": studentName,
		"exam_id":      examID.String(),
		"vtype":        vtype,
		"timestamp":    occurredAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal incident: %w", err)
	}

	err = s.rdb.RPush(ctx, config.WorkerKey.PersistIncidentsQueue, payload).Err()
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Msg("Incident queue unavailable, writing directly")

	inc := &model.Incident{
		StudentID:   studentID,
		StudentName: studentName,
		ExamID:      examID,
		VType:       vtype,
		OccurredAt:  occurredAt,
	}
	if err := s.incidentRepo.Insert(ctx, inc); err != nil {
		s.log.Error().Err(err).
			Int("student_id", studentID).
			Str("exam_id", examID.String()).
			Str("vtype", vtype).
			Msg("Incident dropped, queue and database both unavailable")
	}
	return nil
}

// ListGrouped returns the full incident log grouped by exam and, within each
// exam, by student. Ordering comes from the repository query; grouping is a
// read-side projection and never changes stored rows.
func (s *IncidentService) ListGrouped(ctx context.Context) ([]model.ExamIncidents, error) {
	incidents, err := s.incidentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return groupIncidents(incidents), nil
}

// groupIncidents folds a flat, pre-ordered incident list into the
// exam→student projection. First appearance order is preserved.
func groupIncidents(incidents []model.Incident) []model.ExamIncidents {
	var grouped []model.ExamIncidents
	examIdx := make(map[uuid.UUID]int)
	studentIdx := make(map[uuid.UUID]map[int]int)

	for _, inc := range incidents {
		ei, ok := examIdx[inc.ExamID]
		if !ok {
			grouped = append(grouped, model.ExamIncidents{
				ExamID:   inc.ExamID,
				ExamName: inc.ExamName,
			})
			ei = len(grouped) - 1
			examIdx[inc.ExamID] = ei
			studentIdx[inc.ExamID] = make(map[int]int)
		}

		si, ok := studentIdx[inc.ExamID][inc.StudentID]
		if !ok {
			grouped[ei].Students = append(grouped[ei].Students, model.StudentIncidents{
				StudentID:   inc.StudentID,
				StudentName: inc.StudentName,
			})
			si = len(grouped[ei].Students) - 1
			studentIdx[inc.ExamID][inc.StudentID] = si
		}

		grouped[ei].Students[si].Incidents = append(grouped[ei].Students[si].Incidents, inc)
	}

	return grouped
}

// CountForStudent returns how many incidents a student has accrued in one
// exam. Used by the live monitor overlay.
func (s *IncidentService) CountForStudent(ctx context.Context, examID uuid.UUID, studentID int) (int64, error) {
	return s.incidentRepo.CountByStudent(ctx, examID, studentID)
}
