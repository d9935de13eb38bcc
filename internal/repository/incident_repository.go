package repository

import (
	"context"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IncidentRepository handles incident log data access. The log is
// append-only; rows are only ever removed by the user-delete cascade.
type IncidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(pool *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{pool: pool}
}

// Insert appends a single incident row.
func (r *IncidentRepository) Insert(ctx context.Context, inc *model.Incident) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO incidents (student_id, student_name, exam_id, vtype, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		inc.StudentID, inc.StudentName, inc.ExamID, inc.VType, inc.OccurredAt,
	).Scan(&inc.ID)
}

// BulkInsert appends a batch of incidents with COPY. Used by the queue
// worker; falls back to Insert row by row on failure.
func (r *IncidentRepository) BulkInsert(ctx context.Context, incidents []*model.Incident) error {
	rows := make([][]interface{}, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, []interface{}{
			inc.StudentID, inc.StudentName, inc.ExamID, inc.VType, inc.OccurredAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"incidents"},
		[]string{"student_id", "student_name", "exam_id", "vtype", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListAll retrieves every incident joined with its exam name, ordered for
// the read-side exam→student grouping (newest first within a student).
func (r *IncidentRepository) ListAll(ctx context.Context) ([]model.Incident, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.student_id, i.student_name, i.exam_id, e.name, i.vtype, i.occurred_at
		 FROM incidents i
		 JOIN exams e ON e.id = i.exam_id
		 ORDER BY e.name, i.student_name, i.occurred_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var inc model.Incident
		if err := rows.Scan(&inc.ID, &inc.StudentID, &inc.StudentName, &inc.ExamID,
			&inc.ExamName, &inc.VType, &inc.OccurredAt); err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// CountByStudent returns the number of incidents recorded for a student
// within one exam.
func (r *IncidentRepository) CountByStudent(ctx context.Context, examID uuid.UUID, studentID int) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM incidents WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&count)
	return count, err
}
