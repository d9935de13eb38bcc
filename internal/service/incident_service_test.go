package service

import (
	"testing"
	"time"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/google/uuid"
)

func TestGroupIncidentsProjection(t *testing.T) {
	examA := uuid.New()
	examB := uuid.New()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	incident := func(examID uuid.UUID, examName string, studentID int, studentName, vtype string, offset time.Duration) model.Incident {
		return model.Incident{
			ID:          uuid.New(),
			StudentID:   studentID,
			StudentName: studentName,
			ExamID:      examID,
			ExamName:    examName,
			VType:       vtype,
			OccurredAt:  base.Add(offset),
		}
	}

	// Pre-ordered as the repository query returns them: by exam, then
	// student, then time. Student 1 appears in both exams.
	flat := []model.Incident{
		incident(examA, "Algebra", 1, "Ana", model.ViolationTabSwitch, 0),
		incident(examA, "Algebra", 1, "Ana", model.ViolationFullscreenExit, time.Minute),
		incident(examA, "Algebra", 2, "Ben", model.ViolationRightClick, 2*time.Minute),
		incident(examB, "Geometry", 1, "Ana", model.ViolationShortcutKey, 3*time.Minute),
	}

	grouped := groupIncidents(flat)

	if len(grouped) != 2 {
		t.Fatalf("got %d exam groups, want 2", len(grouped))
	}
	if grouped[0].ExamID != examA || grouped[0].ExamName != "Algebra" {
		t.Fatalf("first group is %s (%s), want Algebra", grouped[0].ExamName, grouped[0].ExamID)
	}
	if grouped[1].ExamID != examB {
		t.Fatalf("second group is %s, want Geometry", grouped[1].ExamName)
	}

	students := grouped[0].Students
	if len(students) != 2 {
		t.Fatalf("exam A has %d students, want 2", len(students))
	}
	if students[0].StudentID != 1 || students[1].StudentID != 2 {
		t.Fatalf("student order %d, %d, want 1, 2", students[0].StudentID, students[1].StudentID)
	}
	if len(students[0].Incidents) != 2 {
		t.Fatalf("Ana has %d incidents in exam A, want 2", len(students[0].Incidents))
	}
	if students[0].Incidents[0].VType != model.ViolationTabSwitch {
		t.Fatalf("Ana's first incident is %q", students[0].Incidents[0].VType)
	}

	// The same student in a different exam is a separate group entry.
	if len(grouped[1].Students) != 1 || len(grouped[1].Students[0].Incidents) != 1 {
		t.Fatalf("exam B projection wrong: %+v", grouped[1].Students)
	}
}

func TestGroupIncidentsEmpty(t *testing.T) {
	if got := groupIncidents(nil); len(got) != 0 {
		t.Fatalf("got %d groups from empty input", len(got))
	}
}
