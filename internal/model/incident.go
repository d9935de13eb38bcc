package model

import (
	"time"

	"github.com/google/uuid"
)

// Well-known violation types reported by the client-side detectors. The
// column is free text, so new detector types need no migration.
const (
	ViolationTabSwitch      = "tab-switch"
	ViolationFullscreenExit = "fullscreen-exit"
	ViolationRightClick     = "right-click"
	ViolationShortcutKey    = "shortcut-key"
)

// Incident is one recorded integrity-violation signal. Rows are append-only;
// repeated triggers produce repeated rows, grouping happens at read time.
type Incident struct {
	ID          uuid.UUID `json:"id"`
	StudentID   int       `json:"student_id"`
	StudentName string    `json:"student_name"`
	ExamID      uuid.UUID `json:"exam_id"`
	ExamName    string    `json:"exam_name,omitempty"`
	VType       string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ReportIncidentRequest is the payload posted by client-side detectors.
type ReportIncidentRequest struct {
	ExamID    uuid.UUID `json:"exam_id" binding:"required"`
	Type      string    `json:"type" binding:"required,max=100"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

// StudentIncidents groups one student's incidents within an exam.
type StudentIncidents struct {
	StudentID   int        `json:"student_id"`
	StudentName string     `json:"student_name"`
	Incidents   []Incident `json:"incidents"`
}

// ExamIncidents groups incidents by exam, then by student. This is a
// read-side projection for admin review, not a stored structure.
type ExamIncidents struct {
	ExamID   uuid.UUID          `json:"exam_id"`
	ExamName string             `json:"exam_name"`
	Students []StudentIncidents `json:"students"`
}
