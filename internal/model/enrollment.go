package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentKind distinguishes the two association tables.
type EnrollmentKind string

const (
	EnrollmentKindSubject EnrollmentKind = "subject"
	EnrollmentKindExam    EnrollmentKind = "exam"
)

// EnrollmentEvent is emitted after an enrollment commits.
type EnrollmentEvent struct {
	ID         uuid.UUID      `json:"id"`
	Kind       EnrollmentKind `json:"kind"`
	StudentID  int64          `json:"student_id"`
	SubjectID  int64          `json:"subject_id"`
	ExamID     int64          `json:"exam_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RoutingKey is the topic routing key used when publishing the event.
func (e EnrollmentEvent) RoutingKey() string {
	return "enrollment." + string(e.Kind) + ".created"
}
