package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var enrollmentAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learning_navigator_enrollment_attempts_total",
		Help: "Enrollment attempts by kind and outcome",
	},
	[]string{"kind", "outcome"}, // outcome: success/not_found/conflict/error
)

// EnrollmentService owns the enrollment rules. Both the student-centric and the
// exam-centric endpoints go through it.
type EnrollmentService struct {
	tx          Transactor
	students    StudentStore
	subjects    SubjectStore
	exams       ExamStore
	enrollments EnrollmentStore
	events      EventQueue
	log         zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService. events may be nil.
func NewEnrollmentService(
	tx Transactor,
	students StudentStore,
	subjects SubjectStore,
	exams ExamStore,
	enrollments EnrollmentStore,
	events EventQueue,
	log zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		tx:          tx,
		students:    students,
		subjects:    subjects,
		exams:       exams,
		enrollments: enrollments,
		events:      events,
		log:         log.With().Str("component", "enrollment_service").Logger(),
	}
}

// EnrollInSubject adds subjectID to the student's enrolled subjects.
func (s *EnrollmentService) EnrollInSubject(ctx context.Context, studentID, subjectID int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
			return lookupErr(err, "Subject not found with id: %d", subjectID)
		}

		enrolled, err := s.enrollments.HasSubject(ctx, studentID, subjectID)
		if err != nil {
			return fmt.Errorf("check subject enrollment: %w", err)
		}
		if enrolled {
			return subjectConflict(studentID)
		}

		if err := s.enrollments.AddSubject(ctx, studentID, subjectID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return subjectConflict(studentID)
			}
			return fmt.Errorf("add subject enrollment: %w", err)
		}
		return nil
	})
	s.record(model.EnrollmentKindSubject, err)
	if err != nil {
		return err
	}

	s.emit(ctx, model.EnrollmentEvent{
		Kind:      model.EnrollmentKindSubject,
		StudentID: studentID,
		SubjectID: subjectID,
	})
	return nil
}

// EnrollInExam registers the student for examID. The student must already be
// enrolled in the exam's subject and must not be registered for the exam yet.
// The student is looked up before the exam.
func (s *EnrollmentService) EnrollInExam(ctx context.Context, studentID, examID int64) error {
	return s.enrollInExam(ctx, studentID, examID, false)
}

// RegisterForExam is EnrollInExam for callers addressing the exam. The exam is
// looked up first, so an unknown exam wins over an unknown student.
func (s *EnrollmentService) RegisterForExam(ctx context.Context, examID, studentID int64) error {
	return s.enrollInExam(ctx, studentID, examID, true)
}

func (s *EnrollmentService) enrollInExam(ctx context.Context, studentID, examID int64, examFirst bool) error {
	var subjectID int64
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if !examFirst {
			if err := s.lockStudent(ctx, studentID); err != nil {
				return err
			}
		}
		exam, err := s.exams.GetByID(ctx, examID)
		if err != nil {
			return lookupErr(err, "Exam not found with id: %d", examID)
		}
		subjectID = exam.SubjectID
		if examFirst {
			if err := s.students.LockByID(ctx, studentID); err != nil {
				return lookupErr(err, "Student not found with id: %d", studentID)
			}
		}

		inSubject, err := s.enrollments.HasSubject(ctx, studentID, exam.SubjectID)
		if err != nil {
			return fmt.Errorf("check subject enrollment: %w", err)
		}
		if !inSubject {
			return conflict("Student must be enrolled in the subject before exam registration")
		}

		registered, err := s.enrollments.HasExam(ctx, studentID, examID)
		if err != nil {
			return fmt.Errorf("check exam registration: %w", err)
		}
		if registered {
			return examConflict(studentID, examID)
		}

		if err := s.enrollments.AddExam(ctx, studentID, examID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return examConflict(studentID, examID)
			}
			return fmt.Errorf("add exam registration: %w", err)
		}
		return nil
	})
	s.record(model.EnrollmentKindExam, err)
	if err != nil {
		return err
	}

	s.emit(ctx, model.EnrollmentEvent{
		Kind:      model.EnrollmentKindExam,
		StudentID: studentID,
		SubjectID: subjectID,
		ExamID:    examID,
	})
	return nil
}

// lockStudent serialises concurrent enrollments of the same student.
func (s *EnrollmentService) lockStudent(ctx context.Context, studentID int64) error {
	if err := s.students.LockByID(ctx, studentID); err != nil {
		return lookupErr(err, "Student not found")
	}
	return nil
}

func subjectConflict(studentID int64) error {
	return conflict("Student with id: %d has already enrolled in subject", studentID)
}

func examConflict(studentID, examID int64) error {
	return conflict("Student with id: %d has already enrolled for this particular exam with id: %d", studentID, examID)
}

func (s *EnrollmentService) record(kind model.EnrollmentKind, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrEnrollmentConflict):
		outcome = "conflict"
	default:
		outcome = "error"
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("Enrollment failed")
	}
	enrollmentAttempts.WithLabelValues(string(kind), outcome).Inc()
}

// emit hands the event to the queue. Delivery problems never undo a committed enrollment.
// The enrollment is already committed, so a client hanging up must not drop its event.
func (s *EnrollmentService) emit(ctx context.Context, evt model.EnrollmentEvent) {
	if s.events == nil {
		return
	}
	evt.ID = uuid.New()
	evt.OccurredAt = time.Now().UTC()
	if err := s.events.Enqueue(context.WithoutCancel(ctx), evt); err != nil {
		s.log.Warn().
			Err(err).
			Str("event_id", evt.ID.String()).
			Int64("student_id", evt.StudentID).
			Msg("Failed to enqueue enrollment event")
	}
}
