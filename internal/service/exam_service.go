package service

import (
	"context"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/rs/zerolog"
)

// ExamService handles exam business logic.
type ExamService struct {
	tx          Transactor
	exams       ExamStore
	subjects    SubjectStore
	enrollments EnrollmentStore
	enrollment  *EnrollmentService
	log         zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	tx Transactor,
	exams ExamStore,
	subjects SubjectStore,
	enrollments EnrollmentStore,
	enrollment *EnrollmentService,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		tx:          tx,
		exams:       exams,
		subjects:    subjects,
		enrollments: enrollments,
		enrollment:  enrollment,
		log:         log.With().Str("component", "exam_service").Logger(),
	}
}

// Create adds an exam to the subject, named "<subject name> EXAM".
func (s *ExamService) Create(ctx context.Context, subjectID int64) (*model.Exam, error) {
	var exam *model.Exam
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		subject, err := s.subjects.GetByID(ctx, subjectID)
		if err != nil {
			return lookupErr(err, "Subject not found with id: %d", subjectID)
		}

		exam = model.NewExam(subject)
		if err := s.exams.Create(ctx, exam); err != nil {
			return lookupErr(err, "Subject not found with id: %d", subjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int64("exam_id", exam.ID).
		Int64("subject_id", subjectID).
		Msg("Exam created")
	return exam, nil
}

// GetByID retrieves an exam by its ID.
func (s *ExamService) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Exam not found with id: %d", id)
	}
	return exam, nil
}

// GetAll retrieves every exam.
func (s *ExamService) GetAll(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// Delete removes an exam and its registrations.
func (s *ExamService) Delete(ctx context.Context, id int64) error {
	if err := s.exams.Delete(ctx, id); err != nil {
		return lookupErr(err, "Exam not found with id: %d", id)
	}
	s.log.Info().Int64("exam_id", id).Msg("Exam deleted")
	return nil
}

// RegisterStudent registers the student for the exam and returns the exam.
// An unknown exam is reported before an unknown student.
func (s *ExamService) RegisterStudent(ctx context.Context, examID, studentID int64) (*model.Exam, error) {
	if err := s.enrollment.RegisterForExam(ctx, examID, studentID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, examID)
}

// ListStudents returns the students registered for the exam.
func (s *ExamService) ListStudents(ctx context.Context, id int64) ([]model.Student, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListStudentsByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list exam students: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	if err := attachAssociations(ctx, s.subjects, s.exams, students); err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	return students, nil
}
