package service

import (
	"context"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/rs/zerolog"
)

// SubjectService handles subject business logic.
type SubjectService struct {
	tx          Transactor
	subjects    SubjectStore
	exams       ExamStore
	enrollments EnrollmentStore
	log         zerolog.Logger
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(tx Transactor, subjects SubjectStore, exams ExamStore, enrollments EnrollmentStore, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		tx:          tx,
		subjects:    subjects,
		exams:       exams,
		enrollments: enrollments,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

// Create adds a subject. Subject names need not be unique.
func (s *SubjectService) Create(ctx context.Context, name string) (*model.Subject, error) {
	sub := &model.Subject{Name: name}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return sub, nil
}

// GetByID retrieves a subject by its ID.
func (s *SubjectService) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	sub, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Subject not found with id: %d", id)
	}
	return sub, nil
}

// GetAll retrieves every subject, never nil.
func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}

// Delete removes the subject together with its exams and every enrollment that
// references either of them.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	var removedExams int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.subjects.GetByID(ctx, id); err != nil {
			return lookupErr(err, "Subject not found with id: %d", id)
		}
		exams, err := s.exams.ListBySubject(ctx, id)
		if err != nil {
			return fmt.Errorf("list subject exams: %w", err)
		}
		removedExams = len(exams)

		if err := s.subjects.Delete(ctx, id); err != nil {
			return lookupErr(err, "Subject not found with id: %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Int64("subject_id", id).
		Int("cascaded_exams", removedExams).
		Msg("Subject deleted")
	return nil
}

// ListExams returns the subject's exams in creation order.
func (s *SubjectService) ListExams(ctx context.Context, id int64) ([]model.Exam, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListBySubject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list subject exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// ListStudents returns the students enrolled in the subject.
func (s *SubjectService) ListStudents(ctx context.Context, id int64) ([]model.Student, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListStudentsBySubject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list subject students: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	if err := attachAssociations(ctx, s.subjects, s.exams, students); err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	return students, nil
}
