package service

import (
	"context"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/model"
)

// StudentService handles student business logic.
type StudentService struct {
	students   StudentStore
	subjects   SubjectStore
	exams      ExamStore
	enrollment *EnrollmentService
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, subjects SubjectStore, exams ExamStore, enrollment *EnrollmentService) *StudentService {
	return &StudentService{
		students:   students,
		subjects:   subjects,
		exams:      exams,
		enrollment: enrollment,
	}
}

// Create inserts a new student with no enrollments. Names need not be unique.
func (s *StudentService) Create(ctx context.Context, name string) (*model.Student, error) {
	student := &model.Student{Name: name}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	student.Normalize()
	return student, nil
}

// GetByID retrieves a student with enrolled subjects and exams.
func (s *StudentService) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Student not found")
	}

	list := []model.Student{*student}
	if err := attachAssociations(ctx, s.subjects, s.exams, list); err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	return &list[0], nil
}

// GetAll retrieves every student with enrolled subjects and exams.
func (s *StudentService) GetAll(ctx context.Context) ([]model.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	if err := attachAssociations(ctx, s.subjects, s.exams, students); err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	return students, nil
}

// EnrollInSubject enrolls the student and returns the updated student.
func (s *StudentService) EnrollInSubject(ctx context.Context, studentID, subjectID int64) (*model.Student, error) {
	if err := s.enrollment.EnrollInSubject(ctx, studentID, subjectID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, studentID)
}

// EnrollInExam registers the student for the exam and returns the updated student.
func (s *StudentService) EnrollInExam(ctx context.Context, studentID, examID int64) (*model.Student, error) {
	if err := s.enrollment.EnrollInExam(ctx, studentID, examID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, studentID)
}
