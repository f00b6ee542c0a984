package service

import (
	"context"

	"github.com/learnnav/learning-navigator/internal/model"
)

// Transactor runs fn inside one atomic unit of work.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StudentStore is satisfied by repository.StudentRepository and the memory store.
type StudentStore interface {
	Create(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	LockByID(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Student, error)
}

type SubjectStore interface {
	Create(ctx context.Context, s *model.Subject) error
	GetByID(ctx context.Context, id int64) (*model.Subject, error)
	List(ctx context.Context) ([]model.Subject, error)
	ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Subject, error)
	Delete(ctx context.Context, id int64) error
}

type ExamStore interface {
	Create(ctx context.Context, e *model.Exam) error
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
	List(ctx context.Context) ([]model.Exam, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]model.Exam, error)
	ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Exam, error)
	Delete(ctx context.Context, id int64) error
}

type EnrollmentStore interface {
	HasSubject(ctx context.Context, studentID, subjectID int64) (bool, error)
	HasExam(ctx context.Context, studentID, examID int64) (bool, error)
	AddSubject(ctx context.Context, studentID, subjectID int64) error
	AddExam(ctx context.Context, studentID, examID int64) error
	ListStudentsBySubject(ctx context.Context, subjectID int64) ([]model.Student, error)
	ListStudentsByExam(ctx context.Context, examID int64) ([]model.Student, error)
}

// EventQueue accepts enrollment events for asynchronous delivery.
type EventQueue interface {
	Enqueue(ctx context.Context, evt model.EnrollmentEvent) error
}

// attachAssociations loads enrolled subjects and exams for every student in two queries.
func attachAssociations(ctx context.Context, subjects SubjectStore, exams ExamStore, students []model.Student) error {
	ids := make([]int64, len(students))
	for i := range students {
		ids[i] = students[i].ID
	}

	subjectsBy, err := subjects.ListByStudents(ctx, ids)
	if err != nil {
		return err
	}
	examsBy, err := exams.ListByStudents(ctx, ids)
	if err != nil {
		return err
	}

	for i := range students {
		students[i].EnrolledSubjects = subjectsBy[students[i].ID]
		students[i].EnrolledExams = examsBy[students[i].ID]
		students[i].Normalize()
	}
	return nil
}
