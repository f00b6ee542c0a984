// Package memory provides an in-memory transactional store that mirrors the
// PostgreSQL repositories, including their cascade rules. It backs
// STORAGE_DRIVER=memory and the handler and service tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/repository"
)

type link struct {
	studentID int64
	targetID  int64
}

type state struct {
	students        map[int64]model.Student
	subjects        map[int64]model.Subject
	exams           map[int64]model.Exam
	studentSubjects []link
	studentExams    []link
	nextStudentID   int64
	nextSubjectID   int64
	nextExamID      int64
}

func (st *state) clone() *state {
	return &state{
		students:        maps.Clone(st.students),
		subjects:        maps.Clone(st.subjects),
		exams:           maps.Clone(st.exams),
		studentSubjects: slices.Clone(st.studentSubjects),
		studentExams:    slices.Clone(st.studentExams),
		nextStudentID:   st.nextStudentID,
		nextSubjectID:   st.nextSubjectID,
		nextExamID:      st.nextExamID,
	}
}

// Store holds every table behind one mutex. A transaction holds the mutex for
// its whole duration and restores a snapshot when it fails.
type Store struct {
	mu    sync.Mutex
	state *state
}

type txKey struct{ store *Store }

// New returns an empty store. Generated ids start at 1.
func New() *Store {
	return &Store{state: &state{
		students:      make(map[int64]model.Student),
		subjects:      make(map[int64]model.Subject),
		exams:         make(map[int64]model.Exam),
		nextStudentID: 1,
		nextSubjectID: 1,
		nextExamID:    1,
	}}
}

// WithTx runs fn atomically. A context that already carries a transaction of
// this store joins it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{store: s}, true))
}

func (s *Store) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{store: s}).(bool)
	return ok
}

// lock takes the store mutex unless ctx is inside one of this store's transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Students returns the student table.
func (s *Store) Students() *Students { return &Students{s: s} }

// Subjects returns the subject table.
func (s *Store) Subjects() *Subjects { return &Subjects{s: s} }

// Exams returns the exam table.
func (s *Store) Exams() *Exams { return &Exams{s: s} }

// Enrollments returns the two join tables.
func (s *Store) Enrollments() *Enrollments { return &Enrollments{s: s} }

func sortedValues[T any](m map[int64]T) []T {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Students mirrors repository.StudentRepository.
type Students struct{ s *Store }

func (r *Students) Create(ctx context.Context, st *model.Student) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	st.ID = state.nextStudentID
	state.nextStudentID++
	state.students[st.ID] = model.Student{ID: st.ID, Name: st.Name}
	return nil
}

func (r *Students) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	defer r.s.lock(ctx)()
	st, ok := r.s.state.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

// LockByID only checks existence; the transaction already holds the store mutex.
func (r *Students) LockByID(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.state.students[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Students) List(ctx context.Context) ([]model.Student, error) {
	defer r.s.lock(ctx)()
	return sortedValues(r.s.state.students), nil
}

// Subjects mirrors repository.SubjectRepository.
type Subjects struct{ s *Store }

func (r *Subjects) Create(ctx context.Context, sub *model.Subject) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	sub.ID = state.nextSubjectID
	state.nextSubjectID++
	state.subjects[sub.ID] = *sub
	return nil
}

func (r *Subjects) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	defer r.s.lock(ctx)()
	sub, ok := r.s.state.subjects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (r *Subjects) List(ctx context.Context) ([]model.Subject, error) {
	defer r.s.lock(ctx)()
	return sortedValues(r.s.state.subjects), nil
}

func (r *Subjects) ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Subject, error) {
	defer r.s.lock(ctx)()
	state := r.s.state
	out := make(map[int64][]model.Subject, len(studentIDs))
	for _, l := range state.studentSubjects {
		if slices.Contains(studentIDs, l.studentID) {
			out[l.studentID] = append(out[l.studentID], state.subjects[l.targetID])
		}
	}
	return out, nil
}

// Delete cascades to the subject's exams and to every enrollment row referencing either.
func (r *Subjects) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	if _, ok := state.subjects[id]; !ok {
		return repository.ErrNotFound
	}
	for examID, e := range state.exams {
		if e.SubjectID == id {
			state.deleteExam(examID)
		}
	}
	state.studentSubjects = slices.DeleteFunc(state.studentSubjects, func(l link) bool {
		return l.targetID == id
	})
	delete(state.subjects, id)
	return nil
}

// Exams mirrors repository.ExamRepository.
type Exams struct{ s *Store }

func (r *Exams) Create(ctx context.Context, e *model.Exam) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	if _, ok := state.subjects[e.SubjectID]; !ok {
		return fmt.Errorf("%w: subject %d", repository.ErrNotFound, e.SubjectID)
	}
	e.ID = state.nextExamID
	state.nextExamID++
	state.exams[e.ID] = *e
	return nil
}

func (r *Exams) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.state.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *Exams) List(ctx context.Context) ([]model.Exam, error) {
	defer r.s.lock(ctx)()
	return sortedValues(r.s.state.exams), nil
}

func (r *Exams) ListBySubject(ctx context.Context, subjectID int64) ([]model.Exam, error) {
	defer r.s.lock(ctx)()
	var out []model.Exam
	for _, e := range sortedValues(r.s.state.exams) {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Exams) ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Exam, error) {
	defer r.s.lock(ctx)()
	state := r.s.state
	out := make(map[int64][]model.Exam, len(studentIDs))
	for _, l := range state.studentExams {
		if slices.Contains(studentIDs, l.studentID) {
			out[l.studentID] = append(out[l.studentID], state.exams[l.targetID])
		}
	}
	return out, nil
}

func (r *Exams) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.state.exams[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.state.deleteExam(id)
	return nil
}

func (st *state) deleteExam(id int64) {
	st.studentExams = slices.DeleteFunc(st.studentExams, func(l link) bool {
		return l.targetID == id
	})
	delete(st.exams, id)
}

// Enrollments mirrors repository.EnrollmentRepository.
type Enrollments struct{ s *Store }

func (r *Enrollments) HasSubject(ctx context.Context, studentID, subjectID int64) (bool, error) {
	defer r.s.lock(ctx)()
	return slices.Contains(r.s.state.studentSubjects, link{studentID, subjectID}), nil
}

func (r *Enrollments) HasExam(ctx context.Context, studentID, examID int64) (bool, error) {
	defer r.s.lock(ctx)()
	return slices.Contains(r.s.state.studentExams, link{studentID, examID}), nil
}

func (r *Enrollments) AddSubject(ctx context.Context, studentID, subjectID int64) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	if _, ok := state.students[studentID]; !ok {
		return fmt.Errorf("%w: student %d", repository.ErrNotFound, studentID)
	}
	if _, ok := state.subjects[subjectID]; !ok {
		return fmt.Errorf("%w: subject %d", repository.ErrNotFound, subjectID)
	}
	l := link{studentID, subjectID}
	if slices.Contains(state.studentSubjects, l) {
		return repository.ErrDuplicate
	}
	state.studentSubjects = append(state.studentSubjects, l)
	return nil
}

func (r *Enrollments) AddExam(ctx context.Context, studentID, examID int64) error {
	defer r.s.lock(ctx)()
	state := r.s.state
	if _, ok := state.students[studentID]; !ok {
		return fmt.Errorf("%w: student %d", repository.ErrNotFound, studentID)
	}
	if _, ok := state.exams[examID]; !ok {
		return fmt.Errorf("%w: exam %d", repository.ErrNotFound, examID)
	}
	l := link{studentID, examID}
	if slices.Contains(state.studentExams, l) {
		return repository.ErrDuplicate
	}
	state.studentExams = append(state.studentExams, l)
	return nil
}

func (r *Enrollments) ListStudentsBySubject(ctx context.Context, subjectID int64) ([]model.Student, error) {
	defer r.s.lock(ctx)()
	return r.s.state.studentsLinkedTo(r.s.state.studentSubjects, subjectID), nil
}

func (r *Enrollments) ListStudentsByExam(ctx context.Context, examID int64) ([]model.Student, error) {
	defer r.s.lock(ctx)()
	return r.s.state.studentsLinkedTo(r.s.state.studentExams, examID), nil
}

func (st *state) studentsLinkedTo(links []link, targetID int64) []model.Student {
	var out []model.Student
	for _, l := range links {
		if l.targetID == targetID {
			out = append(out, st.students[l.studentID])
		}
	}
	return out
}
