package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnnav/learning-navigator/internal/model"
)

// EnrollmentRepository manages the student_subjects and student_exams join tables.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// HasSubject reports whether the student is enrolled in the subject.
func (r *EnrollmentRepository) HasSubject(ctx context.Context, studentID, subjectID int64) (bool, error) {
	var exists bool
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_subjects WHERE student_id = $1 AND subject_id = $2)`,
		studentID, subjectID,
	).Scan(&exists)
	return exists, err
}

// HasExam reports whether the student is registered for the exam.
func (r *EnrollmentRepository) HasExam(ctx context.Context, studentID, examID int64) (bool, error) {
	var exists bool
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_exams WHERE student_id = $1 AND exam_id = $2)`,
		studentID, examID,
	).Scan(&exists)
	return exists, err
}

// AddSubject inserts a subject enrollment. A duplicate row yields ErrDuplicate.
func (r *EnrollmentRepository) AddSubject(ctx context.Context, studentID, subjectID int64) error {
	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO student_subjects (student_id, subject_id) VALUES ($1, $2)`,
		studentID, subjectID,
	)
	return translate(err)
}

// AddExam inserts an exam registration. A duplicate row yields ErrDuplicate.
func (r *EnrollmentRepository) AddExam(ctx context.Context, studentID, examID int64) error {
	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO student_exams (student_id, exam_id) VALUES ($1, $2)`,
		studentID, examID,
	)
	return translate(err)
}

// ListStudentsBySubject returns the students registered in a subject (no associations loaded).
func (r *EnrollmentRepository) ListStudentsBySubject(ctx context.Context, subjectID int64) ([]model.Student, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT st.id, st.name
		 FROM student_subjects ss
		 JOIN students st ON st.id = ss.student_id
		 WHERE ss.subject_id = $1
		 ORDER BY ss.enrolled_at, st.id`, subjectID)
	if err != nil {
		return nil, err
	}
	return scanStudents(rows)
}

// ListStudentsByExam returns the students registered for an exam (no associations loaded).
func (r *EnrollmentRepository) ListStudentsByExam(ctx context.Context, examID int64) ([]model.Student, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT st.id, st.name
		 FROM student_exams se
		 JOIN students st ON st.id = se.student_id
		 WHERE se.exam_id = $1
		 ORDER BY se.enrolled_at, st.id`, examID)
	if err != nil {
		return nil, err
	}
	return scanStudents(rows)
}

func scanStudents(rows pgx.Rows) ([]model.Student, error) {
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
