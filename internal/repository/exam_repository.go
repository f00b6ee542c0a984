package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnnav/learning-navigator/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam. A missing subject surfaces as ErrNotFound.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return translate(querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO exams (exam_name, subject_id) VALUES ($1, $2) RETURNING id`,
		e.Name, e.SubjectID,
	).Scan(&e.ID))
}

// GetByID retrieves an exam by its ID.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id, exam_name, subject_id FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.SubjectID)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// List retrieves all exams ordered by id.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT id, exam_name, subject_id FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanExams(rows)
}

// ListBySubject retrieves the exams owned by a subject in creation order.
func (r *ExamRepository) ListBySubject(ctx context.Context, subjectID int64) ([]model.Exam, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT id, exam_name, subject_id FROM exams WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, err
	}
	return scanExams(rows)
}

// ListByStudents returns the registered exams of each given student, in registration order.
func (r *ExamRepository) ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Exam, error) {
	out := make(map[int64][]model.Exam, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT se.student_id, e.id, e.exam_name, e.subject_id
		 FROM student_exams se
		 JOIN exams e ON e.id = se.exam_id
		 WHERE se.student_id = ANY($1)
		 ORDER BY se.enrolled_at, e.id`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var studentID int64
		var e model.Exam
		if err := rows.Scan(&studentID, &e.ID, &e.Name, &e.SubjectID); err != nil {
			return nil, err
		}
		out[studentID] = append(out[studentID], e)
	}
	return out, rows.Err()
}

// Delete removes an exam and, through ON DELETE CASCADE, its registrations.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.SubjectID); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
