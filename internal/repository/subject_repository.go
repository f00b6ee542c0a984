package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnnav/learning-navigator/internal/model"
)

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// Create inserts a new subject and sets its generated ID.
func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return translate(querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO subjects (subject_name) VALUES ($1) RETURNING id`,
		s.Name).Scan(&s.ID))
}

// GetByID retrieves a subject by its ID.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	s := &model.Subject{}
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id, subject_name FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// List retrieves all subjects ordered by id.
func (r *SubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `SELECT id, subject_name FROM subjects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListByStudents returns the enrolled subjects of each given student, in enrollment order.
func (r *SubjectRepository) ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]model.Subject, error) {
	out := make(map[int64][]model.Subject, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT ss.student_id, s.id, s.subject_name
		 FROM student_subjects ss
		 JOIN subjects s ON s.id = ss.subject_id
		 WHERE ss.student_id = ANY($1)
		 ORDER BY ss.enrolled_at, s.id`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var studentID int64
		var s model.Subject
		if err := rows.Scan(&studentID, &s.ID, &s.Name); err != nil {
			return nil, err
		}
		out[studentID] = append(out[studentID], s)
	}
	return out, rows.Err()
}

// Delete removes a subject. Exams and enrollments referencing it go with it (ON DELETE CASCADE).
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
