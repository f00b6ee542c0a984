package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnnav/learning-navigator/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO students (name) VALUES ($1) RETURNING id`,
		s.Name,
	).Scan(&s.ID)
	return translate(err)
}

// GetByID retrieves a student row without associations.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	s := &model.Student{}
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// LockByID takes a row lock on the student for the rest of the surrounding transaction.
// Enrollment checks for one student serialise on this lock.
func (r *StudentRepository) LockByID(ctx context.Context, id int64) error {
	var locked int64
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id FROM students WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)
	return translate(err)
}

// List retrieves all students ordered by id.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `SELECT id, name FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanStudents(rows)
}
