package database

import (
	"context"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/repository"
	"github.com/learnnav/learning-navigator/internal/repository/memory"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/rs/zerolog"
)

// Storage bundles the stores selected by STORAGE_DRIVER.
type Storage struct {
	Tx          service.Transactor
	Students    service.StudentStore
	Subjects    service.SubjectStore
	Exams       service.ExamStore
	Enrollments service.EnrollmentStore

	// Ping is nil for the memory driver.
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStorage connects the configured backend.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := NewRecordsPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Tx:          repository.NewTxManager(pool),
			Students:    repository.NewStudentRepository(pool),
			Subjects:    repository.NewSubjectRepository(pool),
			Exams:       repository.NewExamRepository(pool),
			Enrollments: repository.NewEnrollmentRepository(pool),
			Ping:        pool.Ping,
			Close:       pool.Close,
		}, nil

	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		store := memory.New()
		return &Storage{
			Tx:          store,
			Students:    store.Students(),
			Subjects:    store.Subjects(),
			Exams:       store.Exams(),
			Enrollments: store.Enrollments(),
			Close:       func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
