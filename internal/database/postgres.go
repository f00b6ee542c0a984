package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/rs/zerolog"
)

// applicationName tags our sessions in pg_stat_activity and Redis CLIENT LIST.
const applicationName = "learning-navigator"

// recordsPoolConfig builds the pool for the academic records tables.
// Enrollment transactions hold a student row lock for their whole duration,
// so one idle connection is kept warm and dead ones are detected quickly.
func recordsPoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxDBConns > 0 {
		poolCfg.MaxConns = cfg.MaxDBConns
	}
	if poolCfg.MinConns == 0 {
		poolCfg.MinConns = 1
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

// NewRecordsPool opens the PostgreSQL pool holding students, subjects, exams and enrollments.
func NewRecordsPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := recordsPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create records pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping records database: %w", err)
	}

	log.Info().
		Str("role", "academic_records").
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("min_conns", poolCfg.MinConns).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("Records database connected")

	return pool, nil
}
