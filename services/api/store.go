package api

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"voxhire/pkg/db"
)

// Store bundles the two database handles the API uses: the pgx pool for the
// hot candidate path (conditional updates, jsonb appends) and a gorm handle
// for the staff CRUD surface.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
}

// NewStore opens the connection pool, runs migrations, and attaches gorm on
// top of the same DSN.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	orm, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{DB: pool, ORM: orm}, nil
}

// Close releases the underlying pool. The gorm handle shares nothing with it
// worth closing separately at shutdown.
func (s *Store) Close() {
	if s == nil || s.DB == nil {
		return
	}
	s.DB.Close()
}

// Ping verifies database reachability for the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.DB)
}
