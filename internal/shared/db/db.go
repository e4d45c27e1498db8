package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
	"gorm.io/plugin/opentelemetry/tracing"

	"restaurant-service/internal/shared/logging"
)

type Config struct {
	Driver       string // postgres | sqlite
	DSN          string
	Replicas     []string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
	Attempts     int
	Tracing      bool
}

type Store struct{ Base *gorm.DB }

// Read routes a query to a replica when replicas are registered.
func (s *Store) Read() *gorm.DB {
	return s.Base.Clauses(dbresolver.Read)
}

// Write pins a query to the primary.
func (s *Store) Write() *gorm.DB {
	return s.Base.Clauses(dbresolver.Write)
}

func (s *Store) Close() error {
	sqlDB, err := s.Base.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Open(cfg Config) (*Store, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 8
	}
	base, err := openWithRetry(cfg, cfg.Attempts, time.Second)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	sqlDB, err := base.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnLifetime)
	}

	if len(cfg.Replicas) > 0 {
		var readers []gorm.Dialector
		for _, r := range cfg.Replicas {
			readers = append(readers, dialector(cfg.Driver, r))
		}
		err := base.Use(dbresolver.Register(dbresolver.Config{
			Replicas: readers,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("dbresolver: %w", err)
		}
		logging.Info().Int("replicas", len(readers)).Msg("read replicas registered")
	}
	if cfg.Tracing {
		if err := base.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("db tracing: %w", err)
		}
	}
	return &Store{Base: base}, nil
}

func dialector(driver, dsn string) gorm.Dialector {
	if driver == "sqlite" {
		return sqlite.Open(sqliteDSN(dsn))
	}
	return postgres.Open(dsn)
}

// sqliteDSN turns on foreign key enforcement, which sqlite leaves off per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func openWithRetry(cfg Config, attempts int, sleep time.Duration) (*gorm.DB, error) {
	var last error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(dialector(cfg.Driver, cfg.DSN), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err == nil {
			s, e := db.DB()
			if e == nil {
				if e = pingWithTimeout(s, 2*time.Second); e == nil {
					return db, nil
				}
			}
			err = e
		}
		last = err
		logging.Warn().Err(err).Int("attempt", i).Msg("db not ready")
		if i == attempts {
			break
		}
		time.Sleep(sleep)
		if sleep < 8*time.Second {
			sleep *= 2
		}
	}
	return nil, last
}

func pingWithTimeout(sqlDB *sql.DB, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- sqlDB.Ping() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("db ping timeout after %s", timeout)
	}
}
