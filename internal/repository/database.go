package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite" // pure Go SQLite driver
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the gorm connection and the schema version it migrated to.
type Database struct {
	DB             *gorm.DB
	Driver         string
	SafeMode       bool
	SchemaVersion  int
	MigrationError string
}

// NewDatabase opens the configured store and migrates it.
func NewDatabase(cfg config.StorageConfig) (*Database, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir failed: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DBPath)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("storage.dsn is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database failed: %w", err)
	}

	if driver == "sqlite" {
		if err := configureSQLite(db); err != nil {
			return nil, fmt.Errorf("configure database failed: %w", err)
		}
	}

	d := &Database{DB: db, Driver: driver}
	if err := migrateWithVersion(db, d); err != nil {
		// Safe mode keeps the read paths available so operators can inspect the store.
		d.SafeMode = true
		d.MigrationError = err.Error()
		slog.Error("database migration failed, entering safe mode", "error", err)
	}

	slog.Info("database ready", "driver", driver, "schema_version", d.SchemaVersion)
	return d, nil
}

// configureSQLite applies pragmas; a single writer connection serialises
// compare-and-set updates the same way row locks do on postgres.
func configureSQLite(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("exec %s failed: %w", pragma, err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return nil
}

const latestSchemaVersion = 1

func migrateWithVersion(db *gorm.DB, out *Database) error {
	if db == nil {
		return fmt.Errorf("db must not be nil")
	}
	if out == nil {
		return fmt.Errorf("out must not be nil")
	}

	// schema_meta first, so a failed migration can still be recorded.
	if err := db.AutoMigrate(&schema.SchemaMeta{}); err != nil {
		return fmt.Errorf("create schema_meta failed: %w", err)
	}

	var meta schema.SchemaMeta
	err := db.First(&meta, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			meta = schema.SchemaMeta{ID: 1, SchemaVersion: 0}
			if err := db.Create(&meta).Error; err != nil {
				return fmt.Errorf("init schema_meta failed: %w", err)
			}
		} else {
			return fmt.Errorf("read schema_meta failed: %w", err)
		}
	}

	cur := meta.SchemaVersion
	out.SchemaVersion = cur

	if cur > latestSchemaVersion {
		return fmt.Errorf("schema_version=%d is newer than supported version %d", cur, latestSchemaVersion)
	}
	if cur == latestSchemaVersion {
		return nil
	}

	if err := db.AutoMigrate(schema.Models()...); err != nil {
		return fmt.Errorf("migrate database failed: %w", err)
	}

	meta.SchemaVersion = latestSchemaVersion
	if err := db.Save(&meta).Error; err != nil {
		return fmt.Errorf("write schema_meta failed: %w", err)
	}
	out.SchemaVersion = latestSchemaVersion
	return nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation recognises unique-constraint failures from both dialects.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// notFound maps gorm.ErrRecordNotFound to apperrors.ErrNotFound and wraps the rest.
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(kind, id)
	}
	return fmt.Errorf("query %s failed: %w", kind, err)
}
