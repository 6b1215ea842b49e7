package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/guardiavista/guardia-go/internal/logging"
)

// slowQueryThreshold is the duration after which a query is reported slow.
const slowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		slogWriter{log: logging.ForService("datastore")},
		gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// slogWriter adapts slog to gorm's Printf-style logger interface.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Info(fmt.Sprintf(format, args...))
}

// performAutoMigration creates or updates the schema for all model tables.
func performAutoMigration(db *gorm.DB, debug bool, backend, source string) error {
	if err := db.AutoMigrate(&Alert{}, &Destination{}, &EscalationRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", backend, err)
	}
	if debug {
		logging.ForService("datastore").Debug("database schema migrated",
			"backend", backend, "source", source)
	}
	return nil
}
