package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tick-task/internal/model"
)

// sqlitePragmas make read-modify-write transactions take the write lock up front
// and wait on contention instead of failing with SQLITE_BUSY.
const sqlitePragmas = "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

// NewDB opens a SQLite database and runs migrations.
func NewDB(dsn string, l lgr.L, debug bool) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "tick-task.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	dbLogger := logger.New(
		newGormWriter(l, debug),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	memory := isMemoryDSN(dsn)
	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if memory {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the tasks table and its indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Task{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if isMemoryDSN(dsn) {
		// WAL is meaningless in memory.
		return dsn + sep + "_busy_timeout=5000&_txlock=immediate"
	}
	return dsn + sep + sqlitePragmas
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if isMemoryDSN(dsn) {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// gormWriter routes gorm's logger into lgr.
type gormWriter struct {
	l      lgr.L
	prefix string
}

func newGormWriter(l lgr.L, debug bool) gormWriter {
	if l == nil {
		l = lgr.NoOp
	}
	// With debug on gorm traces every statement; keep those out of INFO.
	prefix := "WARN [gorm] "
	if debug {
		prefix = "DEBUG [gorm] "
	}
	return gormWriter{l: l, prefix: prefix}
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.l.Logf(w.prefix+format, args...)
}
