package database

import (
	"fmt"
	"time"

	"github.com/domain80/centabit-core/internal/config"
	"github.com/domain80/centabit-core/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// allModels is the list of all GORM models to auto-migrate.
var allModels = []interface{}{
	&models.Transaction{},
	&models.Category{},
	&models.Budget{},
	&models.Allocation{},
	&models.SyncIntent{},
	&models.SyncCheckpoint{},
}

// Manager owns the durable store connection and the change bus that
// drives live queries. All writes go through the store layer, which
// calls Notify after each committed write; watchers re-run their query
// on every notification, so a re-evaluation only ever observes
// committed state.
type Manager struct {
	db  *gorm.DB
	bus *changeBus
}

// Open connects to the durable store selected by the configuration and
// migrates the schema. The sqlite driver is the default; postgres is
// selected with DB_DRIVER=postgres and a DB_DSN.
func Open(cfg *config.Config) (*Manager, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DBDSN,
			PreferSimpleProtocol: true,
		})
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.DBDriver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// Serialize access: sqlite allows a single writer and watch
		// re-queries run concurrently with writes.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Manager{db: db, bus: newChangeBus()}, nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Notify signals every watcher of the given table that a write has
// committed. Called by the store layer only after a successful commit.
func (m *Manager) Notify(table string) {
	m.bus.notify(table)
}

// Subscribe registers a watcher for the given table. The returned
// channel has capacity one and coalesces bursts of notifications; the
// cancel function releases the subscription.
func (m *Manager) Subscribe(table string) (<-chan struct{}, func()) {
	return m.bus.subscribe(table)
}

// Close tears down the change bus and the underlying connection.
func (m *Manager) Close() error {
	m.bus.close()
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}
