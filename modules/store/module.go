package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultMaxIdleConns = 2

// Module owns the database connection and exposes the repositories.
type Module struct {
	db            *gorm.DB
	users         *UserRepository
	messages      *MessageRepository
	notifications *NotificationRepository
	dbPath        string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new store module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "jobboard.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start opens the database connection and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[store] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(
		&User{}, &EmployeeProfile{}, &CompanyProfile{},
		&Message{}, &Notification{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.users = NewUserRepository(m.db)
	m.messages = NewMessageRepository(m.db)
	m.notifications = NewNotificationRepository(m.db)

	log.Println("[store] Module started successfully")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[store] Database connection closed")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// CloseIdleConnections drops all idle pooled connections. The connection
// gate calls this before authenticating so a worker forked from a parent
// process never reuses a stale inherited connection.
func (m *Module) CloseIdleConnections() {
	if m.db == nil {
		return
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return
	}
	// Shrinking the idle pool to zero closes every cached connection;
	// restoring the limit lets the pool refill with fresh ones.
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
}

// Users returns the user repository. Valid after Start.
func (m *Module) Users() *UserRepository {
	return m.users
}

// Messages returns the message repository. Valid after Start.
func (m *Module) Messages() *MessageRepository {
	return m.messages
}

// Notifications returns the notification repository. Valid after Start.
func (m *Module) Notifications() *NotificationRepository {
	return m.notifications
}

// DB returns the underlying gorm handle.
func (m *Module) DB() *gorm.DB {
	return m.db
}
