package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	appLogger "github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

func gormConfig(environment string) *gorm.Config {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	return &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}
}

// Initialize opens the Postgres connection described by dsn and stores it in DB.
func Initialize(dsn, environment string) error {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(environment))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
		return fmt.Errorf("failed to register tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	appLogger.Log.Info("Database connected successfully")

	return nil
}

// OpenSQLite opens a sqlite database, used by tests and local development.
// In-memory databases are pinned to one connection so every query sees the
// same schema.
func OpenSQLite(path string) (*gorm.DB, error) {
	cfg := gormConfig("test")
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate runs auto-migration for all models on DB
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// MigrateDB runs auto-migration and index creation against db.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	appLogger.Log.Debug("Database migrations completed", zap.Int("models", len(models.AllModels())))
	return nil
}

// PendingTables returns the tables of registered models that do not exist yet.
func PendingTables(db *gorm.DB) ([]string, error) {
	var pending []string
	for _, model := range models.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		if !db.Migrator().HasTable(stmt.Schema.Table) {
			pending = append(pending, stmt.Schema.Table)
		}
	}
	return pending, nil
}

// createIndexes creates composite and partial indexes AutoMigrate cannot express.
// The partial unique indexes back the "one live row per pair" rules.
func createIndexes(db *gorm.DB) error {
	statements := []string{
		// At most one pending or accepted affiliation per agent/player
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_affiliations_live_pair ON affiliations (agent_id, player_id) WHERE status IN ('pending', 'accepted')",
		// At most one live application per opportunity/applicant
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_live_pair ON applications (opportunity_id, applicant_id) WHERE status NOT IN ('withdrawn', 'rejected') AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_club_join_requests_pending ON club_join_requests (club_id, user_id) WHERE status = 'pending' AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_club_memberships_active ON club_memberships (club_id, user_id) WHERE status = 'active'",

		"CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_messages_receiver_read ON messages (receiver_id, read)",
		"CREATE INDEX IF NOT EXISTS idx_opportunities_status_expiry ON opportunities (status, expiry_date)",
		"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC)",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health pings the database
func Health(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
