package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence. Investigations
// are the only mutable record kind (status and risk score advance with
// the lifecycle); collected data and alerts are append-only.
type Repository interface {
	// Investigation operations
	CreateInvestigation(ctx context.Context, inv *Investigation) error
	UpdateInvestigation(ctx context.Context, id string, status string, riskScore float64) error
	GetInvestigation(ctx context.Context, id string) (*Investigation, error)
	ListInvestigations(ctx context.Context, limit int) ([]*Investigation, error)

	// Collected data (write-once, one row per source invocation)
	SaveCollectedData(ctx context.Context, data *CollectedData) error
	ListCollectedData(ctx context.Context, investigationID string) ([]*CollectedData, error)

	// Alerts (write-once)
	SaveAlert(ctx context.Context, alert *Alert) error
	ListAlerts(ctx context.Context, investigationID string) ([]*Alert, error)

	// Alert rule configuration
	SaveAlertRule(ctx context.Context, rule *AlertRule) error
	GetAlertRule(ctx context.Context, ruleID string) (*AlertRule, error)
	ListAlertRules(ctx context.Context) ([]*AlertRule, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
