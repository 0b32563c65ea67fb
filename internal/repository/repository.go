// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openrecon/kite/internal/domain"
)

var (
	ErrNotFound     = domain.ErrNotFound
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvestigation stores a new investigation record.
func (r *SQLRepository) CreateInvestigation(ctx context.Context, inv *domain.Investigation) error {
	if inv.ID == "" {
		return fmt.Errorf("%w: investigation id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO investigations (
			id, name, target_type, target_value, status, risk_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		inv.ID, inv.Name, inv.TargetType, inv.TargetValue,
		inv.Status, inv.RiskScore, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

// UpdateInvestigation advances an investigation's lifecycle status and
// risk score.
func (r *SQLRepository) UpdateInvestigation(ctx context.Context, id string, status string, riskScore float64) error {
	query := `
		UPDATE investigations
		SET status = ?, risk_score = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), status, riskScore, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetInvestigation retrieves an investigation by ID.
func (r *SQLRepository) GetInvestigation(ctx context.Context, id string) (*domain.Investigation, error) {
	query := `
		SELECT id, name, target_type, target_value, status, risk_score, created_at, updated_at
		FROM investigations
		WHERE id = ?
	`

	var inv domain.Investigation
	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&inv.ID, &inv.Name, &inv.TargetType, &inv.TargetValue,
		&inv.Status, &inv.RiskScore, &inv.CreatedAt, &inv.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// ListInvestigations retrieves the most recent investigations.
func (r *SQLRepository) ListInvestigations(ctx context.Context, limit int) ([]*domain.Investigation, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, name, target_type, target_value, status, risk_score, created_at, updated_at
		FROM investigations
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investigations []*domain.Investigation
	for rows.Next() {
		var inv domain.Investigation
		if err := rows.Scan(
			&inv.ID, &inv.Name, &inv.TargetType, &inv.TargetValue,
			&inv.Status, &inv.RiskScore, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		investigations = append(investigations, &inv)
	}

	return investigations, rows.Err()
}

// SaveCollectedData stores one source invocation's output.
func (r *SQLRepository) SaveCollectedData(ctx context.Context, data *domain.CollectedData) error {
	if data.InvestigationID == "" {
		return fmt.Errorf("%w: investigation id is required", ErrInvalidInput)
	}

	rawData, _ := json.Marshal(data.RawData)
	processedData, _ := json.Marshal(data.ProcessedData)

	query := `
		INSERT INTO collected_data (
			id, investigation_id, source, data_type, raw_data, processed_data, risk_level, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		data.ID, data.InvestigationID, data.Source, data.DataType,
		string(rawData), string(processedData), data.RiskLevel, data.CollectedAt,
	)
	return err
}

// ListCollectedData retrieves all stored source output for an
// investigation.
func (r *SQLRepository) ListCollectedData(ctx context.Context, investigationID string) ([]*domain.CollectedData, error) {
	query := `
		SELECT id, investigation_id, source, data_type, raw_data, processed_data, risk_level, collected_at
		FROM collected_data
		WHERE investigation_id = ?
		ORDER BY collected_at, source
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.CollectedData
	for rows.Next() {
		var d domain.CollectedData
		var rawData, processedData string

		if err := rows.Scan(
			&d.ID, &d.InvestigationID, &d.Source, &d.DataType,
			&rawData, &processedData, &d.RiskLevel, &d.CollectedAt,
		); err != nil {
			return nil, err
		}

		if rawData != "" && rawData != "null" {
			json.Unmarshal([]byte(rawData), &d.RawData)
		}
		if processedData != "" && processedData != "null" {
			json.Unmarshal([]byte(processedData), &d.ProcessedData)
		}

		records = append(records, &d)
	}

	return records, rows.Err()
}

// SaveAlert stores a raised alert.
func (r *SQLRepository) SaveAlert(ctx context.Context, alert *domain.Alert) error {
	if alert.InvestigationID == "" {
		return fmt.Errorf("%w: investigation id is required", ErrInvalidInput)
	}

	evidence, _ := json.Marshal(alert.Evidence)

	query := `
		INSERT INTO alerts (
			id, investigation_id, severity, alert_type, title, description, evidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		alert.ID, alert.InvestigationID, alert.Severity, alert.AlertType,
		alert.Title, alert.Description, string(evidence), alert.CreatedAt,
	)
	return err
}

// ListAlerts retrieves all alerts raised for an investigation.
func (r *SQLRepository) ListAlerts(ctx context.Context, investigationID string) ([]*domain.Alert, error) {
	query := `
		SELECT id, investigation_id, severity, alert_type, title, description, evidence, created_at
		FROM alerts
		WHERE investigation_id = ?
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var a domain.Alert
		var evidence string

		if err := rows.Scan(
			&a.ID, &a.InvestigationID, &a.Severity, &a.AlertType,
			&a.Title, &a.Description, &evidence, &a.CreatedAt,
		); err != nil {
			return nil, err
		}

		if evidence != "" && evidence != "null" {
			json.Unmarshal([]byte(evidence), &a.Evidence)
		}

		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// SaveAlertRule stores or updates an alert rule definition.
func (r *SQLRepository) SaveAlertRule(ctx context.Context, rule *domain.AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO alert_rules (
			id, name, description, expression, severity, alert_type, title, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			severity = excluded.severity,
			alert_type = excluded.alert_type,
			title = excluded.title,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.Expression,
		rule.Severity, rule.AlertType, rule.Title, enabled,
		now, now,
	)
	return err
}

// GetAlertRule retrieves one alert rule by ID.
func (r *SQLRepository) GetAlertRule(ctx context.Context, ruleID string) (*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, expression, severity, alert_type, title, enabled
		FROM alert_rules
		WHERE id = ?
	`

	var rule domain.AlertRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), ruleID).Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Expression,
		&rule.Severity, &rule.AlertType, &rule.Title, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	return &rule, nil
}

// ListAlertRules retrieves all alert rule definitions.
func (r *SQLRepository) ListAlertRules(ctx context.Context) ([]*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, expression, severity, alert_type, title, enabled
		FROM alert_rules
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		var rule domain.AlertRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.Expression,
			&rule.Severity, &rule.AlertType, &rule.Title, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
