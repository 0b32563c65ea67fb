package repository

// Schema definitions for the Kite database.
// Compatible with both SQLite and PostgreSQL.

const schemaInvestigations = `
CREATE TABLE IF NOT EXISTS investigations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_value TEXT NOT NULL,
    status TEXT NOT NULL,
    risk_score REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_investigations_status ON investigations(status);
CREATE INDEX IF NOT EXISTS idx_investigations_target ON investigations(target_type, target_value);
CREATE INDEX IF NOT EXISTS idx_investigations_created ON investigations(created_at);
`

const schemaCollectedData = `
CREATE TABLE IF NOT EXISTS collected_data (
    id TEXT PRIMARY KEY,
    investigation_id TEXT NOT NULL,
    source TEXT NOT NULL,
    data_type TEXT NOT NULL,
    raw_data TEXT,
    processed_data TEXT,
    risk_level TEXT,
    collected_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_collected_data_investigation ON collected_data(investigation_id);
CREATE INDEX IF NOT EXISTS idx_collected_data_source ON collected_data(investigation_id, source);
`

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    investigation_id TEXT NOT NULL,
    severity TEXT NOT NULL,
    alert_type TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    evidence TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_investigation ON alerts(investigation_id);
CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity);
`

const schemaAlertRules = `
CREATE TABLE IF NOT EXISTS alert_rules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    severity TEXT NOT NULL,
    alert_type TEXT NOT NULL,
    title TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_rules_enabled ON alert_rules(enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaInvestigations,
		schemaCollectedData,
		schemaAlerts,
		schemaAlertRules,
	}
}
