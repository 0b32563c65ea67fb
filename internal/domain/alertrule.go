package domain

// AlertRule defines a condition over a scored report that raises an
// alert when it evaluates to true.
type AlertRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Expression is a CEL boolean expression over the report variables
	// (risk_score, tier, vuln_count, critical_ports, breach_count,
	// open_ports, platform_count, confidence_score, verified_emails,
	// target_type).
	Expression string `json:"expression"`

	// Severity and AlertType are stamped onto raised alerts.
	Severity  string `json:"severity"`
	AlertType string `json:"alertType"`
	Title     string `json:"title"`

	Enabled bool `json:"enabled"`
}

// DefaultAlertRules returns the built-in alert conditions. They are
// loaded when the database holds no rules; once persisted they can be
// edited via the API like any other rule.
func DefaultAlertRules() []*AlertRule {
	return []*AlertRule{
		{
			ID:          "vulnerabilities-found",
			Name:        "Known vulnerabilities present",
			Description: "The target host exposes services with known CVEs.",
			Expression:  "vuln_count > 0",
			Severity:    SeverityHigh,
			AlertType:   "vulnerability_exposure",
			Title:       "Known vulnerabilities detected",
			Enabled:     true,
		},
		{
			ID:          "critical-port-open",
			Name:        "Critical service port open",
			Description: "At least one high-value service port (SSH, RDP, database, ...) is reachable.",
			Expression:  "size(critical_ports) > 0",
			Severity:    SeverityMedium,
			AlertType:   "exposed_service",
			Title:       "Critical port open",
			Enabled:     true,
		},
		{
			ID:          "high-risk-score",
			Name:        "High aggregate risk",
			Description: "The investigation's risk score crossed the high-risk threshold.",
			Expression:  "risk_score >= 50.0",
			Severity:    SeverityHigh,
			AlertType:   "high_risk_target",
			Title:       "High risk score",
			Enabled:     true,
		},
	}
}
