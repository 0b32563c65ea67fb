package domain

import "time"

// Investigation lifecycle states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Investigation is one persisted search run against a target.
type Investigation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TargetType  string    `json:"targetType"`
	TargetValue string    `json:"targetValue"`
	Status      string    `json:"status"`
	RiskScore   float64   `json:"riskScore"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CollectedData is one source invocation's stored output for an
// investigation. Rows are write-once: created after scoring, never
// mutated.
type CollectedData struct {
	ID              string         `json:"id"`
	InvestigationID string         `json:"investigationId"`
	Source          string         `json:"source"`
	DataType        string         `json:"dataType"`
	RawData         map[string]any `json:"rawData,omitempty"`
	ProcessedData   map[string]any `json:"processedData,omitempty"`
	RiskLevel       string         `json:"riskLevel,omitempty"`
	CollectedAt     time.Time      `json:"collectedAt"`
}

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert is a severity-tagged finding derived from thresholds on the
// scored entity. Write-once.
type Alert struct {
	ID              string         `json:"id"`
	InvestigationID string         `json:"investigationId"`
	Severity        string         `json:"severity"`
	AlertType       string         `json:"alertType"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Evidence        map[string]any `json:"evidence,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}
