package domain

import "time"

// Report is the externally visible result of one investigation: the
// correlated entity split into the report shape the API exposes, plus
// the risk assessment.
type Report struct {
	InvestigationID string      `json:"investigationId"`
	Query           string      `json:"query"`
	DetectedTypes   []QueryType `json:"detected_types"`
	Depth           SearchDepth `json:"depth"`

	VerifiedEmails       []Fact `json:"verified_emails"`
	PotentialEmails      []Fact `json:"potential_emails"`
	VerifiedUsernames    []Fact `json:"verified_usernames"`
	PotentialUsernames   []Fact `json:"potential_usernames"`
	SocialProfiles       []Fact `json:"social_profiles"`
	ProfessionalProfiles []Fact `json:"professional_profiles"`
	Companies            []Fact `json:"companies"`
	Domains              []Fact `json:"domains"`
	PhoneNumbers         []Fact `json:"phone_numbers"`
	Breaches             []Fact `json:"breaches"`

	Relationships []Relationship `json:"relationships"`

	// Results holds the raw per-source outcome blobs, failures included.
	Results map[string]SourceResult `json:"results"`

	RiskScore float64  `json:"risk_score"`
	RiskTier  RiskTier `json:"risk_tier"`

	Summary Summary `json:"summary"`

	ElapsedMs int64     `json:"elapsed_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the condensed view shown at the top of a report.
type Summary struct {
	TotalSources        int `json:"total_sources"`
	SucceededSources    int `json:"succeeded_sources"`
	VerifiedEmails      int `json:"verified_emails"`
	SocialProfilesFound int `json:"social_profiles_found"`
	BreachesFound       int `json:"breaches_found"`

	// ConfidenceScore measures breadth of findings across fact
	// categories, not statistical certainty.
	ConfidenceScore float64 `json:"confidence_score"`
}

// RiskTier is a step function of the risk score.
type RiskTier string

const (
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)
