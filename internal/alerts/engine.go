// Package alerts provides the CEL-Go based alert rule engine.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/uuid"

	"github.com/openrecon/kite/internal/domain"
)

// Engine evaluates alert rules against scored investigation results.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.AlertRule
	Program cel.Program
}

// NewEngine creates an alert engine with the report variable set.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("risk_score", cel.DoubleType),
		cel.Variable("tier", cel.StringType),
		cel.Variable("target_type", cel.StringType),
		cel.Variable("breach_count", cel.IntType),
		cel.Variable("vuln_count", cel.IntType),
		cel.Variable("open_ports", cel.ListType(cel.IntType)),
		cel.Variable("critical_ports", cel.ListType(cel.StringType)),
		cel.Variable("platform_count", cel.IntType),
		cel.Variable("verified_emails", cel.IntType),
		cel.Variable("confidence_score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(rule *domain.AlertRule) error {
	if rule == nil {
		return fmt.Errorf("alert rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads one rule into the engine.
func (e *Engine) LoadRule(rule *domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiledRules[rule.ID] = compiled
	return nil
}

// LoadRules compiles and loads all enabled rules.
func (e *Engine) LoadRules(rules []*domain.AlertRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules atomically replaces the loaded rule set. This enables
// hot-reloading of rules from the database.
func (e *Engine) ReloadRules(rules []*domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		newRules[rule.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// LoadedRules returns the currently loaded rule definitions.
func (e *Engine) LoadedRules() []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.AlertRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Close clears the loaded rule set.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

// EvaluateInput carries the report variables the rule expressions see.
type EvaluateInput struct {
	InvestigationID string
	TargetType      string
	RiskScore       float64
	Tier            domain.RiskTier
	BreachCount     int
	VulnCount       int
	OpenPorts       []int
	CriticalPorts   []string
	PlatformCount   int
	VerifiedEmails  int
	ConfidenceScore float64
}

// Evaluate runs every loaded rule against the input and returns one
// draft alert per rule that evaluates to true. A rule that errors at
// runtime is skipped; it never blocks the other rules.
func (e *Engine) Evaluate(input *EvaluateInput) []domain.Alert {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	openPorts := input.OpenPorts
	if openPorts == nil {
		openPorts = []int{}
	}
	criticalPorts := input.CriticalPorts
	if criticalPorts == nil {
		criticalPorts = []string{}
	}

	activation := map[string]any{
		"risk_score":       input.RiskScore,
		"tier":             string(input.Tier),
		"target_type":      input.TargetType,
		"breach_count":     input.BreachCount,
		"vuln_count":       input.VulnCount,
		"open_ports":       openPorts,
		"critical_ports":   criticalPorts,
		"platform_count":   input.PlatformCount,
		"verified_emails":  input.VerifiedEmails,
		"confidence_score": input.ConfidenceScore,
	}

	var alerts []domain.Alert
	for _, rule := range rules {
		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			continue
		}
		if out != types.True {
			continue
		}

		alerts = append(alerts, domain.Alert{
			ID:              uuid.New().String(),
			InvestigationID: input.InvestigationID,
			Severity:        rule.Rule.Severity,
			AlertType:       rule.Rule.AlertType,
			Title:           rule.Rule.Title,
			Description:     rule.Rule.Description,
			Evidence: map[string]any{
				"rule_id":        rule.Rule.ID,
				"expression":     rule.Rule.Expression,
				"risk_score":     input.RiskScore,
				"tier":           string(input.Tier),
				"breach_count":   input.BreachCount,
				"vuln_count":     input.VulnCount,
				"critical_ports": criticalPorts,
			},
			CreatedAt: time.Now().UTC(),
		})
	}

	return alerts
}

func (e *Engine) compileRule(rule *domain.AlertRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile alert rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("alert rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for alert rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{Rule: rule, Program: program}, nil
}
