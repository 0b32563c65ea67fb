// Package orchestrator runs the search pipeline: plan adapters, fan out
// probes, correlate, score, raise alerts and persist the outcome.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openrecon/kite/internal/alerts"
	"github.com/openrecon/kite/internal/correlate"
	"github.com/openrecon/kite/internal/detect"
	"github.com/openrecon/kite/internal/domain"
	"github.com/openrecon/kite/internal/score"
	"github.com/openrecon/kite/internal/variations"
)

// Orchestrator coordinates one search end to end. Repository, cache and
// bus are best-effort collaborators: their failures are logged and the
// search proceeds without them.
type Orchestrator struct {
	adapters []domain.SourceAdapter
	engine   *correlate.Engine
	scorer   *score.Scorer
	alerts   *alerts.Engine

	repo  domain.Repository
	cache domain.Cache
	bus   domain.EventBus

	resultTTL time.Duration
	logger    *slog.Logger
}

// Options carries the orchestrator's collaborators.
type Options struct {
	Adapters    []domain.SourceAdapter
	Correlator  *correlate.Engine
	Scorer      *score.Scorer
	AlertEngine *alerts.Engine

	Repository domain.Repository
	Cache      domain.Cache
	EventBus   domain.EventBus

	ResultTTL time.Duration
	Logger    *slog.Logger
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Orchestrator{
		adapters:  opts.Adapters,
		engine:    opts.Correlator,
		scorer:    opts.Scorer,
		alerts:    opts.AlertEngine,
		repo:      opts.Repository,
		cache:     opts.Cache,
		bus:       opts.EventBus,
		resultTTL: ttl,
		logger:    logger,
	}
}

// Search runs the full pipeline for one request and returns the report.
func (o *Orchestrator) Search(ctx context.Context, req *domain.SearchRequest) (*domain.Report, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	start := time.Now()

	detection := detect.Detect(query)
	types := detection.Types
	if len(req.SearchTypes) > 0 {
		types = req.SearchTypes
	}
	depth := req.EffectiveDepth()

	inv := &domain.Investigation{
		ID:          uuid.New().String(),
		Name:        query,
		TargetType:  string(primaryType(types)),
		TargetValue: query,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	o.createInvestigation(ctx, inv)
	o.publish(ctx, domain.TopicSearchRequested, map[string]any{
		"investigation_id": inv.ID,
		"query":            query,
		"depth":            string(depth),
	})

	o.updateInvestigation(ctx, inv.ID, domain.StatusRunning, 0)

	plan := o.plan(types, depth, &detection)
	o.logger.Info("search planned",
		"investigation_id", inv.ID,
		"query", query,
		"types", types,
		"depth", depth,
		"adapters", len(plan))

	results := o.fanOut(ctx, plan)

	if ctx.Err() != nil {
		o.updateInvestigation(ctx, inv.ID, domain.StatusFailed, 0)
		return nil, ctx.Err()
	}

	entity := o.engine.Correlate(query, results)
	findings := o.scorer.Extract(results)
	riskScore, tier := o.scorer.Score(types, findings)

	report := buildReport(inv.ID, query, types, depth, entity, results)
	report.RiskScore = float64(riskScore)
	report.RiskTier = tier
	report.ElapsedMs = time.Since(start).Milliseconds()
	report.Timestamp = time.Now().UTC()

	raised := o.raiseAlerts(ctx, inv.ID, string(primaryType(types)), report, findings)

	o.persistResults(ctx, inv.ID, results, tier)
	o.updateInvestigation(ctx, inv.ID, domain.StatusCompleted, report.RiskScore)
	o.publish(ctx, domain.TopicSearchCompleted, map[string]any{
		"investigation_id": inv.ID,
		"query":            query,
		"risk_score":       report.RiskScore,
		"risk_tier":        string(tier),
		"alerts":           len(raised),
		"elapsed_ms":       report.ElapsedMs,
	})

	o.logger.Info("search completed",
		"investigation_id", inv.ID,
		"query", query,
		"sources", report.Summary.SucceededSources,
		"risk_score", report.RiskScore,
		"risk_tier", tier,
		"elapsed_ms", report.ElapsedMs)

	return report, nil
}

// probeTask pairs an adapter with the query string it should receive.
type probeTask struct {
	adapter domain.SourceAdapter
	query   string
}

// plan selects adapters by supported type and depth tier. A URL query is
// probed by domain adapters through its host. A person or e-mail target
// has no literal handle, so username-enumeration adapters probe the
// derived candidate instead.
func (o *Orchestrator) plan(types []domain.QueryType, depth domain.SearchDepth, detection *domain.Detection) []probeTask {
	handle := derivedHandle(types, detection.Query)

	var tasks []probeTask
	for _, a := range o.adapters {
		if !tierAllowed(a.Tier(), depth) {
			continue
		}
		matched := false
		for _, t := range types {
			if !a.Supports(t) {
				continue
			}
			q := detection.Query
			if t == domain.TypeDomain && detection.Has(domain.TypeURL) {
				if host := detect.Host(detection.Query); host != "" {
					q = host
				}
			}
			tasks = append(tasks, probeTask{adapter: a, query: q})
			matched = true
			break
		}
		if !matched && handle != "" && a.Supports(domain.TypeUsername) {
			tasks = append(tasks, probeTask{adapter: a, query: handle})
		}
	}
	return tasks
}

// derivedHandle builds the username candidate for targets that are not
// themselves handles: the name's canonical join, or the e-mail local
// part's canonical join.
func derivedHandle(types []domain.QueryType, query string) string {
	for _, t := range types {
		if t == domain.TypeUsername {
			return ""
		}
	}
	for _, t := range types {
		switch t {
		case domain.TypeName:
			return variations.Primary(query)
		case domain.TypeEmail:
			if at := strings.IndexByte(query, '@'); at > 0 {
				return variations.Primary(strings.ReplaceAll(query[:at], ".", " "))
			}
		}
	}
	return ""
}

// fanOut probes every planned adapter concurrently and joins all
// results. Each probe gets its own timeout; cached results short-circuit
// the call entirely.
func (o *Orchestrator) fanOut(ctx context.Context, tasks []probeTask) []domain.SourceResult {
	results := make([]domain.SourceResult, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t probeTask) {
			defer wg.Done()
			results[idx] = o.probeOne(ctx, t)
		}(i, task)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) probeOne(ctx context.Context, t probeTask) (res domain.SourceResult) {
	name := t.adapter.Name()

	// Adapters promise not to panic, but a violation must not take the
	// whole fan-out down.
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("adapter panicked", "source", name, "panic", r)
			res = domain.Failure(name, t.query, fmt.Sprintf("panic: %v", r), 0)
		}
	}()

	if o.cache != nil {
		if cached, err := o.cache.GetResult(ctx, name, t.query); err != nil {
			o.logger.Warn("cache lookup failed", "source", name, "error", err)
		} else if cached != nil {
			o.logger.Debug("cache hit", "source", name, "query", t.query)
			return *cached
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, t.adapter.Timeout())
	defer cancel()

	res = t.adapter.Probe(probeCtx, t.query)

	if res.OK() && o.cache != nil {
		if err := o.cache.SetResult(ctx, name, t.query, &res, o.resultTTL); err != nil {
			o.logger.Warn("cache store failed", "source", name, "error", err)
		}
	}
	if !res.OK() {
		o.logger.Debug("probe failed", "source", name, "query", t.query, "reason", res.Error)
	}

	return res
}

// raiseAlerts evaluates the alert rules and persists and publishes every
// raised alert.
func (o *Orchestrator) raiseAlerts(ctx context.Context, invID, targetType string, report *domain.Report, f score.Findings) []domain.Alert {
	if o.alerts == nil {
		return nil
	}

	raised := o.alerts.Evaluate(&alerts.EvaluateInput{
		InvestigationID: invID,
		TargetType:      targetType,
		RiskScore:       report.RiskScore,
		Tier:            report.RiskTier,
		BreachCount:     f.BreachCount,
		VulnCount:       len(f.Vulns),
		OpenPorts:       f.OpenPorts,
		CriticalPorts:   f.CriticalPorts,
		PlatformCount:   f.PlatformCount,
		VerifiedEmails:  len(report.VerifiedEmails),
		ConfidenceScore: report.Summary.ConfidenceScore,
	})

	for i := range raised {
		a := &raised[i]
		if o.repo != nil {
			if err := o.repo.SaveAlert(ctx, a); err != nil {
				o.logger.Error("failed to save alert", "investigation_id", invID, "error", err)
			}
		}
		o.publish(ctx, domain.TopicAlertRaised, map[string]any{
			"investigation_id": invID,
			"alert_id":         a.ID,
			"severity":         a.Severity,
			"alert_type":       a.AlertType,
			"title":            a.Title,
		})
	}

	return raised
}

// persistResults stores one collected-data row per source result.
func (o *Orchestrator) persistResults(ctx context.Context, invID string, results []domain.SourceResult, tier domain.RiskTier) {
	if o.repo == nil {
		return
	}
	for i := range results {
		res := &results[i]
		row := &domain.CollectedData{
			ID:              uuid.New().String(),
			InvestigationID: invID,
			Source:          res.SourceName,
			DataType:        res.Status,
			RawData:         res.Data,
			RiskLevel:       string(tier),
			CollectedAt:     time.Now().UTC(),
		}
		if !res.OK() {
			row.ProcessedData = map[string]any{"error": res.Error}
		}
		if err := o.repo.SaveCollectedData(ctx, row); err != nil {
			o.logger.Error("failed to save collected data",
				"investigation_id", invID, "source", res.SourceName, "error", err)
		}
	}
}

func (o *Orchestrator) createInvestigation(ctx context.Context, inv *domain.Investigation) {
	if o.repo == nil {
		return
	}
	if err := o.repo.CreateInvestigation(ctx, inv); err != nil {
		o.logger.Error("failed to create investigation", "investigation_id", inv.ID, "error", err)
	}
}

func (o *Orchestrator) updateInvestigation(ctx context.Context, id, status string, riskScore float64) {
	if o.repo == nil {
		return
	}
	if err := o.repo.UpdateInvestigation(ctx, id, status, riskScore); err != nil {
		o.logger.Error("failed to update investigation",
			"investigation_id", id, "status", status, "error", err)
	}
}

func (o *Orchestrator) publish(ctx context.Context, topic string, payload map[string]any) {
	if o.bus == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := o.bus.Publish(ctx, topic, body); err != nil {
		o.logger.Warn("event publish failed", "topic", topic, "error", err)
	}
}

// buildReport maps the correlated entity into the externally visible
// report shape.
func buildReport(invID, query string, types []domain.QueryType, depth domain.SearchDepth, entity *domain.Entity, results []domain.SourceResult) *domain.Report {
	byName := make(map[string]domain.SourceResult, len(results))
	succeeded := 0
	for _, r := range results {
		byName[r.SourceName] = r
		if r.OK() {
			succeeded++
		}
	}

	report := &domain.Report{
		InvestigationID: invID,
		Query:           query,
		DetectedTypes:   types,
		Depth:           depth,

		VerifiedEmails:       entity.Verified(domain.FactEmail),
		PotentialEmails:      entity.Potential(domain.FactEmail),
		VerifiedUsernames:    entity.Verified(domain.FactUsername),
		PotentialUsernames:   entity.Potential(domain.FactUsername),
		SocialProfiles:       entity.FactsOf(domain.FactSocialProfile),
		ProfessionalProfiles: entity.FactsOf(domain.FactProfessionalProfile),
		Companies:            entity.FactsOf(domain.FactCompany),
		Domains:              entity.FactsOf(domain.FactDomain),
		PhoneNumbers:         entity.FactsOf(domain.FactPhone),
		Breaches:             entity.FactsOf(domain.FactBreach),

		Relationships: entity.Relationships,
		Results:       byName,
	}

	report.Summary = domain.Summary{
		TotalSources:        len(results),
		SucceededSources:    succeeded,
		VerifiedEmails:      len(report.VerifiedEmails),
		SocialProfilesFound: len(report.SocialProfiles),
		BreachesFound:       len(report.Breaches),
		ConfidenceScore:     entity.ConfidenceScore,
	}

	return report
}

func primaryType(types []domain.QueryType) domain.QueryType {
	if len(types) == 0 {
		return domain.TypeName
	}
	return types[0]
}

func tierAllowed(tier domain.AdapterTier, depth domain.SearchDepth) bool {
	switch depth {
	case domain.DepthUltraDeep:
		return true
	case domain.DepthDeep:
		return tier != domain.TierUltraDeep
	default:
		return tier == domain.TierFast
	}
}
