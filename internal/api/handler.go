package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openrecon/kite/internal/alerts"
	"github.com/openrecon/kite/internal/detect"
	"github.com/openrecon/kite/internal/domain"
	"github.com/openrecon/kite/internal/variations"
)

// Searcher runs one investigation end to end. Implemented by the
// orchestrator; narrowed to an interface so handlers can be tested
// against a fake.
type Searcher interface {
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.Report, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	searcher Searcher
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *alerts.Engine
	adapters []domain.SourceAdapter
	gen      *variations.Generator
	version  string
	started  time.Time
}

// NewHandler creates a new API handler.
func NewHandler(searcher Searcher, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *alerts.Engine, adapters []domain.SourceAdapter, gen *variations.Generator, version string) *Handler {
	if gen == nil {
		gen = variations.New(nil)
	}
	return &Handler{
		searcher: searcher,
		repo:     repo,
		cache:    cache,
		bus:      bus,
		engine:   engine,
		adapters: adapters,
		gen:      gen,
		version:  version,
		started:  time.Now().UTC(),
	}
}

// DetectRequest is the request body for POST /api/detect.
type DetectRequest struct {
	Query string `json:"query"`
}

// Detect classifies a query string without running a search.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "query is required",
		})
		return
	}

	detection := detect.Detect(req.Query)
	writeJSON(w, http.StatusOK, detection)
}

// VariationsRequest is the request body for POST /api/variations.
type VariationsRequest struct {
	Name string `json:"name"`
}

// Variations returns the candidate name, username and e-mail forms for
// a person target.
func (h *Handler) Variations(w http.ResponseWriter, r *http.Request) {
	var req VariationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":      req.Name,
		"names":     h.gen.NameVariations(req.Name),
		"usernames": h.gen.UsernameVariations(req.Name),
		"emails":    h.gen.EmailVariations(req.Name),
	})
}

// Search handles POST /api/search requests.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	report, err := h.searcher.Search(ctx, &req)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "query is required",
			})
			return
		}
		slog.Error("search failed", "query", req.Query, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "search failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check bus health
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// Stats returns runtime statistics about the search pipeline.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	sources := make([]string, 0, len(h.adapters))
	for _, a := range h.adapters {
		sources = append(sources, a.Name())
	}

	rulesLoaded := 0
	if h.engine != nil {
		rulesLoaded = h.engine.RulesCount()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"sources":        sources,
		"source_count":   len(sources),
		"rules_loaded":   rulesLoaded,
	})
}

// ListInvestigations returns the most recent investigations.
func (h *Handler) ListInvestigations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	list, err := h.repo.ListInvestigations(ctx, limit)
	if err != nil {
		slog.Error("failed to list investigations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list investigations",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"investigations": list,
		"count":          len(list),
	})
}

// GetInvestigation retrieves an investigation by ID.
func (h *Handler) GetInvestigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	inv, err := h.repo.GetInvestigation(ctx, invID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "investigation not found",
			})
			return
		}
		slog.Error("failed to get investigation", "id", invID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get investigation",
		})
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

// ListCollectedData returns the stored per-source outputs for an investigation.
func (h *Handler) ListCollectedData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rows, err := h.repo.ListCollectedData(ctx, invID)
	if err != nil {
		slog.Error("failed to list collected data", "id", invID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list collected data",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  rows,
		"count": len(rows),
	})
}

// ListInvestigationAlerts returns the alerts raised for an investigation.
func (h *Handler) ListInvestigationAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	list, err := h.repo.ListAlerts(ctx, invID)
	if err != nil {
		slog.Error("failed to list alerts", "id", invID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list alerts",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": list,
		"count":  len(list),
	})
}

// ListAlertRules returns all rules currently loaded in the engine.
// Rules are loaded from the database at startup and can be reloaded via
// POST /api/alert-rules/reload.
func (h *Handler) ListAlertRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.engine.LoadedRules()

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  loaded,
		"count":  len(loaded),
		"source": "database",
	})
}

// GetAlertRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetAlertRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	for _, rule := range h.engine.LoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateAlertRuleRequest is the request body for creating a rule.
type CreateAlertRuleRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Expression  string `json:"expression"`
	Severity    string `json:"severity"`
	AlertType   string `json:"alertType"`
	Title       string `json:"title"`
	Enabled     bool   `json:"enabled"`
}

// CreateAlertRule creates a new alert rule and saves it to the database.
// After saving, call POST /api/alert-rules/reload to hot-reload into the
// engine.
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate
	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	rule := &domain.AlertRule{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Severity:    req.Severity,
		AlertType:   req.AlertType,
		Title:       req.Title,
		Enabled:     req.Enabled,
	}
	if rule.Severity == "" {
		rule.Severity = domain.SeverityMedium
	}
	if rule.AlertType == "" {
		rule.AlertType = rule.ID
	}

	// Validate CEL expression before persisting
	if err := h.engine.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Error("failed to save alert rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("alert rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule":    rule,
		"message": "Rule created. Call POST /api/alert-rules/reload to apply changes.",
	})
}

// UpdateAlertRule updates an existing alert rule.
func (h *Handler) UpdateAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	var req CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name and expression are required",
		})
		return
	}

	rule := &domain.AlertRule{
		ID:          ruleID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Severity:    req.Severity,
		AlertType:   req.AlertType,
		Title:       req.Title,
		Enabled:     req.Enabled,
	}

	if err := h.engine.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Error("failed to update alert rule", "id", ruleID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to update rule",
			})
			return
		}
	}

	slog.Info("alert rule updated", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]any{
		"rule":    rule,
		"message": "Rule updated. Call POST /api/alert-rules/reload to apply changes.",
	})
}

// ReloadAlertRules reloads all alert rules from the database into the
// engine. This enables hot-reloading without server restart.
func (h *Handler) ReloadAlertRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListAlertRules(ctx)
	if err != nil {
		slog.Error("failed to list alert rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	if err := h.engine.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload alert rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("alert rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
