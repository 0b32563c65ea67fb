package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/openrecon/kite/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "kite-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("InvestigationLifecycle", func(t *testing.T) {
		inv := &domain.Investigation{
			ID:          "inv-001",
			Name:        "john.doe@acme.com",
			TargetType:  "email",
			TargetValue: "john.doe@acme.com",
			Status:      domain.StatusPending,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}

		if err := repo.CreateInvestigation(ctx, inv); err != nil {
			t.Fatalf("CreateInvestigation failed: %v", err)
		}

		if err := repo.UpdateInvestigation(ctx, inv.ID, domain.StatusCompleted, 50); err != nil {
			t.Fatalf("UpdateInvestigation failed: %v", err)
		}

		retrieved, err := repo.GetInvestigation(ctx, inv.ID)
		if err != nil {
			t.Fatalf("GetInvestigation failed: %v", err)
		}
		if retrieved.Status != domain.StatusCompleted {
			t.Errorf("expected status completed, got %s", retrieved.Status)
		}
		if retrieved.RiskScore != 50 {
			t.Errorf("expected risk score 50, got %v", retrieved.RiskScore)
		}
		if retrieved.TargetType != "email" {
			t.Errorf("expected target type email, got %s", retrieved.TargetType)
		}
	})

	t.Run("ListInvestigationsNewestFirst", func(t *testing.T) {
		older := &domain.Investigation{
			ID:          "inv-older",
			Name:        "8.8.8.8",
			TargetType:  "ip",
			TargetValue: "8.8.8.8",
			Status:      domain.StatusCompleted,
			CreatedAt:   time.Now().UTC().Add(-time.Hour),
			UpdatedAt:   time.Now().UTC().Add(-time.Hour),
		}
		if err := repo.CreateInvestigation(ctx, older); err != nil {
			t.Fatalf("CreateInvestigation failed: %v", err)
		}

		list, err := repo.ListInvestigations(ctx, 10)
		if err != nil {
			t.Fatalf("ListInvestigations failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 investigations, got %d", len(list))
		}
		if list[0].ID != "inv-001" || list[1].ID != "inv-older" {
			t.Errorf("unexpected order: %s, %s", list[0].ID, list[1].ID)
		}
	})

	t.Run("SaveAndListCollectedData", func(t *testing.T) {
		row := &domain.CollectedData{
			ID:              "cd-001",
			InvestigationID: "inv-001",
			Source:          "breachdirectory",
			DataType:        "success",
			RawData:         map[string]any{"breach_count": float64(5)},
			RiskLevel:       "high",
			CollectedAt:     time.Now().UTC(),
		}

		if err := repo.SaveCollectedData(ctx, row); err != nil {
			t.Fatalf("SaveCollectedData failed: %v", err)
		}

		rows, err := repo.ListCollectedData(ctx, "inv-001")
		if err != nil {
			t.Fatalf("ListCollectedData failed: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(rows))
		}
		if rows[0].Source != "breachdirectory" {
			t.Errorf("expected source breachdirectory, got %s", rows[0].Source)
		}
		if got := rows[0].RawData["breach_count"]; got != float64(5) {
			t.Errorf("raw data round trip lost breach_count: %v", got)
		}
	})

	t.Run("SaveAndListAlerts", func(t *testing.T) {
		alert := &domain.Alert{
			ID:              "al-001",
			InvestigationID: "inv-001",
			Severity:        domain.SeverityHigh,
			AlertType:       "high_risk_target",
			Title:           "High risk score",
			Description:     "The investigation's risk score crossed the high-risk threshold.",
			Evidence:        map[string]any{"risk_score": float64(50)},
			CreatedAt:       time.Now().UTC(),
		}

		if err := repo.SaveAlert(ctx, alert); err != nil {
			t.Fatalf("SaveAlert failed: %v", err)
		}

		alerts, err := repo.ListAlerts(ctx, "inv-001")
		if err != nil {
			t.Fatalf("ListAlerts failed: %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Severity != domain.SeverityHigh {
			t.Errorf("expected severity high, got %s", alerts[0].Severity)
		}
		if got := alerts[0].Evidence["risk_score"]; got != float64(50) {
			t.Errorf("evidence round trip lost risk_score: %v", got)
		}
	})

	t.Run("AlertRuleUpsert", func(t *testing.T) {
		for _, rule := range domain.DefaultAlertRules() {
			if err := repo.SaveAlertRule(ctx, rule); err != nil {
				t.Fatalf("SaveAlertRule failed: %v", err)
			}
		}

		rules, err := repo.ListAlertRules(ctx)
		if err != nil {
			t.Fatalf("ListAlertRules failed: %v", err)
		}
		if len(rules) != 3 {
			t.Fatalf("expected 3 rules, got %d", len(rules))
		}

		// Updating an existing rule must not create a second row.
		edited := *rules[0]
		edited.Expression = "risk_score >= 75.0"
		if err := repo.SaveAlertRule(ctx, &edited); err != nil {
			t.Fatalf("SaveAlertRule update failed: %v", err)
		}

		again, err := repo.GetAlertRule(ctx, edited.ID)
		if err != nil {
			t.Fatalf("GetAlertRule failed: %v", err)
		}
		if again.Expression != "risk_score >= 75.0" {
			t.Errorf("upsert did not replace expression: %s", again.Expression)
		}

		rules, _ = repo.ListAlertRules(ctx)
		if len(rules) != 3 {
			t.Errorf("upsert duplicated a rule: %d rows", len(rules))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetInvestigation(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
		if _, err := repo.GetAlertRule(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
		if err := repo.UpdateInvestigation(ctx, "nonexistent", domain.StatusFailed, 0); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		got := postgresDSN(domain.RepositoryConfig{Driver: "postgres"})
		want := "host=localhost port=5432 user=kite dbname=kite sslmode=disable"
		if got != want {
			t.Errorf("postgresDSN = %q, want %q", got, want)
		}
	})

	t.Run("FullConfig", func(t *testing.T) {
		got := postgresDSN(domain.RepositoryConfig{
			Driver:           "postgres",
			PostgresHost:     "db.internal",
			PostgresPort:     5433,
			PostgresUser:     "recon",
			PostgresPassword: "s3cret",
			PostgresDB:       "investigations",
			PostgresSSLMode:  "require",
		})
		want := "host=db.internal port=5433 user=recon dbname=investigations sslmode=require password=s3cret"
		if got != want {
			t.Errorf("postgresDSN = %q, want %q", got, want)
		}
	})
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("/tmp/kite.db")
	if !strings.HasPrefix(got, "file:/tmp/kite.db?") {
		t.Errorf("sqliteDSN = %q, want file: prefix with pragmas", got)
	}
	for _, p := range []string{"journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(ON)"} {
		if !strings.Contains(got, "_pragma="+p) {
			t.Errorf("sqliteDSN missing pragma %s: %q", p, got)
		}
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
