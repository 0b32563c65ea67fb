package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/openrecon/kite/internal/domain"
	_ "github.com/lib/pq"
)

// postgresDSN renders the lib/pq keyword DSN from the repository
// config. Zero values fall back to a local single-node postgres so a
// bare distributed-tier config connects out of the box; all settings
// flow in through domain.RepositoryConfig (populated from KITE_*
// environment overrides in main).
func postgresDSN(cfg domain.RepositoryConfig) string {
	host := cfg.PostgresHost
	if host == "" {
		host = "localhost"
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = 5432
	}
	user := cfg.PostgresUser
	if user == "" {
		user = "kite"
	}
	dbname := cfg.PostgresDB
	if dbname == "" {
		dbname = "kite"
	}
	sslmode := cfg.PostgresSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	parts := []string{
		"host=" + host,
		fmt.Sprintf("port=%d", port),
		"user=" + user,
		"dbname=" + dbname,
		"sslmode=" + sslmode,
	}
	if cfg.PostgresPassword != "" {
		parts = append(parts, "password="+cfg.PostgresPassword)
	}
	return strings.Join(parts, " ")
}

// openPostgres opens the distributed-tier database connection.
func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return db, nil
}
