package domain

import "time"

// Config holds the complete Kite configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines the backing services used
	Tier Tier `json:"tier"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Sources    SourcesConfig    `json:"sources"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	Endpoint    string `json:"endpoint"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierStandalone runs on SQLite + in-memory cache + channel bus.
	TierStandalone Tier = "standalone"

	// TierDistributed runs on PostgreSQL + Redis + NATS.
	TierDistributed Tier = "distributed"
)

// APIConfig holds one external API's credential and endpoint. An empty
// Key means the source is not configured and its adapter reports
// Failure("not configured") instead of probing.
type APIConfig struct {
	Key      string `json:"-"`
	Endpoint string `json:"endpoint"`
}

// SourcesConfig holds the per-source settings consumed by adapters, the
// orchestrator and the scorer.
type SourcesConfig struct {
	// EnableExternalTools gates the subprocess adapter tier entirely.
	EnableExternalTools bool `json:"enableExternalTools"`

	// FreeProviders is the free e-mail provider table used by the
	// correlation heuristic and the variation generator.
	FreeProviders []string `json:"freeProviders"`

	// CriticalPorts maps high-value service ports to their protocol name.
	CriticalPorts map[int]string `json:"criticalPorts"`

	// CountryPrefixes and CarrierPrefixes back the offline phone parse
	// when the validation API is unavailable.
	CountryPrefixes map[string]string `json:"countryPrefixes"`
	CarrierPrefixes map[string]string `json:"carrierPrefixes"`

	// External API credentials and endpoints.
	Breach    APIConfig `json:"breach"`
	Hunter    APIConfig `json:"hunter"`
	EmailRep  APIConfig `json:"emailRep"`
	Numverify APIConfig `json:"numverify"`
	Shodan    APIConfig `json:"shodan"`
	WebSearch APIConfig `json:"webSearch"`

	// Subprocess tool binaries. Empty values fall back to the tool name
	// resolved via PATH.
	SherlockPath  string `json:"sherlockPath"`
	HolehePath    string `json:"holehePath"`
	HarvesterPath string `json:"harvesterPath"`
}

// DefaultFreeProviders is the fixed free e-mail provider list.
func DefaultFreeProviders() []string {
	return []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}
}

// DefaultCriticalPorts is the fixed critical service port table.
func DefaultCriticalPorts() map[int]string {
	return map[int]string{
		21:    "FTP",
		22:    "SSH",
		23:    "Telnet",
		445:   "SMB",
		1433:  "MS-SQL",
		3306:  "MySQL",
		3389:  "RDP",
		5432:  "PostgreSQL",
		6379:  "Redis",
		27017: "MongoDB",
	}
}

// DefaultConfig returns a default configuration for standalone use.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		Tier: TierStandalone,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./kite.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
			ResultTTL:    15 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Sources: SourcesConfig{
			EnableExternalTools: true,
			FreeProviders:       DefaultFreeProviders(),
			CriticalPorts:       DefaultCriticalPorts(),
			CountryPrefixes: map[string]string{
				"+1":  "United States",
				"+33": "France",
				"+44": "United Kingdom",
				"+49": "Germany",
			},
			CarrierPrefixes: map[string]string{
				"+336": "Orange",
				"+337": "SFR",
			},
			Breach:    APIConfig{Endpoint: "https://haveibeenpwned.com/api/v3"},
			Hunter:    APIConfig{Endpoint: "https://api.hunter.io/v2"},
			EmailRep:  APIConfig{Endpoint: "https://emailrep.io"},
			Numverify: APIConfig{Endpoint: "http://apilayer.net/api/validate"},
			Shodan:    APIConfig{Endpoint: "https://api.shodan.io"},
			WebSearch: APIConfig{Endpoint: "https://serpapi.com/search"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "kite",
		},
	}
}

// DistributedConfig returns a configuration for multi-node deployments.
func DistributedConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierDistributed
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "kite",
	}
	cfg.Cache = CacheConfig{
		Type:      "redis",
		RedisAddr: "localhost:6379",
		ResultTTL: 15 * time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
