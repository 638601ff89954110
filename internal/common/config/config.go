// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Directory     DirectoryConfig         `mapstructure:"directory"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DirectoryConfig points the candidate lookup at the provider
// directory index and its cache.
type DirectoryConfig struct {
	ProviderIndex   string `mapstructure:"provider_index"`
	MaxCandidates   int    `mapstructure:"max_candidates"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// MatchingConfig carries the engine tuning operators adjust without a
// redeploy: weighting policy, distance radii, decay constants, reason
// thresholds. Mirrors matching.Config minus the per-call reference time.
type MatchingConfig struct {
	MaxResults int                `mapstructure:"max_results"`
	Weights    map[string]float64 `mapstructure:"weights"`
	Distance   struct {
		FullCreditKm float64 `mapstructure:"full_credit_km"`
		CutoffKm     float64 `mapstructure:"cutoff_km"`
	} `mapstructure:"distance"`
	Response struct {
		HalfLifeMinutes float64 `mapstructure:"half_life_minutes"`
	} `mapstructure:"response"`
	Reasons struct {
		ContributionThreshold float64 `mapstructure:"contribution_threshold"`
		MaxReasons            int     `mapstructure:"max_reasons"`
	} `mapstructure:"reasons"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // for error handling
}

type NotificationConfig struct {
	AWSRegion   string `mapstructure:"aws_region"`
	SenderEmail string `mapstructure:"sender_email"`
	SNSTopicArn string `mapstructure:"sns_topic_arn"`
	WebhookURL  string `mapstructure:"webhook_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
