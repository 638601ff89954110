// internal/workers/matching/match-providers/config.go
package matchproviders

import (
	"time"

	"marketplace-workers/internal/matching"
)

type Config struct {
	Timeout time.Duration
	Engine  matching.Config
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Engine:  matching.DefaultConfig(),
	}
}
