// internal/workers/matching/fetch-candidates/config.go
package fetchcandidates

import "time"

type Config struct {
	Timeout       time.Duration
	Index         string
	MaxCandidates int
	CacheTTL      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       15 * time.Second,
		Index:         "providers",
		MaxCandidates: 100,
		CacheTTL:      10 * time.Minute,
	}
}
