// internal/workers/matching/notify-matches/config.go
package notifymatches

import "time"

type Config struct {
	Timeout         time.Duration
	AWSRegion       string
	SenderEmail     string
	SNSTopicArn     string
	WebhookURL      string
	DefaultChannels []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		AWSRegion:       "eu-west-1",
		SenderEmail:     "matches@marketplace.example.com",
		DefaultChannels: []string{"email"},
	}
}
