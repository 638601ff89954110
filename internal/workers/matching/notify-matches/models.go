// internal/workers/matching/notify-matches/models.go
package notifymatches

import "marketplace-workers/internal/models"

type Input struct {
	RequestID   string       `json:"requestId"`
	SeekerID    string       `json:"seekerId"`
	SeekerEmail string       `json:"seekerEmail,omitempty"`
	Matches     []MatchEntry `json:"matches"`
	Channels    []string     `json:"channels,omitempty"`
}

// MatchEntry mirrors the match worker's output variable shape; only
// the fields the notification templates render are read here.
type MatchEntry struct {
	ProviderID   string   `json:"providerId"`
	ProviderName string   `json:"providerName"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
}

type Output struct {
	Notifications     []models.MatchNotification `json:"notifications"`
	NotificationCount int                        `json:"notificationCount"`
	Status            string                     `json:"notificationStatus"`
}

const (
	ChannelEmail   = "email"
	ChannelPush    = "push"
	ChannelWebhook = "webhook"
)

// webhookPayload is the body POSTed to the partner callback URL.
type webhookPayload struct {
	RequestID  string       `json:"requestId"`
	SeekerID   string       `json:"seekerId"`
	MatchCount int          `json:"matchCount"`
	Matches    []MatchEntry `json:"matches"`
}
