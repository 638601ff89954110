// internal/workers/matching/match-providers/models.go
package matchproviders

import (
	"marketplace-workers/internal/matching"
	"marketplace-workers/internal/models"
)

type Input struct {
	Request    models.ServiceRequestPayload `json:"request"`
	Candidates []models.ProviderDocument    `json:"candidates"`

	// Optional per-request tuning. Absent fields fall back to the
	// worker's configured policy.
	WeightsOverride    *matching.Weights `json:"weightsOverride,omitempty"`
	MaxResultsOverride *int              `json:"maxResultsOverride,omitempty"`
	ReferenceTime      string            `json:"referenceTime,omitempty"` // RFC3339
}

type Output struct {
	BatchID    string               `json:"matchBatchId"`
	RequestID  string               `json:"requestId"`
	Matches    []MatchEntry         `json:"matches"`
	MatchCount int                  `json:"matchCount"`
	Warnings   []matching.FieldWarning `json:"matchWarnings,omitempty"`
}

type MatchEntry struct {
	ProviderID   string             `json:"providerId"`
	ProviderName string             `json:"providerName"`
	Score        float64            `json:"score"`
	Reasons      []string           `json:"reasons"`
	SubScores    matching.SubScores `json:"subScores"`
}
