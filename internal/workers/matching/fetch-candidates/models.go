// internal/workers/matching/fetch-candidates/models.go
package fetchcandidates

import "marketplace-workers/internal/models"

type Input struct {
	Request       models.ServiceRequestPayload `json:"request"`
	MaxCandidates int                          `json:"maxCandidates,omitempty"`
}

type Output struct {
	Candidates     []models.ProviderDocument `json:"candidates"`
	CandidateCount int                       `json:"candidateCount"`
	Source         string                    `json:"candidateSource"` // elasticsearch, postgres, cache
	FromCache      bool                      `json:"fromCache"`
}

// searchResponse is the slice of the Elasticsearch search reply we
// actually read.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.ProviderDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
