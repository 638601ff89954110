// internal/workers/matching/validate-match-request/models.go
package validatematchrequest

import (
	"marketplace-workers/internal/common/validation"
	"marketplace-workers/internal/models"
)

type Input struct {
	Request map[string]interface{} `json:"request"`
}

type Output struct {
	Valid   bool                          `json:"requestValid"`
	Errors  []validation.ValidationError  `json:"validationErrors"`
	Request *models.ServiceRequestPayload `json:"request,omitempty"`
}
