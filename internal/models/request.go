// internal/models/request.go
package models

import (
	"time"

	"marketplace-workers/internal/matching"
)

// ServiceRequestPayload is the request shape arriving in workflow
// variables from the client-facing API.
type ServiceRequestPayload struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Urgency     string   `json:"urgency"`
	Governorate string   `json:"governorate"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Description string   `json:"description,omitempty"`
	BudgetMin   *float64 `json:"budgetMin,omitempty"`
	BudgetMax   *float64 `json:"budgetMax,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	ExpiresAt   string   `json:"expiresAt,omitempty"`
}

// ToMatching converts the payload into the engine's request type.
// Timestamps that fail to parse are left zero; the engine does not
// depend on them for scoring.
func (p ServiceRequestPayload) ToMatching() matching.ServiceRequest {
	req := matching.ServiceRequest{
		ID:          p.ID,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Urgency:     matching.Urgency(p.Urgency),
		Location: matching.Location{
			Governorate: p.Governorate,
			City:        p.City,
		},
		Description: p.Description,
	}

	if p.Lat != nil && p.Lon != nil {
		req.Location.Coords = &matching.Coordinates{Lat: *p.Lat, Lon: *p.Lon}
	}
	if p.BudgetMin != nil && p.BudgetMax != nil {
		req.Budget = &matching.BudgetRange{Min: *p.BudgetMin, Max: *p.BudgetMax}
	}
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		req.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, p.ExpiresAt); err == nil {
		req.ExpiresAt = t
	}

	return req
}
