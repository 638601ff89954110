// internal/models/provider.go
package models

import (
	"encoding/json"
	"time"

	"marketplace-workers/internal/matching"
)

// ProviderDocument is the provider record as stored in the
// Elasticsearch directory index. Field names follow the index mapping,
// which predates the engine types.
type ProviderDocument struct {
	ID                 string        `json:"id"`
	DisplayName        string        `json:"display_name"`
	AvgRating          float64       `json:"avg_rating"`
	ReviewCount        int           `json:"review_count"`
	CompletedJobs      int           `json:"completed_jobs"`
	VerificationLevel  string        `json:"verification_level"`
	TopRated           bool          `json:"top_rated"`
	AvgResponseMinutes float64       `json:"avg_response_minutes"`
	Skills             []SkillEntry  `json:"skills"`
	Governorate        string        `json:"governorate"`
	City               string        `json:"city"`
	Lat                *float64      `json:"lat,omitempty"`
	Lon                *float64      `json:"lon,omitempty"`
	PriceMin           *float64      `json:"price_min,omitempty"`
	PriceMax           *float64      `json:"price_max,omitempty"`
	Availability       *Availability `json:"availability,omitempty"`
	CompletionRate     float64       `json:"completion_rate"`
	LastActiveAt       time.Time     `json:"last_active_at"`
}

type SkillEntry struct {
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
	Verified        bool   `json:"verified"`
	YearsExperience int    `json:"years_experience"`
}

type Availability struct {
	IsAvailable bool     `json:"is_available"`
	Days        []string `json:"days,omitempty"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
}

// ToMatching converts the directory document into the engine's input
// type. Missing optional blocks stay nil so the extractors apply their
// neutral defaults.
func (d ProviderDocument) ToMatching() matching.Provider {
	p := matching.Provider{
		ID:                 d.ID,
		Name:               d.DisplayName,
		Rating:             d.AvgRating,
		ReviewCount:        d.ReviewCount,
		CompletedJobs:      d.CompletedJobs,
		Verification:       matching.VerificationLevel(d.VerificationLevel),
		TopRated:           d.TopRated,
		AvgResponseMinutes: d.AvgResponseMinutes,
		Location: matching.Location{
			Governorate: d.Governorate,
			City:        d.City,
		},
		CompletionRate: d.CompletionRate,
		LastActiveAt:   d.LastActiveAt,
	}

	if d.Lat != nil && d.Lon != nil {
		p.Location.Coords = &matching.Coordinates{Lat: *d.Lat, Lon: *d.Lon}
	}
	if d.PriceMin != nil && d.PriceMax != nil {
		p.PriceRange = &matching.BudgetRange{Min: *d.PriceMin, Max: *d.PriceMax}
	}
	if d.Availability != nil {
		p.Availability = &matching.Availability{
			IsAvailable: d.Availability.IsAvailable,
			Days:        d.Availability.Days,
			Start:       d.Availability.Start,
			End:         d.Availability.End,
		}
	}
	for _, s := range d.Skills {
		p.Skills = append(p.Skills, matching.Skill{
			Category:        s.Category,
			Subcategory:     s.Subcategory,
			Verified:        s.Verified,
			YearsExperience: s.YearsExperience,
		})
	}

	return p
}

// ProviderRow is the provider record as read from PostgreSQL, the
// fallback source when the directory index is unavailable. Skills and
// availability are stored as JSONB.
type ProviderRow struct {
	ID                 string
	DisplayName        string
	AvgRating          float64
	ReviewCount        int
	CompletedJobs      int
	VerificationLevel  string
	TopRated           bool
	AvgResponseMinutes float64
	SkillsJSON         []byte
	Governorate        string
	City               string
	AvailabilityJSON   []byte
	CompletionRate     float64
	LastActiveAt       time.Time
}

// ToDocument converts the row into the directory document shape,
// tolerating malformed JSONB blobs: a bad skills or availability
// column degrades that field, it does not drop the provider.
func (r ProviderRow) ToDocument() ProviderDocument {
	doc := ProviderDocument{
		ID:                 r.ID,
		DisplayName:        r.DisplayName,
		AvgRating:          r.AvgRating,
		ReviewCount:        r.ReviewCount,
		CompletedJobs:      r.CompletedJobs,
		VerificationLevel:  r.VerificationLevel,
		TopRated:           r.TopRated,
		AvgResponseMinutes: r.AvgResponseMinutes,
		Governorate:        r.Governorate,
		City:               r.City,
		CompletionRate:     r.CompletionRate,
		LastActiveAt:       r.LastActiveAt,
	}

	if len(r.SkillsJSON) > 0 {
		var skills []SkillEntry
		if err := json.Unmarshal(r.SkillsJSON, &skills); err == nil {
			doc.Skills = skills
		}
	}
	if len(r.AvailabilityJSON) > 0 {
		var avail Availability
		if err := json.Unmarshal(r.AvailabilityJSON, &avail); err == nil {
			doc.Availability = &avail
		}
	}

	return doc
}

// ToMatching converts the row into the engine's input type.
func (r ProviderRow) ToMatching() matching.Provider {
	return r.ToDocument().ToMatching()
}
