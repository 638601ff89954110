// internal/matching/types.go
package matching

import "time"

// Urgency describes how soon the seeker needs the service.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyThisWeek  Urgency = "this_week"
	UrgencyFlexible  Urgency = "flexible"
)

// VerificationLevel is the provider's identity/skill verification tier.
type VerificationLevel string

const (
	VerificationNone          VerificationLevel = "none"
	VerificationBasic         VerificationLevel = "basic"
	VerificationSkillVerified VerificationLevel = "skill_verified"
	VerificationFullyApproved VerificationLevel = "fully_approved"
)

// Coordinates are WGS84 decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a governorate/city pair with optional coordinates.
// Coordinates come from the directory service when the client shared
// them; most records only carry the administrative names.
type Location struct {
	Governorate string       `json:"governorate"`
	City        string       `json:"city"`
	Coords      *Coordinates `json:"coords,omitempty"`
}

// BudgetRange is an inclusive min/max price band in EGP.
type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ServiceRequest is the demand side of a match. Immutable once handed
// to the engine.
type ServiceRequest struct {
	ID          string       `json:"id"`
	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory"`
	Urgency     Urgency      `json:"urgency"`
	Location    Location     `json:"location"`
	Description string       `json:"description,omitempty"`
	Budget      *BudgetRange `json:"budget,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// Skill is one service the provider offers.
type Skill struct {
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
	Verified        bool   `json:"verified"`
	YearsExperience int    `json:"yearsExperience"`
}

// Availability describes the provider's working window. A nil
// Availability on a Provider means the directory has no data, which
// the engine treats as unknown rather than unavailable.
type Availability struct {
	IsAvailable bool     `json:"isAvailable"`
	Days        []string `json:"days,omitempty"`  // lowercase weekday names
	Start       string   `json:"start,omitempty"` // "HH:MM", daily window start
	End         string   `json:"end,omitempty"`   // "HH:MM", daily window end
}

// Provider is a supply-side candidate. Read-only input; the engine
// never mutates it.
type Provider struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Rating             float64           `json:"rating"` // 0.0–5.0 average
	ReviewCount        int               `json:"reviewCount"`
	CompletedJobs      int               `json:"completedJobs"`
	Verification       VerificationLevel `json:"verification"`
	TopRated           bool              `json:"topRated"`
	AvgResponseMinutes float64           `json:"avgResponseMinutes"`
	Skills             []Skill           `json:"skills,omitempty"`
	Location           Location          `json:"location"`
	PriceRange         *BudgetRange      `json:"priceRange,omitempty"`
	Availability       *Availability     `json:"availability,omitempty"`
	CompletionRate     float64           `json:"completionRate"` // 0–100 percent
	LastActiveAt       time.Time         `json:"lastActiveAt"`
}

// Dimension names the seven scoring axes. The strings double as
// config keys and metric labels.
type Dimension string

const (
	DimDistance       Dimension = "distance"
	DimSkills         Dimension = "skills"
	DimRating         Dimension = "rating"
	DimAvailability   Dimension = "availability"
	DimResponseTime   Dimension = "response_time"
	DimVerification   Dimension = "verification"
	DimCompletionRate Dimension = "completion_rate"
)

// dimensions is the canonical iteration order. Keep it fixed: reason
// tie-breaking and test determinism depend on it.
var dimensions = []Dimension{
	DimDistance,
	DimSkills,
	DimRating,
	DimAvailability,
	DimResponseTime,
	DimVerification,
	DimCompletionRate,
}

// SubScores holds the per-dimension normalized scores, each in [0,1].
type SubScores struct {
	Distance       float64 `json:"distance"`
	Skills         float64 `json:"skills"`
	Rating         float64 `json:"rating"`
	Availability   float64 `json:"availability"`
	ResponseTime   float64 `json:"responseTime"`
	Verification   float64 `json:"verification"`
	CompletionRate float64 `json:"completionRate"`
}

// get returns the sub-score for a dimension.
func (s SubScores) get(d Dimension) float64 {
	switch d {
	case DimDistance:
		return s.Distance
	case DimSkills:
		return s.Skills
	case DimRating:
		return s.Rating
	case DimAvailability:
		return s.Availability
	case DimResponseTime:
		return s.ResponseTime
	case DimVerification:
		return s.Verification
	case DimCompletionRate:
		return s.CompletionRate
	}
	return 0
}

// MatchingResult is one scored candidate. Score is the weighted
// combination of SubScores; Reasons explain the dominant dimensions.
type MatchingResult struct {
	Provider  Provider  `json:"provider"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	SubScores SubScores `json:"subScores"`
}

// FieldWarning reports a degraded provider field the extractors
// defaulted around. Diagnostics only; warnings never block results.
type FieldWarning struct {
	ProviderID string `json:"providerId"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}
