// internal/matching/config.go
package matching

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidWeights    = errors.New("MATCH_WEIGHTS_INVALID")
	ErrInvalidMaxResults = errors.New("MATCH_MAX_RESULTS_INVALID")
)

const weightSumTolerance = 1e-6

// Weights is the weighting policy: relative importance per dimension.
// Weights must be non-negative and sum to 1.0 within tolerance.
type Weights struct {
	Skills         float64 `json:"skills" mapstructure:"skills"`
	Rating         float64 `json:"rating" mapstructure:"rating"`
	Distance       float64 `json:"distance" mapstructure:"distance"`
	Availability   float64 `json:"availability" mapstructure:"availability"`
	Verification   float64 `json:"verification" mapstructure:"verification"`
	CompletionRate float64 `json:"completionRate" mapstructure:"completion_rate"`
	ResponseTime   float64 `json:"responseTime" mapstructure:"response_time"`
}

// DefaultWeights favors skills and rating: they answer "can this
// provider do the job well" most directly. Response time is a minor
// tiebreaker.
func DefaultWeights() Weights {
	return Weights{
		Skills:         0.28,
		Rating:         0.18,
		Distance:       0.16,
		Availability:   0.14,
		Verification:   0.12,
		CompletionRate: 0.08,
		ResponseTime:   0.04,
	}
}

func (w Weights) get(d Dimension) float64 {
	switch d {
	case DimDistance:
		return w.Distance
	case DimSkills:
		return w.Skills
	case DimRating:
		return w.Rating
	case DimAvailability:
		return w.Availability
	case DimResponseTime:
		return w.ResponseTime
	case DimVerification:
		return w.Verification
	case DimCompletionRate:
		return w.CompletionRate
	}
	return 0
}

// Validate rejects negative weights and weight sums away from 1.0.
func (w Weights) Validate() error {
	sum := 0.0
	for _, d := range dimensions {
		v := w.get(d)
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%g)", ErrInvalidWeights, d, v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %g, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// DistanceParams controls the coordinate-based distance falloff.
type DistanceParams struct {
	FullCreditKm float64 `json:"fullCreditKm" mapstructure:"full_credit_km"` // within this radius score is 1.0
	CutoffKm     float64 `json:"cutoffKm" mapstructure:"cutoff_km"`          // beyond this radius score is 0.0
}

// SkillParams controls the skills extractor bonuses.
type SkillParams struct {
	BaseScore         float64 `json:"baseScore" mapstructure:"base_score"`
	VerifiedBonus     float64 `json:"verifiedBonus" mapstructure:"verified_bonus"`
	ExperienceBonus   float64 `json:"experienceBonus" mapstructure:"experience_bonus"`
	ExperienceCeiling int     `json:"experienceCeiling" mapstructure:"experience_ceiling"` // years for full bonus
}

// PriorParams is the shrink-to-prior correction applied to rating and
// completion rate when the sample size is small.
type PriorParams struct {
	MinSamples int     `json:"minSamples" mapstructure:"min_samples"`
	Neutral    float64 `json:"neutral" mapstructure:"neutral"`
}

// ResponseParams controls the response-time decay curve.
type ResponseParams struct {
	HalfLifeMinutes float64 `json:"halfLifeMinutes" mapstructure:"half_life_minutes"`
}

// VerificationParams maps verification tiers to scores.
type VerificationParams struct {
	TopRatedBonus float64 `json:"topRatedBonus" mapstructure:"top_rated_bonus"`
}

// ReasonRule gates one dimension's human-readable label: the label is
// emitted only when the sub-score reaches MinSubScore and the weighted
// contribution is dominant.
type ReasonRule struct {
	Label       string  `json:"label" mapstructure:"label"`
	MinSubScore float64 `json:"minSubScore" mapstructure:"min_sub_score"`
}

// ReasonParams controls match-reason generation.
type ReasonParams struct {
	ContributionThreshold float64                  `json:"contributionThreshold" mapstructure:"contribution_threshold"` // fraction of the total score
	MaxReasons            int                      `json:"maxReasons" mapstructure:"max_reasons"`
	Rules                 map[Dimension]ReasonRule `json:"rules" mapstructure:"rules"`
}

// Config is the full tuning surface of the engine. Everything an
// operator may want to adjust lives here; scoring code carries no
// hidden constants.
type Config struct {
	Weights       Weights            `json:"weights" mapstructure:"weights"`
	MaxResults    int                `json:"maxResults" mapstructure:"max_results"`
	ReferenceTime time.Time          `json:"referenceTime"`
	Distance      DistanceParams     `json:"distance" mapstructure:"distance"`
	Skills        SkillParams        `json:"skills" mapstructure:"skills"`
	RatingPrior   PriorParams        `json:"ratingPrior" mapstructure:"rating_prior"`
	Completion    PriorParams        `json:"completionPrior" mapstructure:"completion_prior"`
	Response      ResponseParams     `json:"response" mapstructure:"response"`
	Verification  VerificationParams `json:"verification" mapstructure:"verification"`
	Reasons       ReasonParams       `json:"reasons" mapstructure:"reasons"`
}

// DefaultConfig returns the production defaults. ReferenceTime is left
// zero on purpose: callers must supply it so the engine never reads
// the system clock.
func DefaultConfig() Config {
	return Config{
		Weights:    DefaultWeights(),
		MaxResults: 10,
		Distance: DistanceParams{
			FullCreditKm: 3,
			CutoffKm:     50,
		},
		Skills: SkillParams{
			BaseScore:         0.6,
			VerifiedBonus:     0.2,
			ExperienceBonus:   0.2,
			ExperienceCeiling: 5,
		},
		RatingPrior: PriorParams{MinSamples: 3, Neutral: 0.5},
		Completion:  PriorParams{MinSamples: 5, Neutral: 0.5},
		Response:    ResponseParams{HalfLifeMinutes: 240},
		Verification: VerificationParams{
			TopRatedBonus: 0.05,
		},
		Reasons: ReasonParams{
			ContributionThreshold: 0.15,
			MaxReasons:            3,
			Rules:                 DefaultReasonRules(),
		},
	}
}

// DefaultReasonRules is the seeker-facing label table. Text is what
// the mobile client renders on match cards.
func DefaultReasonRules() map[Dimension]ReasonRule {
	return map[Dimension]ReasonRule{
		DimSkills:         {Label: "مطابقة ممتازة للمهارات", MinSubScore: 0.8},
		DimRating:         {Label: "تقييم عالي جداً", MinSubScore: 0.9},
		DimAvailability:   {Label: "متاح الآن", MinSubScore: 1.0},
		DimDistance:       {Label: "قريب من موقعك", MinSubScore: 0.8},
		DimVerification:   {Label: "مقدم خدمة موثّق", MinSubScore: 0.7},
		DimCompletionRate: {Label: "سجل إنجاز موثوق", MinSubScore: 0.9},
		DimResponseTime:   {Label: "يرد بسرعة", MinSubScore: 0.9},
	}
}

// Validate checks the config before any candidate is scored, so a bad
// weighting policy surfaces as a configuration error rather than a
// mid-batch failure.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("%w: maxResults is %d", ErrInvalidMaxResults, c.MaxResults)
	}
	return nil
}
