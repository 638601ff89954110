// internal/matching/score.go
//
// Feature extractors. Each maps (request, provider) to a normalized
// score in [0,1] for one dimension. All of them are total: missing or
// malformed provider fields degrade to a neutral or zero score and a
// field warning, never an error. A noisy directory must not take down
// ranking for a whole batch.
package matching

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const earthRadiusKm = 6371.0

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// shrinkToPrior pulls a score toward a neutral prior when the sample
// count is below the minimum, proportionally to how far below it is.
// Keeps a single 5-star review from outranking 200 honest ones.
func shrinkToPrior(score float64, samples, minSamples int, prior float64) float64 {
	if minSamples <= 0 || samples >= minSamples {
		return score
	}
	if samples < 0 {
		samples = 0
	}
	frac := float64(samples) / float64(minSamples)
	return prior + (score-prior)*frac
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// distanceScore prefers coordinates when both sides have them: full
// credit inside FullCreditKm, zero beyond CutoffKm, linear in between.
// Without coordinates it falls back to administrative matching.
func distanceScore(req ServiceRequest, p Provider, params DistanceParams) float64 {
	if req.Location.Coords != nil && p.Location.Coords != nil &&
		params.CutoffKm > params.FullCreditKm {
		km := haversineKm(*req.Location.Coords, *p.Location.Coords)
		if km <= params.FullCreditKm {
			return 1.0
		}
		if km >= params.CutoffKm {
			return 0.0
		}
		return clamp01(1.0 - (km-params.FullCreditKm)/(params.CutoffKm-params.FullCreditKm))
	}

	if sameName(req.Location.Governorate, p.Location.Governorate) {
		if sameName(req.Location.City, p.Location.City) {
			return 1.0
		}
		return 0.5
	}
	return 0.0
}

func sameName(a, b string) bool {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	return a != "" && a == b
}

// skillsScore is 0 when no skill entry matches the request's category
// and subcategory. A match earns the base score, plus a fixed bonus if
// any matching entry is verified, plus an experience bonus scaled up
// to the configured ceiling.
func skillsScore(req ServiceRequest, p Provider, params SkillParams) float64 {
	matched := false
	verified := false
	bestYears := 0
	for _, s := range p.Skills {
		if !sameName(s.Category, req.Category) || !sameName(s.Subcategory, req.Subcategory) {
			continue
		}
		matched = true
		if s.Verified {
			verified = true
		}
		if s.YearsExperience > bestYears {
			bestYears = s.YearsExperience
		}
	}
	if !matched {
		return 0.0
	}

	score := params.BaseScore
	if verified {
		score += params.VerifiedBonus
	}
	if params.ExperienceCeiling > 0 {
		frac := float64(bestYears) / float64(params.ExperienceCeiling)
		if frac > 1 {
			frac = 1
		}
		score += params.ExperienceBonus * frac
	}
	return clamp01(score)
}

// ratingScore rescales the 0–5 average to [0,1] and shrinks it toward
// the neutral prior when the review count is below the minimum.
func ratingScore(p Provider, prior PriorParams) float64 {
	rating := p.Rating
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return clamp01(shrinkToPrior(rating/5.0, p.ReviewCount, prior.MinSamples, prior.Neutral))
}

// availabilityScore: 1.0 when the provider is available and the
// working window overlaps the urgency window, 0.0 when explicitly
// unavailable, 0.5 when the directory has no availability data.
func availabilityScore(req ServiceRequest, p Provider, ref time.Time) float64 {
	if p.Availability == nil {
		return 0.5
	}
	if !p.Availability.IsAvailable {
		return 0.0
	}

	switch req.Urgency {
	case UrgencyImmediate:
		// Needs a concrete working window today or tomorrow.
		if worksWithinDays(p.Availability, ref, 2) {
			return 1.0
		}
		return 0.0
	case UrgencyThisWeek:
		if worksWithinDays(p.Availability, ref, 7) {
			return 1.0
		}
		return 0.0
	default:
		// Flexible: any availability at all counts.
		return 1.0
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// worksWithinDays reports whether any of the provider's working days
// falls inside the next n days from the reference time. An empty day
// list means every day. When the provider declares a coherent daily
// window, today only counts while that window is still open; later
// days count in full.
func worksWithinDays(a *Availability, ref time.Time, n int) bool {
	working := make(map[time.Weekday]bool, len(a.Days))
	for _, name := range a.Days {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
			working[wd] = true
		}
	}
	// An empty or unrecognized day list is an unknown schedule, not a
	// never-working one.
	allDays := len(working) == 0

	start, okStart := parseClock(a.Start)
	end, okEnd := parseClock(a.End)
	hasWindow := okStart && okEnd && start < end
	refMinutes := ref.Hour()*60 + ref.Minute()

	for i := 0; i < n; i++ {
		if !allDays && !working[ref.AddDate(0, 0, i).Weekday()] {
			continue
		}
		if i == 0 && hasWindow && refMinutes >= end {
			continue
		}
		return true
	}
	return false
}

// parseClock converts "HH:MM" to minutes from midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// responseTimeScore decays smoothly with the average response time:
// 2^(-minutes/halfLife). A sub-5-minute average lands near 1.0 and a
// multi-day average near 0.0, with no cliffs in between. Unknown
// response times score neutral.
func responseTimeScore(p Provider, params ResponseParams) float64 {
	if p.AvgResponseMinutes <= 0 || params.HalfLifeMinutes <= 0 {
		return 0.5
	}
	return clamp01(math.Exp2(-p.AvgResponseMinutes / params.HalfLifeMinutes))
}

// verificationScore is a fixed tier lookup plus the top-rated bonus.
func verificationScore(p Provider, params VerificationParams) float64 {
	var score float64
	switch p.Verification {
	case VerificationBasic:
		score = 0.4
	case VerificationSkillVerified:
		score = 0.7
	case VerificationFullyApproved:
		score = 1.0
	default:
		score = 0.0
	}
	if p.TopRated {
		score += params.TopRatedBonus
	}
	return clamp01(score)
}

// completionRateScore rescales the 0–100 percentage with the same
// shrink-to-prior correction as ratings, keyed on completed jobs.
func completionRateScore(p Provider, prior PriorParams) float64 {
	rate := p.CompletionRate
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	return clamp01(shrinkToPrior(rate/100.0, p.CompletedJobs, prior.MinSamples, prior.Neutral))
}

// scoreProvider runs all seven extractors and collects warnings for
// fields the extractors had to default around.
func scoreProvider(req ServiceRequest, p Provider, cfg Config) (SubScores, []FieldWarning) {
	var warnings []FieldWarning
	warn := func(field, msg string) {
		warnings = append(warnings, FieldWarning{ProviderID: p.ID, Field: field, Message: msg})
	}

	if len(p.Skills) == 0 {
		warn("skills", "provider has no skill entries")
	}
	if p.Availability == nil {
		warn("availability", "no availability data, scored neutral")
	} else {
		if p.Availability.Start != "" {
			if _, ok := parseClock(p.Availability.Start); !ok {
				warn("availability.start", fmt.Sprintf("unparseable time %q", p.Availability.Start))
			}
		}
		if p.Availability.End != "" {
			if _, ok := parseClock(p.Availability.End); !ok {
				warn("availability.end", fmt.Sprintf("unparseable time %q", p.Availability.End))
			}
		}
	}
	if p.Location.Governorate == "" && p.Location.Coords == nil {
		warn("location", "no governorate or coordinates")
	}
	if p.AvgResponseMinutes <= 0 {
		warn("avgResponseMinutes", "missing response time, scored neutral")
	}
	if p.Rating < 0 || p.Rating > 5 {
		warn("rating", fmt.Sprintf("rating %g outside 0-5, clamped", p.Rating))
	}
	if p.CompletionRate < 0 || p.CompletionRate > 100 {
		warn("completionRate", fmt.Sprintf("completion rate %g outside 0-100, clamped", p.CompletionRate))
	}

	sub := SubScores{
		Distance:       distanceScore(req, p, cfg.Distance),
		Skills:         skillsScore(req, p, cfg.Skills),
		Rating:         ratingScore(p, cfg.RatingPrior),
		Availability:   availabilityScore(req, p, cfg.ReferenceTime),
		ResponseTime:   responseTimeScore(p, cfg.Response),
		Verification:   verificationScore(p, cfg.Verification),
		CompletionRate: completionRateScore(p, cfg.Completion),
	}
	return sub, warnings
}
