// internal/matching/engine.go
//
// Provider-matching and ranking engine. Scores a candidate pool of
// providers against one service request along seven independent
// dimensions, combines them under a weighting policy, and returns a
// deterministically ordered, truncated result list with human-readable
// match reasons.
//
// The engine is a one-shot pure computation: no I/O, no clock access
// (the reference time comes in through Config), no mutation of inputs,
// and no state across calls. Scoring N candidates is N independent
// pieces of work; callers that need parallelism shard the candidate
// slice themselves.
package matching

import "fmt"

// Engine scores and ranks provider candidates for service requests.
// Construct it with NewEngine so an invalid weighting policy fails
// fast instead of surfacing mid-batch.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("matching engine config: %w", err)
	}
	if cfg.Reasons.Rules == nil {
		cfg.Reasons.Rules = DefaultReasonRules()
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Match scores every candidate against the request and returns the
// ranked, truncated results. An empty candidate pool returns an empty
// slice. The engine never filters candidates: a provider with no
// matching skill still appears (with a zero skills sub-score) unless
// the caller pre-filters.
func (e *Engine) Match(req ServiceRequest, candidates []Provider) []MatchingResult {
	results, _ := e.MatchWithDiagnostics(req, candidates)
	return results
}

// MatchWithDiagnostics is Match plus the field-level warnings the
// extractors collected while defaulting around degraded provider
// records. Warnings never affect scores or ordering.
func (e *Engine) MatchWithDiagnostics(req ServiceRequest, candidates []Provider) ([]MatchingResult, []FieldWarning) {
	results := make([]MatchingResult, 0, len(candidates))
	var warnings []FieldWarning

	for _, p := range candidates {
		sub, w := scoreProvider(req, p, e.cfg)
		total := aggregate(sub, e.cfg.Weights)
		results = append(results, MatchingResult{
			Provider:  p,
			Score:     total,
			Reasons:   matchReasons(sub, total, e.cfg.Weights, e.cfg.Reasons),
			SubScores: sub,
		})
		warnings = append(warnings, w...)
	}

	rankResults(results)
	return truncate(results, e.cfg.MaxResults), warnings
}

// Match is the one-call form: validate the config, score, rank. For
// repeated calls with the same config, build an Engine once instead.
func Match(req ServiceRequest, candidates []Provider, cfg Config) ([]MatchingResult, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Match(req, candidates), nil
}
