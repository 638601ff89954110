// internal/workers/matching/match-providers/handler.go
package matchproviders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
	"marketplace-workers/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "match-providers"
)

var (
	ErrMatchConfigInvalid = errors.New("MATCH_CONFIG_INVALID")
	ErrMatchFailed        = errors.New("MATCH_FAILED")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, h.mapErrorToCode(err), err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	cfg := h.config.Engine

	if input.WeightsOverride != nil {
		cfg.Weights = *input.WeightsOverride
	}
	if input.MaxResultsOverride != nil {
		cfg.MaxResults = *input.MaxResultsOverride
	}

	// The engine never reads the clock; the worker pins the reference
	// time so a retried job scores availability the same way.
	if input.ReferenceTime != "" {
		ref, err := time.Parse(time.RFC3339, input.ReferenceTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad referenceTime %q: %v", ErrMatchFailed, input.ReferenceTime, err)
		}
		cfg.ReferenceTime = ref
	} else {
		cfg.ReferenceTime = time.Now().UTC()
	}

	engine, err := matching.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchConfigInvalid, err)
	}

	req := input.Request.ToMatching()
	candidates := make([]matching.Provider, 0, len(input.Candidates))
	for _, doc := range input.Candidates {
		candidates = append(candidates, doc.ToMatching())
	}

	results, warnings := engine.MatchWithDiagnostics(req, candidates)

	urgency := string(req.Urgency)
	metrics.MatchCandidatesScored.WithLabelValues(urgency).Observe(float64(len(candidates)))
	if len(results) > 0 {
		metrics.MatchTopScore.WithLabelValues(urgency).Observe(results[0].Score)
	} else {
		metrics.MatchEmptyResults.WithLabelValues(urgency).Inc()
	}

	matches := make([]MatchEntry, 0, len(results))
	for _, r := range results {
		matches = append(matches, MatchEntry{
			ProviderID:   r.Provider.ID,
			ProviderName: r.Provider.Name,
			Score:        r.Score,
			Reasons:      r.Reasons,
			SubScores:    r.SubScores,
		})
	}

	h.logger.Info("match completed", map[string]interface{}{
		"requestId":      req.ID,
		"candidateCount": len(candidates),
		"matchCount":     len(matches),
		"warningCount":   len(warnings),
	})

	return &Output{
		BatchID:    uuid.New().String(),
		RequestID:  req.ID,
		Matches:    matches,
		MatchCount: len(matches),
		Warnings:   warnings,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) mapErrorToCode(err error) string {
	if errors.Is(err, ErrMatchConfigInvalid) {
		return "MATCH_CONFIG_INVALID"
	}
	return "MATCH_FAILED"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
