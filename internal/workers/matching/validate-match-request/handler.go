// internal/workers/matching/validate-match-request/handler.go
package validatematchrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/validation"
	"marketplace-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "validate-match-request"
)

var (
	ErrRequestValidationFailed = errors.New("REQUEST_VALIDATION_FAILED")
	ErrRequestExpired          = errors.New("REQUEST_EXPIRED")
)

// requestSchemaJSON is the structural contract for incoming match
// requests. Urgency values are checked separately so the comparison
// can be case-insensitive.
const requestSchemaJSON = `{
	"type": "object",
	"required": ["id", "category", "subcategory", "urgency", "governorate", "city"],
	"properties": {
		"id":          {"type": "string", "minLength": 1},
		"category":    {"type": "string", "minLength": 1},
		"subcategory": {"type": "string", "minLength": 1},
		"urgency":     {"type": "string"},
		"governorate": {"type": "string", "minLength": 1},
		"city":        {"type": "string", "minLength": 1},
		"lat":         {"type": "number", "minimum": -90, "maximum": 90},
		"lon":         {"type": "number", "minimum": -180, "maximum": 180},
		"description": {"type": "string", "maxLength": 2000},
		"budgetMin":   {"type": "number", "minimum": 0},
		"budgetMax":   {"type": "number", "minimum": 0},
		"createdAt":   {"type": "string"},
		"expiresAt":   {"type": "string"}
	}
}`

// urgencyRules covers what the JSON Schema above cannot: enum matching
// that tolerates client casing like "Immediate".
var urgencyRules = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"urgency": {Type: "string", Enum: []string{"immediate", "this_week", "flexible"}},
	},
	AdditionalProperties: true,
}

type Handler struct {
	config *Config
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Handler{
		config: config,
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
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

// execute validates and normalizes the request. Field-level problems
// complete the job with requestValid=false so the workflow can route
// to a rejection path; only an expired request throws, since no retry
// or correction can revive it.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Request == nil {
		return &Output{
			Valid: false,
			Errors: []validation.ValidationError{
				{Field: "request", Message: "request payload missing", Code: "REQUIRED_FIELD_MISSING"},
			},
		}, nil
	}

	var errs []validation.ValidationError

	result, err := h.schema.Validate(gojsonschema.NewGoLoader(input.Request))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestValidationFailed, err)
	}
	for _, e := range result.Errors() {
		errs = append(errs, validation.ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    "SCHEMA_VIOLATION",
		})
	}

	if enumResult := validation.ValidateInput(input.Request, urgencyRules); !enumResult.Valid {
		errs = append(errs, enumResult.Errors...)
	}

	payload, decodeErr := decodePayload(input.Request)
	if decodeErr != nil {
		errs = append(errs, validation.ValidationError{
			Field:   "request",
			Message: decodeErr.Error(),
			Code:    "TYPE_MISMATCH",
		})
	}

	if payload != nil {
		if payload.BudgetMin != nil && payload.BudgetMax != nil && *payload.BudgetMin > *payload.BudgetMax {
			errs = append(errs, validation.ValidationError{
				Field:   "budgetMin",
				Message: "budgetMin exceeds budgetMax",
				Code:    "BUDGET_RANGE_INVALID",
			})
		}
		if (payload.Lat == nil) != (payload.Lon == nil) {
			errs = append(errs, validation.ValidationError{
				Field:   "lat",
				Message: "lat and lon must be provided together",
				Code:    "COORDINATES_INCOMPLETE",
			})
		}
		if payload.ExpiresAt != "" {
			expires, err := time.Parse(time.RFC3339, payload.ExpiresAt)
			if err != nil {
				errs = append(errs, validation.ValidationError{
					Field:   "expiresAt",
					Message: "not a valid RFC3339 timestamp",
					Code:    "TYPE_MISMATCH",
				})
			} else if expires.Before(time.Now().UTC()) {
				return nil, fmt.Errorf("%w: request %s expired at %s", ErrRequestExpired, payload.ID, payload.ExpiresAt)
			}
		}
	}

	if len(errs) > 0 {
		h.logger.Info("request rejected", map[string]interface{}{
			"errorCount": len(errs),
		})
		return &Output{Valid: false, Errors: errs}, nil
	}

	normalized := normalize(*payload)
	h.logger.Info("request validated", map[string]interface{}{
		"requestId": normalized.ID,
		"category":  normalized.Category,
		"urgency":   normalized.Urgency,
	})

	return &Output{
		Valid:   true,
		Errors:  []validation.ValidationError{},
		Request: &normalized,
	}, nil
}

func decodePayload(raw map[string]interface{}) (*models.ServiceRequestPayload, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var payload models.ServiceRequestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// normalize trims and canonicalizes the fields downstream workers key
// on. Name casing is preserved: the engine compares names
// case-insensitively, and the original casing is what seekers see.
func normalize(p models.ServiceRequestPayload) models.ServiceRequestPayload {
	p.ID = strings.TrimSpace(p.ID)
	p.Category = collapseSpaces(p.Category)
	p.Subcategory = collapseSpaces(p.Subcategory)
	p.Urgency = strings.ToLower(strings.TrimSpace(p.Urgency))
	p.Governorate = collapseSpaces(p.Governorate)
	p.City = collapseSpaces(p.City)
	p.Description = strings.TrimSpace(p.Description)
	return p
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
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
	if errors.Is(err, ErrRequestExpired) {
		return "REQUEST_EXPIRED"
	}
	return "REQUEST_VALIDATION_FAILED"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
