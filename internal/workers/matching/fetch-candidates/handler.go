// internal/workers/matching/fetch-candidates/handler.go
package fetchcandidates

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	commonerrors "marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "fetch-candidates"
)

var (
	ErrDirectoryQueryFailed = errors.New("DIRECTORY_QUERY_FAILED")
	ErrDirectoryTimeout     = errors.New("DIRECTORY_QUERY_TIMEOUT")
	ErrIndexNotFound        = errors.New("DIRECTORY_INDEX_NOT_FOUND")
	ErrFallbackQueryFailed  = errors.New("QUERY_EXECUTION_FAILED")
)

type Handler struct {
	config     *Config
	es         *elasticsearch.Client
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, es *elasticsearch.Client, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		es:         es,
		db:         db,
		redis:      rdb,
		logger:     scoped,
		errHandler: commonerrors.NewErrorHandler(scoped),
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
		h.errHandler.HandleJobError(context.Background(), client, job, h.toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.MaxCandidates
	if limit <= 0 || limit > h.config.MaxCandidates {
		limit = h.config.MaxCandidates
	}

	cacheKey := h.cacheKey(input.Request)
	if docs, ok := h.fromCache(ctx, cacheKey); ok {
		if len(docs) > limit {
			docs = docs[:limit]
		}
		return &Output{
			Candidates:     docs,
			CandidateCount: len(docs),
			Source:         "cache",
			FromCache:      true,
		}, nil
	}

	docs, err := h.searchDirectory(ctx, input.Request, limit)
	source := "elasticsearch"
	if err != nil {
		if errors.Is(err, ErrDirectoryTimeout) {
			return nil, err
		}
		h.logger.Warn("directory query failed, falling back to postgres", map[string]interface{}{
			"requestId": input.Request.ID,
			"error":     err.Error(),
		})
		docs, err = h.fetchFromPostgres(ctx, input.Request, limit)
		if err != nil {
			return nil, err
		}
		source = "postgres"
	}

	h.storeCache(ctx, cacheKey, docs)

	h.logger.Info("candidates fetched", map[string]interface{}{
		"requestId":      input.Request.ID,
		"candidateCount": len(docs),
		"source":         source,
	})

	return &Output{
		Candidates:     docs,
		CandidateCount: len(docs),
		Source:         source,
	}, nil
}

func (h *Handler) cacheKey(req models.ServiceRequestPayload) string {
	return fmt.Sprintf("directory:candidates:%s:%s:%s",
		strings.ToLower(req.Category),
		strings.ToLower(req.Subcategory),
		strings.ToLower(req.Governorate))
}

func (h *Handler) fromCache(ctx context.Context, key string) ([]models.ProviderDocument, bool) {
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var docs []models.ProviderDocument
	if err := json.Unmarshal([]byte(val), &docs); err != nil {
		return nil, false
	}
	return docs, true
}

func (h *Handler) storeCache(ctx context.Context, key string, docs []models.ProviderDocument) {
	data, err := json.Marshal(docs)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// searchDirectory queries the provider index. The filter is deliberately
// loose: the category and governorate narrow the pool, the city only
// boosts, and the scoring engine does the real ranking downstream.
func (h *Handler) searchDirectory(ctx context.Context, req models.ServiceRequestPayload, limit int) ([]models.ProviderDocument, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"skills.category": strings.ToLower(req.Category)}},
					{"term": map[string]interface{}{"governorate": strings.ToLower(req.Governorate)}},
				},
				"should": []map[string]interface{}{
					{"term": map[string]interface{}{"city": strings.ToLower(req.City)}},
					{"term": map[string]interface{}{"skills.subcategory": strings.ToLower(req.Subcategory)}},
				},
			},
		},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrDirectoryQueryFailed, err)
	}

	res, err := h.es.Search(
		h.es.Search.WithContext(ctx),
		h.es.Search.WithIndex(h.config.Index),
		h.es.Search.WithBody(&body),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrDirectoryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: index %q", ErrIndexNotFound, h.config.Index)
		}
		return nil, fmt.Errorf("%w: %s", ErrDirectoryQueryFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDirectoryQueryFailed, err)
	}

	docs := make([]models.ProviderDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// fetchFromPostgres is the degraded path when the directory index is
// down. Ordering here is only a pre-ranking by rating; final ordering
// comes from the scoring engine.
func (h *Handler) fetchFromPostgres(ctx context.Context, req models.ServiceRequestPayload, limit int) ([]models.ProviderDocument, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, display_name, avg_rating, review_count, completed_jobs,
		       verification_level, top_rated, avg_response_minutes,
		       skills, governorate, city, availability,
		       completion_rate, last_active_at
		FROM providers
		WHERE lower(governorate) = lower($1)
		  AND EXISTS (
		        SELECT 1 FROM jsonb_array_elements(skills) s
		        WHERE lower(s->>'category') = lower($2))
		ORDER BY avg_rating DESC
		LIMIT $3`, req.Governorate, req.Category, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackQueryFailed, err)
	}
	defer rows.Close()

	var docs []models.ProviderDocument
	for rows.Next() {
		var r models.ProviderRow
		err := rows.Scan(&r.ID, &r.DisplayName, &r.AvgRating, &r.ReviewCount, &r.CompletedJobs,
			&r.VerificationLevel, &r.TopRated, &r.AvgResponseMinutes,
			&r.SkillsJSON, &r.Governorate, &r.City, &r.AvailabilityJSON,
			&r.CompletionRate, &r.LastActiveAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrFallbackQueryFailed, err)
		}
		docs = append(docs, r.ToDocument())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackQueryFailed, err)
	}
	return docs, nil
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

// toStandardError maps the package sentinels onto the shared error
// model, which carries the retry budget per code.
func (h *Handler) toStandardError(err error) *commonerrors.StandardError {
	switch {
	case errors.Is(err, ErrIndexNotFound):
		return commonerrors.Wrap(commonerrors.ErrCodeDirectoryIndexNotFound, "provider index missing", err, false)
	case errors.Is(err, ErrDirectoryTimeout):
		return commonerrors.Wrap(commonerrors.ErrCodeDirectoryQueryTimeout, "directory query timed out", err, true)
	case errors.Is(err, ErrFallbackQueryFailed):
		return commonerrors.Wrap(commonerrors.ErrCodeQueryExecutionFailed, "fallback query failed", err, true)
	case errors.Is(err, ErrDirectoryQueryFailed):
		return commonerrors.Wrap(commonerrors.ErrCodeDirectoryQueryFailed, "directory query failed", err, true)
	}
	return commonerrors.Wrap(commonerrors.ErrCodeInternal, "unexpected error", err, false)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
