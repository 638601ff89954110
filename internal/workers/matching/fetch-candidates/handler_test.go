// internal/workers/matching/fetch-candidates/handler_test.go
package fetchcandidates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonerrors "marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		Index:         "providers",
		MaxCandidates: 100,
		CacheTTL:      10 * time.Minute,
	}
}

func testRequestPayload() models.ServiceRequestPayload {
	return models.ServiceRequestPayload{
		ID:          "req-001",
		Category:    "plumbing",
		Subcategory: "leak-repair",
		Urgency:     "immediate",
		Governorate: "Cairo",
		City:        "Maadi",
	}
}

func testProviderDoc(id string) models.ProviderDocument {
	return models.ProviderDocument{
		ID:                 id,
		DisplayName:        "Provider " + id,
		AvgRating:          4.5,
		ReviewCount:        20,
		CompletedJobs:      80,
		VerificationLevel:  "skill_verified",
		AvgResponseMinutes: 30,
		Skills: []models.SkillEntry{
			{Category: "plumbing", Subcategory: "leak-repair", Verified: true, YearsExperience: 4},
		},
		Governorate:    "cairo",
		City:           "maadi",
		CompletionRate: 90,
	}
}

// newTestES starts an HTTP stub that speaks just enough of the search
// API for the client's product check to pass.
func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func searchReply(docs ...models.ProviderDocument) []byte {
	type hit struct {
		Source models.ProviderDocument `json:"_source"`
	}
	var hits []hit
	for _, d := range docs {
		hits = append(hits, hit{Source: d})
	}
	body, _ := json.Marshal(map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(docs)},
			"hits":  hits,
		},
	})
	return body
}

func TestHandler_Execute_FromElasticsearch(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(searchReply(testProviderDoc("provider-a"), testProviderDoc("provider-b")))
	})
	mr, rdb := newTestRedis(t)

	handler := NewHandler(createTestConfig(), es, nil, rdb, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Request: testRequestPayload()})

	require.NoError(t, err)
	assert.Equal(t, "elasticsearch", output.Source)
	assert.False(t, output.FromCache)
	assert.Equal(t, 2, output.CandidateCount)
	assert.Equal(t, "provider-a", output.Candidates[0].ID)

	// Successful fetches warm the cache for the next request in the
	// same category/governorate.
	assert.True(t, mr.Exists("directory:candidates:plumbing:leak-repair:cairo"))
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	docs := []models.ProviderDocument{testProviderDoc("provider-a")}
	cached, err := json.Marshal(docs)
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("directory:candidates:plumbing:leak-repair:cairo").SetVal(string(cached))

	// The directory is never consulted on a cache hit; the stub fails
	// the test if it is.
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected directory query on cache hit")
	})

	handler := NewHandler(createTestConfig(), es, nil, rdb, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Request: testRequestPayload()})

	require.NoError(t, err)
	assert.True(t, output.FromCache)
	assert.Equal(t, "cache", output.Source)
	assert.Equal(t, 1, output.CandidateCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHitRespectsLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	docs := []models.ProviderDocument{
		testProviderDoc("provider-a"),
		testProviderDoc("provider-b"),
		testProviderDoc("provider-c"),
	}
	cached, _ := json.Marshal(docs)
	require.NoError(t, mr.Set("directory:candidates:plumbing:leak-repair:cairo", string(cached)))

	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected directory query on cache hit")
	})

	handler := NewHandler(createTestConfig(), es, nil, rdb, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Request:       testRequestPayload(),
		MaxCandidates: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.CandidateCount)
}

func TestHandler_Execute_PostgresFallback(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, rdb := newTestRedis(t)

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	skills, _ := json.Marshal([]models.SkillEntry{
		{Category: "plumbing", Subcategory: "leak-repair", Verified: true, YearsExperience: 7},
	})
	avail, _ := json.Marshal(models.Availability{IsAvailable: true})

	dbmock.ExpectQuery("SELECT id, display_name").
		WithArgs("Cairo", "plumbing", 100).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "display_name", "avg_rating", "review_count", "completed_jobs",
			"verification_level", "top_rated", "avg_response_minutes",
			"skills", "governorate", "city", "availability",
			"completion_rate", "last_active_at",
		}).AddRow(
			"provider-pg", "Hassan the Plumber", 4.6, 33, 140,
			"fully_approved", true, 25.0,
			skills, "cairo", "maadi", avail,
			93.0, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		))

	handler := NewHandler(createTestConfig(), es, db, rdb, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Request: testRequestPayload()})

	require.NoError(t, err)
	assert.Equal(t, "postgres", output.Source)
	require.Equal(t, 1, output.CandidateCount)

	doc := output.Candidates[0]
	assert.Equal(t, "provider-pg", doc.ID)
	require.Len(t, doc.Skills, 1)
	assert.Equal(t, "plumbing", doc.Skills[0].Category)
	require.NotNil(t, doc.Availability)
	assert.True(t, doc.Availability.IsAvailable)
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

func TestHandler_Execute_FallbackQueryFailure(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, rdb := newTestRedis(t)

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbmock.ExpectQuery("SELECT id, display_name").
		WillReturnError(assert.AnError)

	handler := NewHandler(createTestConfig(), es, db, rdb, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Request: testRequestPayload()})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrFallbackQueryFailed)
	assert.Equal(t, commonerrors.ErrCodeQueryExecutionFailed, handler.toStandardError(err).Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, nil, logger.NewTestLogger(t))

	tests := []struct {
		err       error
		code      commonerrors.ErrorCode
		retryable bool
		retries   int
	}{
		{ErrDirectoryQueryFailed, commonerrors.ErrCodeDirectoryQueryFailed, true, 3},
		{ErrDirectoryTimeout, commonerrors.ErrCodeDirectoryQueryTimeout, true, 2},
		{ErrIndexNotFound, commonerrors.ErrCodeDirectoryIndexNotFound, false, 0},
		{ErrFallbackQueryFailed, commonerrors.ErrCodeQueryExecutionFailed, true, 1},
		{assert.AnError, commonerrors.ErrCodeInternal, false, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			stdErr := handler.toStandardError(tt.err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, tt.retries, commonerrors.GetRetryCount(stdErr.Code))
			assert.Contains(t, stdErr.Details, tt.err.Error())
		})
	}
}
