// internal/workers/matching/notify-matches/handler_test.go
package notifymatches

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonhttp "marketplace-workers/internal/common/http"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func newTestHandler(t *testing.T, cfg *Config, sesMock SESService, snsMock SNSService) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Handler{
		config:      cfg,
		logger:      logger.NewTestLogger(t),
		sesClient:   sesMock,
		snsClient:   snsMock,
		webhookHTTP: commonhttp.NewClient(5 * time.Second),
	}
}

func testMatches() []MatchEntry {
	return []MatchEntry{
		{ProviderID: "provider-a", ProviderName: "Hassan the Plumber", Score: 0.98, Reasons: []string{"مطابقة ممتازة للمهارات", "قريب من موقعك"}},
		{ProviderID: "provider-b", ProviderName: "Omar Fixes", Score: 0.81, Reasons: []string{"تقييم عالي جداً"}},
	}
}

func TestHandler_Execute_SendsEmail(t *testing.T) {
	var captured *ses.SendEmailInput
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	handler := newTestHandler(t, nil, sesMock, nil)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID:   "req-001",
		SeekerID:    "seeker-1",
		SeekerEmail: "seeker@example.com",
		Matches:     testMatches(),
		Channels:    []string{ChannelEmail},
	})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, output.Status)
	assert.Equal(t, 1, output.NotificationCount)
	require.Len(t, output.Notifications, 1)
	assert.Equal(t, "Hassan the Plumber", output.Notifications[0].TopProvider)

	require.NotNil(t, captured)
	assert.Equal(t, []string{"seeker@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, handler.config.SenderEmail, *captured.Source)
	assert.Contains(t, *captured.Message.Subject.Data, "2")
	assert.Contains(t, *captured.Message.Body.Text.Data, "Hassan the Plumber")
	assert.Contains(t, *captured.Message.Body.Text.Data, "مطابقة ممتازة للمهارات")
}

func TestHandler_Execute_EmailSkippedWithoutAddress(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			t.Error("unexpected email send without an address")
			return nil, nil
		},
	}

	handler := newTestHandler(t, nil, sesMock, nil)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID: "req-001",
		SeekerID:  "seeker-1",
		Matches:   testMatches(),
		Channels:  []string{ChannelEmail},
	})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusDisabled, output.Status)
	assert.Equal(t, 0, output.NotificationCount)
}

func TestHandler_Execute_AllChannelsFailed(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}

	handler := newTestHandler(t, nil, sesMock, nil)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID:   "req-001",
		SeekerID:    "seeker-1",
		SeekerEmail: "seeker@example.com",
		Matches:     testMatches(),
		Channels:    []string{ChannelEmail},
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}

func TestHandler_Execute_PartialFailureTolerated(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return &sns.PublishOutput{}, nil
		},
	}

	cfg := LoadConfig()
	cfg.SNSTopicArn = "arn:aws:sns:eu-west-1:123456789012:match-events"
	handler := newTestHandler(t, cfg, sesMock, snsMock)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID:   "req-001",
		SeekerID:    "seeker-1",
		SeekerEmail: "seeker@example.com",
		Matches:     testMatches(),
		Channels:    []string{ChannelEmail, ChannelPush},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.NotificationCount)
	assert.Equal(t, models.NotificationStatusSent, output.Status)
	require.Len(t, output.Notifications, 2)
	assert.Equal(t, models.NotificationStatusFailed, output.Notifications[0].Status)
	assert.Equal(t, models.NotificationStatusSent, output.Notifications[1].Status)
}

func TestHandler_Execute_PushPayload(t *testing.T) {
	var captured *sns.PublishInput
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	cfg := LoadConfig()
	cfg.SNSTopicArn = "arn:aws:sns:eu-west-1:123456789012:match-events"
	handler := newTestHandler(t, cfg, nil, snsMock)

	_, err := handler.Execute(context.Background(), &Input{
		RequestID: "req-001",
		SeekerID:  "seeker-1",
		Matches:   testMatches(),
		Channels:  []string{ChannelPush},
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, cfg.SNSTopicArn, *captured.TopicArn)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &payload))
	assert.Equal(t, "req-001", payload["requestId"])
	assert.Equal(t, float64(2), payload["matchCount"])
	assert.Equal(t, "Hassan the Plumber", payload["topProvider"])
}

func TestHandler_Execute_Webhook(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := LoadConfig()
	cfg.WebhookURL = srv.URL
	handler := newTestHandler(t, cfg, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID: "req-001",
		SeekerID:  "seeker-1",
		Matches:   testMatches(),
		Channels:  []string{ChannelWebhook},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.NotificationCount)

	var payload webhookPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "req-001", payload.RequestID)
	assert.Equal(t, 2, payload.MatchCount)
	require.Len(t, payload.Matches, 2)
}

func TestHandler_Execute_WebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := LoadConfig()
	cfg.WebhookURL = srv.URL
	handler := newTestHandler(t, cfg, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{
		RequestID: "req-001",
		Matches:   testMatches(),
		Channels:  []string{ChannelWebhook},
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}

func TestRenderEmail_NoMatches(t *testing.T) {
	subject, body := renderEmail(nil)

	assert.Contains(t, subject, "نبحث")
	assert.Contains(t, body, "لم نعثر")
}
