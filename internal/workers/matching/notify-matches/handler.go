// internal/workers/matching/notify-matches/handler.go
package notifymatches

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonaws "marketplace-workers/internal/common/aws"
	commonhttp "marketplace-workers/internal/common/http"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-matches"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config      *Config
	logger      logger.Logger
	sesClient   SESService
	snsClient   SNSService
	webhookHTTP *commonhttp.Client
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	ctx := context.Background()
	sesClient, err := commonaws.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}

	return &Handler{
		config:      config,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient:   sesClient,
		snsClient:   snsClient,
		webhookHTTP: commonhttp.NewClient(config.Timeout),
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
		h.failJob(client, job, "NOTIFICATION_SEND_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute fans the match batch out over the requested channels. A
// single channel failing is recorded and tolerated; the job errors
// only when every attempted channel failed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	channels := input.Channels
	if len(channels) == 0 {
		channels = h.config.DefaultChannels
	}

	sentAt := time.Now().UTC()
	var notifications []models.MatchNotification
	attempted, succeeded := 0, 0

	for _, channel := range channels {
		n := models.MatchNotification{
			ID:         uuid.New().String(),
			RequestID:  input.RequestID,
			SeekerID:   input.SeekerID,
			Channel:    channel,
			MatchCount: len(input.Matches),
			Status:     models.NotificationStatusDisabled,
			SentAt:     sentAt,
		}
		if len(input.Matches) > 0 {
			n.TopProvider = input.Matches[0].ProviderName
		}

		var err error
		var skipped bool
		switch channel {
		case ChannelEmail:
			if input.SeekerEmail == "" {
				skipped = true
			} else {
				err = h.sendEmail(ctx, input)
			}
		case ChannelPush:
			if h.config.SNSTopicArn == "" {
				skipped = true
			} else {
				err = h.publishPush(ctx, input)
			}
		case ChannelWebhook:
			if h.config.WebhookURL == "" {
				skipped = true
			} else {
				err = h.callWebhook(ctx, input)
			}
		default:
			h.logger.Warn("unknown notification channel", map[string]interface{}{
				"channel": channel,
			})
			skipped = true
		}

		if !skipped {
			attempted++
			if err != nil {
				n.Status = models.NotificationStatusFailed
				h.logger.Error("channel send failed", map[string]interface{}{
					"channel":   channel,
					"requestId": input.RequestID,
					"error":     err,
				})
			} else {
				n.Status = models.NotificationStatusSent
				succeeded++
			}
		}

		notifications = append(notifications, n)
	}

	if attempted > 0 && succeeded == 0 {
		return nil, fmt.Errorf("%w: all %d channels failed for request %s", ErrNotificationSendFailed, attempted, input.RequestID)
	}

	status := models.NotificationStatusDisabled
	if succeeded > 0 {
		status = models.NotificationStatusSent
	}

	h.logger.Info("notifications dispatched", map[string]interface{}{
		"requestId": input.RequestID,
		"attempted": attempted,
		"succeeded": succeeded,
	})

	return &Output{
		Notifications:     notifications,
		NotificationCount: succeeded,
		Status:            status,
	}, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) error {
	subject, body := renderEmail(input.Matches)
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.SeekerEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.SenderEmail),
	})
	return err
}

func (h *Handler) publishPush(ctx context.Context, input *Input) error {
	payload := map[string]interface{}{
		"requestId":  input.RequestID,
		"seekerId":   input.SeekerID,
		"matchCount": len(input.Matches),
	}
	if len(input.Matches) > 0 {
		payload["topProvider"] = input.Matches[0].ProviderName
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.SNSTopicArn),
		Message:  aws.String(string(data)),
	})
	return err
}

func (h *Handler) callWebhook(ctx context.Context, input *Input) error {
	body, err := json.Marshal(webhookPayload{
		RequestID:  input.RequestID,
		SeekerID:   input.SeekerID,
		MatchCount: len(input.Matches),
		Matches:    input.Matches,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, h.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.webhookHTTP.DoWithContext(ctx, req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", res.Status)
	}
	return nil
}

// renderEmail builds the seeker-facing Arabic notification text.
func renderEmail(matches []MatchEntry) (subject, body string) {
	if len(matches) == 0 {
		subject = "ما زلنا نبحث عن مقدم خدمة لطلبك"
		body = "لم نعثر بعد على مقدم خدمة مناسب لطلبك. سنخطرك فور توفر مقدمين جدد."
		return subject, body
	}

	subject = fmt.Sprintf("وجدنا %d من مقدمي الخدمات المناسبين لطلبك", len(matches))

	var b strings.Builder
	b.WriteString("مرحباً،\n\nهؤلاء هم أفضل مقدمي الخدمات المطابقين لطلبك:\n")
	for i, m := range matches {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, m.ProviderName))
		if len(m.Reasons) > 0 {
			b.WriteString(" — " + strings.Join(m.Reasons, "، "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nيمكنك التواصل معهم مباشرة من التطبيق.")
	return subject, b.String()
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
