package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

const (
	sqsWaitSeconds  = 20
	sqsBatchSize    = 5
	sqsRetryBackoff = 5 * time.Second
)

// SQSClient sends and receives queue messages over AWS SQS.
type SQSClient struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSClient constructs an SQS-backed queue client.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("sqs queue url is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSClient{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Send delivers a message to the configured SQS queue.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Consume long-polls the queue and hands each decoded message to the
// handler. Messages are deleted once handled; handler failures are recorded
// on the target row, so redelivery would only repeat a terminal failure.
func (s *SQSClient) Consume(ctx context.Context, handler Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: sqsBatchSize,
			WaitTimeSeconds:     sqsWaitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			telemetry.Warn("queue.receive_failed", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sqsRetryBackoff):
			}
			continue
		}

		for _, raw := range out.Messages {
			msg, err := DecodeMessage([]byte(aws.ToString(raw.Body)))
			if err != nil {
				telemetry.Warn("queue.decode_failed", map[string]any{"error": err.Error()})
			} else if err := handler(ctx, msg); err != nil {
				telemetry.Warn("queue.handler_failed", map[string]any{
					"kind":      msg.Kind,
					"resume_id": msg.ApplicationID,
					"error":     err.Error(),
				})
			}

			if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueURL),
				ReceiptHandle: raw.ReceiptHandle,
			}); err != nil {
				telemetry.Warn("queue.delete_failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

var (
	_ Client   = (*SQSClient)(nil)
	_ Consumer = (*SQSClient)(nil)
)
