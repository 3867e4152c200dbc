// Package sqs sends mutation notifications to the downstream work queue.
package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// SendMessageAPI is the subset of the SQS API the queue uses.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ SendMessageAPI = (*sqs.Client)(nil)

// Queue serialises payloads as JSON message bodies. The payload's action is
// copied to a message attribute so consumers can filter without parsing.
type Queue struct {
	client   SendMessageAPI
	queueURL string
	logger   *zap.Logger
}

func NewQueue(client SendMessageAPI, queueURL string, logger *zap.Logger) *Queue {
	return &Queue{client: client, queueURL: queueURL, logger: logger}
}

func (q *Queue) Send(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if action, ok := payload["action"].(string); ok && action != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"action": {DataType: aws.String("String"), StringValue: aws.String(action)},
		}
	}

	out, err := q.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send message to queue: %w", err)
	}

	q.logger.Debug("Message sent to queue",
		zap.String("messageId", aws.ToString(out.MessageId)),
	)
	return nil
}
