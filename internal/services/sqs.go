package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"spider-indexer-scraper/internal/models"
)

// SQSAPI is the subset of the SQS client used to queue crawls
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// QueueClient sends crawl events to the queue consumed by the queue worker
type QueueClient struct {
	client   SQSAPI
	queueURL string
}

// NewQueueClient creates a queue client for queueURL
func NewQueueClient(client SQSAPI, queueURL string) *QueueClient {
	return &QueueClient{
		client:   client,
		queueURL: queueURL,
	}
}

// EnqueueCrawl validates raw and sends it as one message, returning the
// message ID. Events without a trigger type are marked as queued.
func (q *QueueClient) EnqueueCrawl(ctx context.Context, raw []byte) (string, error) {
	body, err := normalizeEvent(raw, models.TriggerTypeQueue)
	if err != nil {
		return "", err
	}

	result, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"TriggerType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(models.TriggerTypeQueue),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return aws.ToString(result.MessageId), nil
}
