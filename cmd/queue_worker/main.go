package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"spider-indexer-scraper/internal/config"
	"spider-indexer-scraper/internal/logger"
	"spider-indexer-scraper/internal/models"
	"spider-indexer-scraper/internal/services"
)

var (
	// AWS services
	invoker *services.Invoker

	log *zap.Logger
)

func init() {
	cfg := config.Load()
	log = logger.Must(cfg.LogLevel, false)

	awsCfg, err := config.LoadAWSConfig(context.TODO(), cfg.AWSRegion, "")
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	defaults := cfg.CrawlDefaults()
	defaults.TriggerType = models.TriggerTypeQueue

	invoker = services.NewInvoker(
		dynamodb.NewFromConfig(awsCfg),
		s3.NewFromConfig(awsCfg),
		cfg.AWSRegion,
		defaults,
		log,
	)
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	return processBatch(ctx, invoker, sqsEvent), nil
}

// processBatch runs one crawl per message. Only messages whose crawl could
// not start are reported back for redelivery; per-page failures are not.
func processBatch(ctx context.Context, inv *services.Invoker, sqsEvent events.SQSEvent) events.SQSEventResponse {
	log.Info("Processing SQS messages", zap.Int("count", len(sqsEvent.Records)))

	var resp events.SQSEventResponse
	for _, record := range sqsEvent.Records {
		if err := processMessage(ctx, inv, record); err != nil {
			log.Error("Failed to process message", zap.String("message_id", record.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return resp
}

func processMessage(ctx context.Context, inv *services.Invoker, record events.SQSMessage) error {
	run, err := inv.Invoke(ctx, []byte(record.Body))
	if err != nil {
		return err
	}

	log.Info("Completed queued crawl",
		zap.String("message_id", record.MessageId),
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int("records_stored", run.RecordsStored),
	)
	return nil
}
