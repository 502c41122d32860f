package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
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

	invoker = services.NewInvoker(
		dynamodb.NewFromConfig(awsCfg),
		s3.NewFromConfig(awsCfg),
		cfg.AWSRegion,
		cfg.CrawlDefaults(),
		log,
	)
}

func main() {
	lambda.Start(handleRequest)
}

func handleRequest(ctx context.Context, raw json.RawMessage) (*models.CrawlRun, error) {
	return handle(ctx, invoker, raw)
}

// handle runs one crawl for the invocation payload. The payload is either
// a crawl event or a scheduled EventBridge event carrying one in its detail.
func handle(ctx context.Context, inv *services.Invoker, raw json.RawMessage) (*models.CrawlRun, error) {
	payload, triggerType := crawlPayload(raw)

	settings := inv.Settings(payload)
	if triggerType != "" {
		settings.TriggerType = triggerType
	}

	run, err := inv.Run(ctx, settings)
	if err != nil {
		log.Error("Crawl failed", zap.Error(err))
		return nil, err
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		run.LambdaRequestId = lc.AwsRequestID
	}

	return run, nil
}

// crawlPayload unwraps scheduled events. Anything else is passed through
// unchanged and parsed as a crawl event.
func crawlPayload(raw json.RawMessage) ([]byte, string) {
	var event events.CloudWatchEvent
	if err := json.Unmarshal(raw, &event); err != nil || event.Source != "aws.events" {
		return raw, ""
	}

	log.Debug("Received scheduled event",
		zap.String("id", event.ID),
		zap.String("detail_type", event.DetailType),
	)

	return event.Detail, models.TriggerTypeScheduled
}
