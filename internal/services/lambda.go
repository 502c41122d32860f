package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"spider-indexer-scraper/internal/models"
)

// LambdaAPI is the subset of the Lambda client used to trigger a deployed crawl
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// RemoteInvoker runs crawls on the deployed crawl function
type RemoteInvoker struct {
	client       LambdaAPI
	functionName string
}

// NewRemoteInvoker creates a remote invoker for functionName
func NewRemoteInvoker(client LambdaAPI, functionName string) *RemoteInvoker {
	return &RemoteInvoker{
		client:       client,
		functionName: functionName,
	}
}

// InvokeCrawl sends the crawl event to the function. With async set the
// call returns as soon as the event is accepted and the run summary is nil.
// Unlike a local run, a malformed payload is rejected before anything is sent.
func (r *RemoteInvoker) InvokeCrawl(ctx context.Context, raw []byte, async bool) (*models.CrawlRun, error) {
	payload, err := normalizeEvent(raw, "")
	if err != nil {
		return nil, err
	}

	invocationType := lambdatypes.InvocationTypeRequestResponse
	if async {
		invocationType = lambdatypes.InvocationTypeEvent
	}

	result, err := r.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(r.functionName),
		InvocationType: invocationType,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", r.functionName, err)
	}

	if result.FunctionError != nil {
		return nil, fmt.Errorf("function %s failed (%s): %s", r.functionName, aws.ToString(result.FunctionError), string(result.Payload))
	}

	if async {
		return nil, nil
	}

	var run models.CrawlRun
	if err := json.Unmarshal(result.Payload, &run); err != nil {
		return nil, fmt.Errorf("failed to decode crawl run: %w", err)
	}

	return &run, nil
}

// normalizeEvent validates a raw crawl event and re-encodes it with only the
// recognised keys. triggerType is set when the event does not name one.
func normalizeEvent(raw []byte, triggerType string) ([]byte, error) {
	event, err := models.ParseCrawlEvent(raw)
	if err != nil {
		return nil, err
	}

	if event.TriggerType == "" {
		event.TriggerType = triggerType
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal crawl event: %w", err)
	}

	return data, nil
}
