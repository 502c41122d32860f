package services

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"spider-indexer-scraper/internal/models"
)

// fakeDynamoDB is an in-memory table keyed on the Title attribute
type fakeDynamoDB struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	puts      int
	putErr    error
	createErr error
	created   []string
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	if f.putErr != nil {
		return nil, f.putErr
	}

	key := params.Item["Title"].(*types.AttributeValueMemberS).Value
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, aws.ToString(params.TableName))
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamoDB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if params.Limit != nil && int32(len(out)) >= *params.Limit {
			break
		}
		out = append(out, item)
	}
	return &dynamodb.ScanOutput{Items: out, Count: int32(len(out))}, nil
}

func (f *fakeDynamoDB) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func (f *fakeDynamoDB) snapshot() map[string]map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]map[string]types.AttributeValue, len(f.items))
	for k, v := range f.items {
		out[k] = v
	}
	return out
}

// fakeS3 records uploaded objects in memory
type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.objects[key] = bytes.Clone(data)
	f.contentTypes[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-1"`)}, nil
}

// fakeSQS records sent messages
type fakeSQS struct {
	messages []*sqs.SendMessageInput
	sendErr  error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.messages = append(f.messages, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

// fakeLambda records invocations and answers with a canned payload
type fakeLambda struct {
	inputs     []*lambda.InvokeInput
	payload    []byte
	funcErr    string
	statusCode int32
	invokeErr  error
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	f.inputs = append(f.inputs, params)

	out := &lambda.InvokeOutput{Payload: f.payload, StatusCode: f.statusCode}
	if f.funcErr != "" {
		out.FunctionError = aws.String(f.funcErr)
	}
	return out, nil
}

// recordingEmitter keeps every emitted record
type recordingEmitter struct {
	records []models.PageRecord
	err     error
}

func (e *recordingEmitter) Emit(ctx context.Context, rec models.PageRecord) error {
	e.records = append(e.records, rec)
	return e.err
}
