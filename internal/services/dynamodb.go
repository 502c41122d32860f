package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"spider-indexer-scraper/internal/models"
)

// DynamoDBAPI is the subset of the DynamoDB client used by PageStore.
// *dynamodb.Client satisfies it.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// PageStore writes page records to a single DynamoDB table
type PageStore struct {
	client       DynamoDBAPI
	tableName    string
	usePageTitle bool
}

// NewPageStore creates a new page store. When usePageTitle is false the
// stored Title attribute holds the page's first heading.
func NewPageStore(client DynamoDBAPI, tableName string, usePageTitle bool) *PageStore {
	return &PageStore{
		client:       client,
		tableName:    tableName,
		usePageTitle: usePageTitle,
	}
}

// TableName returns the table records are written to
func (s *PageStore) TableName() string {
	return s.tableName
}

// SavePageRecord stores a record with a single unconditional put. An
// existing item with the same key is overwritten. Failures are returned as
// *models.StoreWriteError and are not retried.
func (s *PageStore) SavePageRecord(ctx context.Context, rec models.PageRecord) error {
	stored := models.NewStoredPage(rec, s.usePageTitle)

	item, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return &models.StoreWriteError{
			Table: s.tableName,
			Title: stored.Title,
			Err:   fmt.Errorf("failed to marshal page record: %w", err),
		}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return &models.StoreWriteError{Table: s.tableName, Title: stored.Title, Err: err}
	}

	return nil
}

// CreateTable creates the page table with Title as its hash key and waits for
// it to become active. An already existing table is not an error.
func (s *PageStore) CreateTable(ctx context.Context, maxWait time.Duration) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("Title"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("Title"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, maxWait); err != nil {
		return fmt.Errorf("failed waiting for table %s: %w", s.tableName, err)
	}

	return nil
}

// CheckConnectivity scans at most one item to verify the table is reachable
// and returns the number of items read
func (s *PageStore) CheckConnectivity(ctx context.Context) (int, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
		Limit:     aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan table %s: %w", s.tableName, err)
	}

	return len(result.Items), nil
}
