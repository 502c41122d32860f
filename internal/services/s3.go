package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"spider-indexer-scraper/internal/models"
)

// S3API is the subset of the S3 client used by the feed exporter
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type"`
}

// S3FeedExporter buffers emitted records and uploads them as one JSON feed
// when the run is flushed
type S3FeedExporter struct {
	client     S3API
	bucketName string
	region     string

	mu      sync.Mutex
	records []models.PageRecord
}

// NewS3FeedExporter creates a feed exporter writing to bucketName
func NewS3FeedExporter(client S3API, bucketName, region string) *S3FeedExporter {
	return &S3FeedExporter{
		client:     client,
		bucketName: bucketName,
		region:     region,
	}
}

// Emit buffers a record for the next Flush
func (s *S3FeedExporter) Emit(ctx context.Context, rec models.PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

// Buffered returns the number of records waiting to be flushed
func (s *S3FeedExporter) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Flush uploads every buffered record as a JSON array under key and clears
// the buffer. An empty buffer still produces an empty feed so each run has
// an object.
func (s *S3FeedExporter) Flush(ctx context.Context, key string) (*S3UploadResult, error) {
	s.mu.Lock()
	records := s.records
	s.records = nil
	s.mu.Unlock()

	if records == nil {
		records = []models.PageRecord{}
	}

	jsonData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feed to JSON: %w", err)
	}

	return s.uploadJSON(ctx, jsonData, key, "application/json")
}

// uploadJSON is a helper method to upload JSON data to S3
func (s *S3FeedExporter) uploadJSON(ctx context.Context, data []byte, key, contentType string) (*S3UploadResult, error) {
	// Ensure key doesn't start with /
	key = strings.TrimPrefix(key, "/")

	result, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-by": "spider-indexer-scraper",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload feed to S3: %w", err)
	}

	return &S3UploadResult{
		Key:         key,
		Location:    s.GetLocation(key),
		ETag:        strings.Trim(aws.ToString(result.ETag), `"`),
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ContentType: contentType,
	}, nil
}

// GetBucketName returns the configured bucket name
func (s *S3FeedExporter) GetBucketName() string {
	return s.bucketName
}

// GetLocation returns the URL of an object in the feed bucket
func (s *S3FeedExporter) GetLocation(key string) string {
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
