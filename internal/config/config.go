package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"spider-indexer-scraper/internal/models"
)

// Config holds the process-wide settings read from the environment
type Config struct {
	AWSRegion  string
	AWSProfile string

	TableName      string
	TrimOffset     int
	StorePageTitle bool
	StartURLs      []string
	UserAgent      string
	ObeyRobots     bool
	RequestTimeout time.Duration
	FeedBucket     string

	QueueURL     string
	FunctionName string

	LogLevel string
	LogDev   bool
}

// Load reads an optional .env file and then the environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AWSRegion:      getEnv("AWS_REGION", models.DefaultRegion),
		AWSProfile:     getEnv("AWS_PROFILE", ""),
		TableName:      getEnv("SPIDER_TABLE", models.DefaultTableName),
		TrimOffset:     getEnvInt("SPIDER_TRIM_OFFSET", models.DefaultTrimOffset),
		StorePageTitle: getEnvBool("SPIDER_STORE_PAGE_TITLE", false),
		StartURLs:      getEnvList("SPIDER_START_URLS", models.DefaultStartURLs()),
		UserAgent:      getEnv("SPIDER_USER_AGENT", ""),
		ObeyRobots:     getEnvBool("SPIDER_OBEY_ROBOTS", true),
		RequestTimeout: time.Duration(getEnvInt("SPIDER_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		FeedBucket:     getEnv("SPIDER_FEED_BUCKET", ""),
		QueueURL:       getEnv("SPIDER_QUEUE_URL", ""),
		FunctionName:   getEnv("SPIDER_FUNCTION_NAME", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDev:         getEnvBool("LOG_DEV", false),
	}
}

// CrawlDefaults returns the crawl settings used before an event is applied
func (c *Config) CrawlDefaults() models.CrawlSettings {
	s := models.DefaultCrawlSettings()
	s.StartURLs = append([]string(nil), c.StartURLs...)
	s.TableName = c.TableName
	s.TrimOffset = c.TrimOffset
	s.StorePageTitle = c.StorePageTitle
	s.UserAgent = c.UserAgent
	s.ObeyRobots = c.ObeyRobots
	s.FeedBucket = c.FeedBucket
	if c.RequestTimeout > 0 {
		s.RequestTimeout = c.RequestTimeout
	}
	return s
}

// LoadAWSConfig loads the shared AWS configuration, optionally pinned to a
// region and a named profile
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList reads a comma separated list
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
