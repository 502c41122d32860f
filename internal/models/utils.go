package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateCrawlRunID creates a unique ID for a crawl run
func GenerateCrawlRunID() string {
	return "run_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// GenerateFeedKey builds the S3 key a run's feed is exported to
func GenerateFeedKey(runID string, timestamp time.Time) string {
	return fmt.Sprintf("feeds/%s-%s.json", timestamp.UTC().Format("2006-01-02T15-04-05Z"), runID)
}

// ValidateStartURL performs basic validation of a start page before it is
// handed to the fetch engine
func ValidateStartURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	if len(raw) > 2048 {
		return fmt.Errorf("URL too long: %d characters", len(raw))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}

	return nil
}
