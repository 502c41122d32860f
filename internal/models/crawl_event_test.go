package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCrawlEvent_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "null", "\n"} {
		event, err := ParseCrawlEvent([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, event.StartURLs)
		assert.Nil(t, event.TrimOffset)
	}
}

func TestParseCrawlEvent_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain text", input: "not-json"},
		{name: "array", input: `["https://example.com"]`},
		{name: "string", input: `"start_urls"`},
		{name: "truncated object", input: `{"start_urls": [`},
		{name: "wrong field type", input: `{"trim_offset": "ten"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseCrawlEvent([]byte(tt.input))
			require.Error(t, err)

			var parseErr *ConfigParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.input, parseErr.Input)

			// The event falls back to empty so defaults apply
			settings := event.Apply(DefaultCrawlSettings())
			assert.Equal(t, DefaultCrawlSettings(), settings)
		})
	}
}

func TestParseCrawlEvent_KnownAndUnknownKeys(t *testing.T) {
	input := `{
		"start_urls": ["https://en.wikipedia.org/wiki/Chile"],
		"trim_offset": 0,
		"store_page_title": true,
		"dry_run": true,
		"concurrency": 8,
		"callback": "parse"
	}`

	event, err := ParseCrawlEvent([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Chile"}, event.StartURLs)
	require.NotNil(t, event.TrimOffset)
	assert.Equal(t, 0, *event.TrimOffset)
	assert.Equal(t, []string{"callback", "concurrency"}, event.Unknown)
}

func TestCrawlEvent_Apply(t *testing.T) {
	offset := 12
	timeout := 5
	obey := false
	event := CrawlEvent{
		StartURLs:             []string{"https://example.com/a"},
		TrimOffset:            &offset,
		TableName:             "pages",
		ObeyRobots:            &obey,
		RequestTimeoutSeconds: &timeout,
		FeedBucket:            "feeds-bucket",
	}

	base := DefaultCrawlSettings()
	settings := event.Apply(base)

	assert.Equal(t, []string{"https://example.com/a"}, settings.StartURLs)
	assert.Equal(t, 12, settings.TrimOffset)
	assert.Equal(t, "pages", settings.TableName)
	assert.False(t, settings.ObeyRobots)
	assert.Equal(t, 5*time.Second, settings.RequestTimeout)
	assert.Equal(t, "feeds-bucket", settings.FeedBucket)
	assert.False(t, settings.StorePageTitle)

	// Base settings must not be mutated
	assert.Equal(t, DefaultStartURLs(), base.StartURLs)
	assert.Equal(t, DefaultTrimOffset, base.TrimOffset)
}

func TestCrawlEvent_ApplyIgnoresNegativeOffset(t *testing.T) {
	offset := -3
	settings := CrawlEvent{TrimOffset: &offset}.Apply(DefaultCrawlSettings())
	assert.Equal(t, DefaultTrimOffset, settings.TrimOffset)
}
