package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"spider-indexer-scraper/internal/models"
)

func parseDoc(t *testing.T, src string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc.Selection
}

const polandPage = `<html><head><title>Poland - Wikipedia</title></head><body>
<h1>Poland</h1><h2>Contents</h2><p>` + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA" + `</p>
</body></html>`

func TestPageIngestor_StoresAndEmits(t *testing.T) {
	db := newFakeDynamoDB()
	emitter := &recordingEmitter{}
	ingestor := NewPageIngestor(NewPageExtractor(models.DefaultTrimOffset), NewPageStore(db, "spider", false), zaptest.NewLogger(t), emitter)

	result := ingestor.Ingest(context.Background(), "https://en.wikipedia.org/wiki/Poland", parseDoc(t, polandPage))

	require.NoError(t, result.Err)
	require.NotNil(t, result.Record)
	assert.True(t, result.Stored())
	assert.Equal(t, "Poland - Wikipedia", result.Record.Title)
	assert.Equal(t, strings.Repeat("A", 11), result.Record.URLText)

	assert.Equal(t, 1, db.putCount())
	assert.Contains(t, db.snapshot(), "Poland")
	require.Len(t, emitter.records, 1)
	assert.Equal(t, *result.Record, emitter.records[0])
}

func TestPageIngestor_MissingHeadingWritesNothing(t *testing.T) {
	db := newFakeDynamoDB()
	emitter := &recordingEmitter{}
	ingestor := NewPageIngestor(NewPageExtractor(models.DefaultTrimOffset), NewPageStore(db, "spider", false), zaptest.NewLogger(t), emitter)

	page := `<html><head><title>T</title></head><body><h2>Only h2</h2><p>text</p></body></html>`
	result := ingestor.Ingest(context.Background(), "https://example.com/", parseDoc(t, page))

	var missing *models.MissingElementError
	require.ErrorAs(t, result.Err, &missing)
	assert.Equal(t, "h1", missing.Element)
	assert.Nil(t, result.Record)
	assert.Equal(t, 0, db.putCount())
	assert.Empty(t, emitter.records)
}

func TestPageIngestor_StoreFailureStillEmits(t *testing.T) {
	db := newFakeDynamoDB()
	db.putErr = errors.New("throttled")
	emitter := &recordingEmitter{}
	ingestor := NewPageIngestor(NewPageExtractor(models.DefaultTrimOffset), NewPageStore(db, "spider", false), zaptest.NewLogger(t), emitter)

	result := ingestor.Ingest(context.Background(), "https://en.wikipedia.org/wiki/Poland", parseDoc(t, polandPage))

	var storeErr *models.StoreWriteError
	require.ErrorAs(t, result.Err, &storeErr)
	assert.Equal(t, "spider", storeErr.Table)
	require.NotNil(t, result.Record)
	assert.False(t, result.Stored())
	require.Len(t, emitter.records, 1)
	assert.Equal(t, "Poland", emitter.records[0].Heading1)
}

func TestPageIngestor_DryRunAndEmitterErrors(t *testing.T) {
	emitter := &recordingEmitter{err: errors.New("closed pipe")}
	ingestor := NewPageIngestor(NewPageExtractor(0), nil, nil, emitter)

	result := ingestor.Ingest(context.Background(), "https://example.com/", parseDoc(t, polandPage))

	require.NoError(t, result.Err)
	require.NotNil(t, result.Record)
	assert.Len(t, result.Record.URLText, 70)
	assert.Len(t, emitter.records, 1)
}
