package services

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"spider-indexer-scraper/internal/models"
)

// RecordStore persists extracted page records. *PageStore satisfies it.
type RecordStore interface {
	SavePageRecord(ctx context.Context, rec models.PageRecord) error
}

// PageIngestor runs one parsed page through extract, persist and emit.
// A nil store skips persistence (dry run).
type PageIngestor struct {
	extractor *PageExtractor
	store     RecordStore
	emitters  []Emitter
	logger    *zap.Logger
}

// NewPageIngestor creates an ingestor. logger may be nil.
func NewPageIngestor(extractor *PageExtractor, store RecordStore, logger *zap.Logger, emitters ...Emitter) *PageIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PageIngestor{
		extractor: extractor,
		store:     store,
		emitters:  emitters,
		logger:    logger,
	}
}

// Ingest processes a single page. A page missing a required element yields
// no record and no store write. A failed store write is reported in the
// result but the record is still emitted.
func (p *PageIngestor) Ingest(ctx context.Context, pageURL string, doc *goquery.Selection) models.PageResult {
	result := models.PageResult{URL: pageURL}
	log := p.logger.With(zap.String("url", pageURL))

	rec, err := p.extractor.Extract(doc)
	if err != nil {
		log.Warn("Skipping page", zap.Error(err))
		result.Err = err
		return result
	}
	result.Record = &rec

	if p.store != nil {
		if err := p.store.SavePageRecord(ctx, rec); err != nil {
			log.Error("Failed to store page record", zap.Error(err))
			result.Err = err
		} else {
			log.Debug("Stored page record", zap.String("heading1", rec.Heading1))
		}
	}

	for _, e := range p.emitters {
		if err := e.Emit(ctx, rec); err != nil {
			log.Warn("Failed to emit page record", zap.Error(err))
		}
	}

	return result
}
