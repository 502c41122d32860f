package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"spider-indexer-scraper/internal/models"
)

// Emitter receives every extracted record, independent of persistence
type Emitter interface {
	Emit(ctx context.Context, rec models.PageRecord) error
}

// JSONLinesEmitter writes each record as one JSON object per line
type JSONLinesEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesEmitter creates an emitter writing to w
func NewJSONLinesEmitter(w io.Writer) *JSONLinesEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesEmitter{enc: enc}
}

// Emit writes rec as a single JSON line
func (e *JSONLinesEmitter) Emit(ctx context.Context, rec models.PageRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
