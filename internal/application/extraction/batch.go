package extraction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"3tcapital/ms_extraccion_facturas/internal/core/document"
	reqctx "3tcapital/ms_extraccion_facturas/internal/infrastructure/context"
)

// BatchItem is one entry of a batch. Items with Content are treated as
// documents, otherwise Text is extracted directly.
type BatchItem struct {
	ID          string
	Name        string
	Text        string
	ContentType string
	Content     []byte
}

// BatchItemResult is the outcome of one BatchItem. Exactly one of Result and
// Error is set.
type BatchItemResult struct {
	Index  int     `json:"index"`
	ID     string  `json:"id,omitempty"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult holds every item result in input order plus run statistics.
type BatchResult struct {
	BatchID string            `json:"batchId"`
	Items   []BatchItemResult `json:"items"`
	Stats   ProcessingStats   `json:"stats"`
}

// ExtractBatch extracts every item concurrently on a bounded worker pool.
// A failing item never aborts the batch. Items still queued when ctx is done
// are reported as not processed.
func (s *Service) ExtractBatch(ctx context.Context, items []BatchItem) (BatchResult, error) {
	if len(items) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}
	if len(items) > s.cfg.MaxBatchSize {
		return BatchResult{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(items), s.cfg.MaxBatchSize)
	}

	batchID := uuid.NewString()
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	workers := min(s.cfg.WorkerPoolSize, len(items))
	pool := NewDocumentWorkerPool(ctx, workers, s.processItem)
	aggregator := NewResultAggregator(ids)

	s.log.Info("batch extraction started",
		"correlation_id", reqctx.GetCorrelationID(ctx),
		"batch_id", batchID,
		"items", len(items),
		"workers", workers,
	)

	pool.Start()
	go func() {
		defer pool.Stop()
		for i, item := range items {
			if err := pool.Submit(ItemJob{Index: i, Item: item}); err != nil {
				return
			}
		}
	}()

	AggregateFromChannel(ctx, pool.Results(), aggregator)

	stats := aggregator.GetStats()
	s.log.Info("batch extraction completed",
		"correlation_id", reqctx.GetCorrelationID(ctx),
		"batch_id", batchID,
		"processed", stats.ProcessedCount,
		"failed", stats.FailedCount,
		"pending", stats.PendingCount,
		"duration_ms", stats.DurationMs,
	)

	return BatchResult{
		BatchID: batchID,
		Items:   aggregator.GetResults(),
		Stats:   stats,
	}, nil
}

func (s *Service) processItem(ctx context.Context, job ItemJob) ItemResult {
	item := job.Item
	out := ItemResult{Index: job.Index, ID: item.ID}

	if len(item.Content) > 0 {
		out.Result, out.Err = s.ExtractDocument(ctx, document.Document{
			Name:        item.Name,
			ContentType: item.ContentType,
			Content:     item.Content,
		})
		return out
	}

	out.Result, out.Err = s.ExtractText(ctx, item.Text)
	return out
}
