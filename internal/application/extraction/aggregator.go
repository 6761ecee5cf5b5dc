package extraction

import (
	"context"
	"sync"
	"time"
)

const messageNotProcessed = "documento no procesado"

// ResultAggregator collects batch results in input order.
type ResultAggregator struct {
	mu             sync.Mutex
	items          []BatchItemResult
	done           []bool
	startTime      time.Time
	processedCount int
	failedCount    int
}

// NewResultAggregator creates an aggregator for ids, one per batch item.
// Items never reported are returned as not processed.
func NewResultAggregator(ids []string) *ResultAggregator {
	items := make([]BatchItemResult, len(ids))
	for i, id := range ids {
		items[i] = BatchItemResult{Index: i, ID: id, Error: messageNotProcessed}
	}
	return &ResultAggregator{
		items:     items,
		done:      make([]bool, len(ids)),
		startTime: time.Now(),
	}
}

// AddProcessed records a successful extraction.
func (a *ResultAggregator) AddProcessed(index int, result Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.claim(index) {
		return
	}
	r := result
	a.items[index].Result = &r
	a.items[index].Error = ""
	a.processedCount++
}

// AddFailed records a failed extraction.
func (a *ResultAggregator) AddFailed(index int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.claim(index) {
		return
	}
	a.items[index].Error = err.Error()
	a.failedCount++
}

func (a *ResultAggregator) claim(index int) bool {
	if index < 0 || index >= len(a.items) || a.done[index] {
		return false
	}
	a.done[index] = true
	return true
}

// GetResults returns a copy of the item results ordered by index.
func (a *ResultAggregator) GetResults() []BatchItemResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]BatchItemResult(nil), a.items...)
}

// GetStats returns processing statistics
func (a *ResultAggregator) GetStats() ProcessingStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := len(a.items)
	duration := time.Since(a.startTime)

	stats := ProcessingStats{
		TotalDocuments: total,
		ProcessedCount: a.processedCount,
		FailedCount:    a.failedCount,
		PendingCount:   total - a.processedCount - a.failedCount,
		DurationMs:     duration.Milliseconds(),
	}
	if duration.Seconds() > 0 {
		stats.Throughput = float64(a.processedCount) / duration.Seconds()
	}
	if total > 0 {
		stats.SuccessRate = float64(a.processedCount) / float64(total) * 100
	}
	return stats
}

// ProcessingStats contains processing statistics
type ProcessingStats struct {
	TotalDocuments int     `json:"totalDocuments"`
	ProcessedCount int     `json:"processedCount"`
	FailedCount    int     `json:"failedCount"`
	PendingCount   int     `json:"pendingCount"`
	DurationMs     int64   `json:"durationMs"`
	Throughput     float64 `json:"throughput"`
	SuccessRate    float64 `json:"successRate"`
}

// AggregateFromChannel drains results into aggregator until the channel is
// closed or ctx is done.
func AggregateFromChannel(ctx context.Context, results <-chan ItemResult, aggregator *ResultAggregator) {
	for {
		select {
		case result, ok := <-results:
			if !ok {
				return
			}
			if result.Err != nil {
				aggregator.AddFailed(result.Index, result.Err)
			} else {
				aggregator.AddProcessed(result.Index, result.Result)
			}
		case <-ctx.Done():
			return
		}
	}
}
