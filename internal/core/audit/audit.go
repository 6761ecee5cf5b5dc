package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionAuditLog records one field extraction: what came in, what was
// inferred and how long it took. Text is stored as a masked excerpt only.
type ExtractionAuditLog struct {
	ID             uuid.UUID
	CorrelationID  string
	Subject        string
	DocumentName   string
	Modality       string
	ContentDigest  string
	TextLength     int
	TextExcerpt    string
	Fields         json.RawMessage
	Confidence     float64
	NeedsReview    bool
	DurationMs     int64
	ErrorMessage   string
	RequestHeaders map[string]string
	CreatedAt      time.Time
}

// Repository defines the contract for persisting and retrieving audit logs.
type Repository interface {
	// Save persists an audit log entry to storage.
	Save(ctx context.Context, log ExtractionAuditLog) error

	// FindByCorrelationID retrieves all audit logs associated with a correlation ID,
	// oldest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]ExtractionAuditLog, error)
}
