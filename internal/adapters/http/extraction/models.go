package extraction

import (
	"encoding/json"
	"time"

	"3tcapital/ms_extraccion_facturas/internal/core/audit"
)

// ExtractTextRequest is the body of POST /api/v1/facturas/extraccion.
type ExtractTextRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the body of POST /api/v1/facturas/extraccion/lote.
type BatchRequest struct {
	Items []BatchItemRequest `json:"items"`
}

// BatchItemRequest carries either Text or a base64 encoded Content.
type BatchItemRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Text        string `json:"text"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// AuditLogResponse is the wire form of an audit record.
type AuditLogResponse struct {
	ID            string            `json:"id"`
	CorrelationID string            `json:"correlationId"`
	Subject       string            `json:"subject,omitempty"`
	DocumentName  string            `json:"documentName,omitempty"`
	Modality      string            `json:"modality,omitempty"`
	ContentDigest string            `json:"contentDigest,omitempty"`
	TextLength    int               `json:"textLength"`
	TextExcerpt   string            `json:"textExcerpt,omitempty"`
	Fields        json.RawMessage   `json:"fields,omitempty"`
	Confidence    float64           `json:"confidence"`
	NeedsReview   bool              `json:"needsReview"`
	DurationMs    int64             `json:"durationMs"`
	Error         string            `json:"error,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// AuditTrailResponse lists the audit records of one correlation id.
type AuditTrailResponse struct {
	CorrelationID string             `json:"correlationId"`
	Total         int                `json:"total"`
	Data          []AuditLogResponse `json:"data"`
}

func toAuditLogResponse(l audit.ExtractionAuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:            l.ID.String(),
		CorrelationID: l.CorrelationID,
		Subject:       l.Subject,
		DocumentName:  l.DocumentName,
		Modality:      l.Modality,
		ContentDigest: l.ContentDigest,
		TextLength:    l.TextLength,
		TextExcerpt:   l.TextExcerpt,
		Fields:        l.Fields,
		Confidence:    l.Confidence,
		NeedsReview:   l.NeedsReview,
		DurationMs:    l.DurationMs,
		Error:         l.ErrorMessage,
		Headers:       l.RequestHeaders,
		CreatedAt:     l.CreatedAt,
	}
}
