package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"3tcapital/ms_extraccion_facturas/internal/core/audit"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	db  DBTX
	log *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewRepositoryWithLogger creates a new PostgreSQL audit repository with logging.
func NewRepositoryWithLogger(db DBTX, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

const insertAuditLog = `
	INSERT INTO extraction_audit_log (
		id, correlation_id, subject, document_name, modality, content_digest,
		text_length, text_excerpt, fields, confidence, needs_review,
		duration_ms, error_message, request_headers, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

const selectByCorrelationID = `
	SELECT id, correlation_id, subject, document_name, modality, content_digest,
	       text_length, text_excerpt, fields, confidence, needs_review,
	       duration_ms, error_message, request_headers, created_at
	FROM extraction_audit_log
	WHERE correlation_id = $1
	ORDER BY created_at ASC
`

// Save persists an audit log entry to the database.
func (r *Repository) Save(ctx context.Context, log audit.ExtractionAuditLog) error {
	headers := log.RequestHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}

	// NULL rather than an empty jsonb for failed extractions
	var fields any
	if len(log.Fields) > 0 {
		fields = []byte(log.Fields)
	}
	var digest any
	if log.ContentDigest != "" {
		digest = log.ContentDigest
	}

	_, err = r.db.Exec(ctx, insertAuditLog,
		log.ID,
		log.CorrelationID,
		log.Subject,
		log.DocumentName,
		log.Modality,
		digest,
		log.TextLength,
		log.TextExcerpt,
		fields,
		log.Confidence,
		log.NeedsReview,
		log.DurationMs,
		log.ErrorMessage,
		headersJSON,
		log.CreatedAt,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert audit log into database",
				"correlation_id", log.CorrelationID,
				"modality", log.Modality,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Audit log saved",
			"correlation_id", log.CorrelationID,
			"id", log.ID,
			"duration_ms", log.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all audit logs with the given correlation ID,
// oldest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ExtractionAuditLog, error) {
	rows, err := r.db.Query(ctx, selectByCorrelationID, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]audit.ExtractionAuditLog, 0)
	for rows.Next() {
		var log audit.ExtractionAuditLog
		var id string
		var digest *string
		var fieldsJSON, headersJSON []byte

		err := rows.Scan(
			&id,
			&log.CorrelationID,
			&log.Subject,
			&log.DocumentName,
			&log.Modality,
			&digest,
			&log.TextLength,
			&log.TextExcerpt,
			&fieldsJSON,
			&log.Confidence,
			&log.NeedsReview,
			&log.DurationMs,
			&log.ErrorMessage,
			&headersJSON,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if log.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse audit log id %q: %w", id, err)
		}
		if digest != nil {
			log.ContentDigest = *digest
		}
		if len(fieldsJSON) > 0 {
			log.Fields = json.RawMessage(fieldsJSON)
		}
		if len(headersJSON) > 0 {
			if err := json.Unmarshal(headersJSON, &log.RequestHeaders); err != nil {
				return nil, fmt.Errorf("unmarshal request headers: %w", err)
			}
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return logs, nil
}

var _ audit.Repository = (*Repository)(nil)
