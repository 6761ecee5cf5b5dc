// Package extraction exposes the invoice field extraction endpoints.
package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appextraction "3tcapital/ms_extraccion_facturas/internal/application/extraction"
	"3tcapital/ms_extraccion_facturas/internal/core/audit"
	"3tcapital/ms_extraccion_facturas/internal/core/document"
	ctxutil "3tcapital/ms_extraccion_facturas/internal/infrastructure/context"
	httperrors "3tcapital/ms_extraccion_facturas/internal/infrastructure/http"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/security"
)

// DocumentNameHeader optionally names an uploaded document.
const DocumentNameHeader = "X-Document-Name"

const defaultMaxBodyBytes = 10 << 20

// Service is the application behaviour the handler needs.
type Service interface {
	ExtractText(ctx context.Context, text string) (appextraction.Result, error)
	ExtractDocument(ctx context.Context, doc document.Document) (appextraction.Result, error)
	ExtractBatch(ctx context.Context, items []appextraction.BatchItem) (appextraction.BatchResult, error)
	AuditTrail(ctx context.Context, correlationID string) ([]audit.ExtractionAuditLog, error)
}

// Handler bridges HTTP traffic with the extraction application service.
type Handler struct {
	service      Service
	maxBodyBytes int64
	log          *slog.Logger
}

// NewHandler creates a new extraction HTTP handler. A non-positive
// maxBodyBytes falls back to 10 MiB.
func NewHandler(service Service, maxBodyBytes int64, log *slog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// Routes returns the router mounted at /api/v1/facturas/extraccion.
// documentMiddleware wraps the upload endpoints only.
func (h *Handler) Routes(documentMiddleware ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.ExtractText)
	r.Group(func(r chi.Router) {
		r.Use(documentMiddleware...)
		r.Post("/documento", h.ExtractDocument)
		r.Post("/lote", h.ExtractBatch)
	})
	r.Get("/auditoria/{correlationId}", h.GetAuditTrail)
	return r
}

// ExtractText handles POST /api/v1/facturas/extraccion requests.
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req ExtractTextRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, []string{"text es requerido"}, h.log)
		return
	}

	result, err := h.service.ExtractText(h.requestContext(r), req.Text)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, result, h.log)
}

// ExtractDocument handles POST /api/v1/facturas/extraccion/documento
// requests. The body is the raw document and Content-Type its media type.
func (h *Handler) ExtractDocument(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if _, err := document.DetectModality(contentType); err != nil {
		h.handleError(w, r, err)
		return
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.writeBodyError(w, err)
		return
	}
	if len(content) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, []string{"El cuerpo de la petición está vacío"}, h.log)
		return
	}

	result, err := h.service.ExtractDocument(h.requestContext(r), document.Document{
		Name:        r.Header.Get(DocumentNameHeader),
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, result, h.log)
}

// ExtractBatch handles POST /api/v1/facturas/extraccion/lote requests.
func (h *Handler) ExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	items := make([]appextraction.BatchItem, 0, len(req.Items))
	var problems []string
	for i, it := range req.Items {
		item := appextraction.BatchItem{
			ID:          it.ID,
			Name:        it.Name,
			Text:        it.Text,
			ContentType: it.ContentType,
		}
		if it.Content != "" {
			content, err := base64.StdEncoding.DecodeString(it.Content)
			if err != nil {
				problems = append(problems, fmt.Sprintf("items[%d].content no es base64 válido", i))
				continue
			}
			item.Content = content
		}
		items = append(items, item)
	}
	if len(problems) > 0 {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, problems, h.log)
		return
	}

	result, err := h.service.ExtractBatch(h.requestContext(r), items)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, result, h.log)
}

// GetAuditTrail handles GET /api/v1/facturas/extraccion/auditoria/{correlationId}.
func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	correlationID := strings.TrimSpace(chi.URLParam(r, "correlationId"))
	if correlationID == "" {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, []string{"correlationId es requerido"}, h.log)
		return
	}

	logs, err := h.service.AuditTrail(r.Context(), correlationID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	data := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		data = append(data, toAuditLogResponse(l))
	}

	httperrors.WriteJSON(w, http.StatusOK, AuditTrailResponse{
		CorrelationID: correlationID,
		Total:         len(data),
		Data:          data,
	}, h.log)
}

// requestContext attaches the redacted request headers for the audit trail.
func (h *Handler) requestContext(r *http.Request) context.Context {
	return ctxutil.WithRequestHeaders(r.Context(), security.SanitizeHeaders(r.Header))
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(v); err != nil {
		h.writeBodyError(w, err)
		return false
	}
	return true
}

func (h *Handler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httperrors.WriteError(w, http.StatusRequestEntityTooLarge, httperrors.MessageValidation,
			[]string{fmt.Sprintf("El cuerpo de la petición excede %d bytes", tooLarge.Limit)}, h.log)
		return
	}
	httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, []string{"El cuerpo de la petición no es válido"}, h.log)
}

// handleError maps application errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var sourceErr *appextraction.SourceError

	switch {
	case errors.Is(err, appextraction.ErrEmptyText),
		errors.Is(err, appextraction.ErrEmptyDocument),
		errors.Is(err, appextraction.ErrEmptyBatch),
		errors.Is(err, appextraction.ErrBatchTooLarge):
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MessageValidation, []string{err.Error()}, h.log)
	case errors.Is(err, document.ErrUnsupportedModality):
		httperrors.WriteError(w, http.StatusUnsupportedMediaType, httperrors.MessageUnsupportedType, []string{err.Error()}, h.log)
	case errors.Is(err, appextraction.ErrSourceUnavailable),
		errors.Is(err, appextraction.ErrAuditDisabled):
		httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.MessageServiceUnavailable, []string{err.Error()}, h.log)
	case errors.As(err, &sourceErr):
		httperrors.WriteError(w, http.StatusUnprocessableEntity, httperrors.MessageExtraction, []string{err.Error()}, h.log)
	default:
		h.log.Error("extraction request failed",
			"correlation_id", ctxutil.GetCorrelationID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.MessageInternal, []string{"Ha ocurrido un error interno"}, h.log)
	}
}
