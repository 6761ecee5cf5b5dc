// Package extraction orchestrates text recovery, field extraction, caching
// and auditing for uploaded invoices.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"3tcapital/ms_extraccion_facturas/internal/core/audit"
	"3tcapital/ms_extraccion_facturas/internal/core/document"
	coreextraction "3tcapital/ms_extraccion_facturas/internal/core/extraction"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/cache"
	reqctx "3tcapital/ms_extraccion_facturas/internal/infrastructure/context"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/metrics"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/security"
)

const (
	messageConfidence    = "Datos extraídos con %d%% de confianza"
	messageLowConfidence = "Datos extraídos con baja confianza. Revisa los campos manualmente."

	defaultReviewThreshold = 0.5
	defaultMaxBatchSize    = 100
)

// Config tunes the service.
type Config struct {
	// ReviewThreshold is the confidence at or below which a result needs review.
	ReviewThreshold float64
	MaxBatchSize    int
	WorkerPoolSize  int
	// SourceTimeout bounds a single PDF or OCR pass. Zero means no bound.
	SourceTimeout   time.Duration
	StoreExcerpt    bool
	MaxExcerptRunes int
}

// Result is the outcome of one extraction.
type Result struct {
	Fields      coreextraction.Fields `json:"fields"`
	Modality    document.Modality     `json:"modality"`
	NeedsReview bool                  `json:"needsReview"`
	Message     string                `json:"message"`
	TextLength  int                   `json:"textLength"`
	DurationMs  int64                 `json:"durationMs"`
	Cached      bool                  `json:"cached"`
}

// Service runs extractions over raw text and uploaded documents.
type Service struct {
	cfg       Config
	log       *slog.Logger
	extractor *coreextraction.Extractor
	sources   map[document.Modality]document.TextSource
	cache     *cache.ResultCache[Result]
	audit     audit.Repository
	metrics   metrics.Recorder
	now       func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithTextSource registers the engine used for documents of modality m.
func WithTextSource(m document.Modality, src document.TextSource) Option {
	return func(s *Service) {
		if src != nil {
			s.sources[m] = src
		}
	}
}

// WithCache enables result caching keyed by content digest.
func WithCache(c *cache.ResultCache[Result]) Option {
	return func(s *Service) { s.cache = c }
}

// WithAuditRepository enables the audit trail.
func WithAuditRepository(r audit.Repository) Option {
	return func(s *Service) { s.audit = r }
}

// WithMetrics records extraction outcomes.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithExtractor replaces the default rule table.
func WithExtractor(e *coreextraction.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// NewService creates a new extraction service.
func NewService(cfg Config, log *slog.Logger, opts ...Option) *Service {
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = defaultReviewThreshold
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}

	s := &Service{
		cfg:       cfg,
		log:       log,
		extractor: coreextraction.Default(),
		sources:   make(map[document.Modality]document.TextSource),
		metrics:   metrics.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractText runs field extraction over text supplied directly by the caller.
func (s *Service) ExtractText(ctx context.Context, text string) (Result, error) {
	start := s.now()

	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		s.fail(ctx, auditEntry{modality: document.ModalityText, start: start}, ErrEmptyText)
		return Result{}, ErrEmptyText
	}

	result := s.evaluate(text, document.ModalityText, start)
	s.complete(ctx, auditEntry{
		modality: document.ModalityText,
		digest:   cache.Digest([]byte(text)),
		text:     text,
		start:    start,
	}, result)
	return result, nil
}

// ExtractDocument recovers text from doc and runs field extraction over it.
// Repeated uploads of identical content are served from the cache.
func (s *Service) ExtractDocument(ctx context.Context, doc document.Document) (Result, error) {
	start := s.now()
	entry := auditEntry{name: doc.Name, start: start}

	modality, err := doc.Modality()
	if err != nil {
		s.fail(ctx, entry, err)
		return Result{}, err
	}
	entry.modality = modality

	if len(doc.Content) == 0 {
		s.fail(ctx, entry, ErrEmptyDocument)
		return Result{}, ErrEmptyDocument
	}
	entry.digest = cache.Digest(doc.Content)

	if s.cache != nil {
		if cached, ok := s.cache.Get(entry.digest); ok {
			cached.Cached = true
			cached.DurationMs = s.since(start)
			s.complete(ctx, entry, cached)
			return cached, nil
		}
	}

	text, err := s.readText(ctx, modality, doc.Content)
	if err != nil {
		s.fail(ctx, entry, err)
		return Result{}, err
	}
	entry.text = text

	result := s.evaluate(text, modality, start)
	if s.cache != nil {
		s.cache.Set(entry.digest, result)
	}
	s.complete(ctx, entry, result)
	return result, nil
}

// AuditTrail returns the audit logs recorded under correlationID.
func (s *Service) AuditTrail(ctx context.Context, correlationID string) ([]audit.ExtractionAuditLog, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	logs, err := s.audit.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("find audit logs: %w", err)
	}
	return logs, nil
}

func (s *Service) readText(ctx context.Context, modality document.Modality, content []byte) (string, error) {
	if modality == document.ModalityText {
		text := normalizeText(strings.ToValidUTF8(string(content), "\uFFFD"))
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyText
		}
		return text, nil
	}

	src, ok := s.sources[modality]
	if !ok {
		return "", ErrSourceUnavailable
	}

	if s.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SourceTimeout)
		defer cancel()
	}

	raw, err := src.ExtractText(ctx, content)
	if err != nil {
		return "", &SourceError{Modality: modality, Err: err}
	}

	text := normalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return "", &SourceError{Modality: modality, Err: ErrNoTextExtracted}
	}
	return text, nil
}

func (s *Service) evaluate(text string, modality document.Modality, start time.Time) Result {
	fields := s.extractor.Extract(text)

	result := Result{
		Fields:     fields,
		Modality:   modality,
		TextLength: utf8.RuneCountInString(text),
	}
	if fields.Confidence > s.cfg.ReviewThreshold {
		result.Message = fmt.Sprintf(messageConfidence, int(math.Round(fields.Confidence*100)))
	} else {
		result.NeedsReview = true
		result.Message = messageLowConfidence
	}
	result.DurationMs = s.since(start)
	return result
}

func (s *Service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}

// textReplacer folds PDF and OCR whitespace quirks into plain spaces and
// newlines so the line oriented patterns behave.
var textReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u202f", " ",
	"\f", "\n",
)

func normalizeText(text string) string {
	return textReplacer.Replace(text)
}

type auditEntry struct {
	name     string
	modality document.Modality
	digest   string
	text     string
	start    time.Time
}

func (s *Service) complete(ctx context.Context, e auditEntry, result Result) {
	outcome := metrics.OutcomeSuccess
	switch {
	case result.Cached:
		outcome = metrics.OutcomeCached
	case result.NeedsReview:
		outcome = metrics.OutcomeNeedsReview
	}
	s.metrics.ObserveExtraction(string(e.modality), outcome, result.Fields.Confidence,
		result.Fields.Populated(), time.Duration(result.DurationMs)*time.Millisecond)

	s.log.Info("extraction completed",
		"correlation_id", reqctx.GetCorrelationID(ctx),
		"modality", e.modality,
		"confidence", result.Fields.Confidence,
		"needs_review", result.NeedsReview,
		"cached", result.Cached,
		"duration_ms", result.DurationMs,
	)

	log := s.newAuditLog(ctx, e)
	log.TextLength = result.TextLength
	log.Confidence = result.Fields.Confidence
	log.NeedsReview = result.NeedsReview
	log.DurationMs = result.DurationMs
	if raw, err := json.Marshal(result.Fields); err == nil {
		log.Fields = raw
	}
	s.save(ctx, log)
}

func (s *Service) fail(ctx context.Context, e auditEntry, err error) {
	modality := string(e.modality)
	if modality == "" {
		modality = "unknown"
	}
	s.metrics.ObserveExtraction(modality, metrics.OutcomeError, 0, nil, s.now().Sub(e.start))

	s.log.Warn("extraction failed",
		"correlation_id", reqctx.GetCorrelationID(ctx),
		"document", e.name,
		"modality", modality,
		"error", err,
	)

	log := s.newAuditLog(ctx, e)
	log.ErrorMessage = err.Error()
	log.DurationMs = s.since(e.start)
	s.save(ctx, log)
}

func (s *Service) newAuditLog(ctx context.Context, e auditEntry) audit.ExtractionAuditLog {
	log := audit.ExtractionAuditLog{
		ID:             uuid.New(),
		CorrelationID:  reqctx.GetCorrelationID(ctx),
		Subject:        reqctx.GetSubject(ctx),
		DocumentName:   e.name,
		Modality:       string(e.modality),
		ContentDigest:  e.digest,
		RequestHeaders: reqctx.GetRequestHeaders(ctx),
		CreatedAt:      s.now().UTC(),
	}
	if s.cfg.StoreExcerpt && e.text != "" {
		log.TextExcerpt = security.Excerpt(e.text, s.cfg.MaxExcerptRunes)
	}
	return log
}

// save persists the audit log. A failure is logged and never surfaces to the
// caller, and the write outlives a cancelled request.
func (s *Service) save(ctx context.Context, log audit.ExtractionAuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Save(context.WithoutCancel(ctx), log); err != nil {
		s.log.Error("failed to save extraction audit log",
			"correlation_id", log.CorrelationID,
			"error", err,
		)
	}
}
