package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"3tcapital/ms_extraccion_facturas/internal/core/audit"
	"3tcapital/ms_extraccion_facturas/internal/core/document"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/cache"
	reqctx "3tcapital/ms_extraccion_facturas/internal/infrastructure/context"
	"3tcapital/ms_extraccion_facturas/internal/testutil"
)

const sampleInvoice = `Instalaciones Climatización del Sur S.L.
CIF: B12345678
FACTURA Nº FAC-2024-0123
Fecha: 01/03/2024
Concepto: Reparación de equipo de aire acondicionado
Base 100,00 €
IVA 21% 21,00 €
Total 121,00 €`

type recordedObservation struct {
	modality string
	outcome  string
	fields   []string
}

type fakeRecorder struct {
	observations []recordedObservation
}

func (f *fakeRecorder) ObserveExtraction(modality, outcome string, _ float64, fields []string, _ time.Duration) {
	f.observations = append(f.observations, recordedObservation{modality: modality, outcome: outcome, fields: fields})
}

func newTestService(opts ...Option) *Service {
	return NewService(Config{ReviewThreshold: 0.5, MaxBatchSize: 10, WorkerPoolSize: 3}, testutil.NewNullLogger(), opts...)
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(Config{}, testutil.NewNullLogger())

	if s.cfg.ReviewThreshold != defaultReviewThreshold {
		t.Errorf("expected threshold %v, got %v", defaultReviewThreshold, s.cfg.ReviewThreshold)
	}
	if s.cfg.MaxBatchSize != defaultMaxBatchSize {
		t.Errorf("expected max batch %d, got %d", defaultMaxBatchSize, s.cfg.MaxBatchSize)
	}
	if s.cfg.WorkerPoolSize != 1 {
		t.Errorf("expected 1 worker, got %d", s.cfg.WorkerPoolSize)
	}
	if s.extractor == nil {
		t.Error("expected default extractor")
	}
}

func TestService_ExtractText(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantErr         error
		wantNeedsReview bool
		wantMessage     string
	}{
		{
			name:        "complete invoice",
			text:        sampleInvoice,
			wantMessage: "Datos extraídos con 100% de confianza",
		},
		{
			name:            "total only needs review",
			text:            "Total 200,00 €\nBase 50,00 €",
			wantNeedsReview: true,
			wantMessage:     messageLowConfidence,
		},
		{
			name:    "blank text",
			text:    " \n\t ",
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService()
			result, err := s.ExtractText(context.Background(), tt.text)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.NeedsReview != tt.wantNeedsReview {
				t.Errorf("expected needsReview %v, got %v", tt.wantNeedsReview, result.NeedsReview)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, result.Message)
			}
			if result.Modality != document.ModalityText {
				t.Errorf("expected modality text, got %s", result.Modality)
			}
		})
	}
}

func TestService_ExtractText_ThresholdIsExclusive(t *testing.T) {
	// 0.3 base + 0.15 total + 0.10 description = 0.55
	text := "Concepto: revisión anual\nTotal 80,00 €"

	s := NewService(Config{ReviewThreshold: 0.55}, testutil.NewNullLogger())
	result, err := s.ExtractText(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.NeedsReview {
		t.Errorf("expected confidence %v at the threshold to need review", result.Fields.Confidence)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf", in: "a\r\nb", want: "a\nb"},
		{name: "bare cr", in: "a\rb", want: "a\nb"},
		{name: "non-breaking space", in: "121,00\u00a0€", want: "121,00 €"},
		{name: "narrow non-breaking space", in: "1\u202f234", want: "1 234"},
		{name: "form feed", in: "page1\fpage2", want: "page1\npage2"},
		{name: "untouched", in: "Total 10,00 €", want: "Total 10,00 €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestService_ExtractText_CRLF(t *testing.T) {
	s := newTestService()

	result, err := s.ExtractText(context.Background(), strings.ReplaceAll(sampleInvoice, "\n", "\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fields.Confidence != 1 {
		t.Errorf("expected confidence 1, got %v", result.Fields.Confidence)
	}
	if result.Fields.Description == nil || *result.Fields.Description != "Reparación de equipo de aire acondicionado" {
		t.Errorf("expected description without carriage return, got %v", result.Fields.Description)
	}
}

func TestService_ExtractDocument(t *testing.T) {
	sourceErr := errors.New("engine crashed")

	tests := []struct {
		name         string
		doc          document.Document
		source       *testutil.MockTextSource
		wantErr      error
		wantSource   bool
		wantModality document.Modality
	}{
		{
			name:         "pdf through registered source",
			doc:          document.Document{Name: "f.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
			source:       &testutil.MockTextSource{ExtractTextFunc: func(context.Context, []byte) (string, error) { return sampleInvoice, nil }},
			wantModality: document.ModalityPDF,
		},
		{
			name:         "plain text read directly",
			doc:          document.Document{Name: "f.txt", ContentType: "text/plain; charset=utf-8", Content: []byte(sampleInvoice)},
			wantModality: document.ModalityText,
		},
		{
			name:    "unsupported content type",
			doc:     document.Document{ContentType: "application/zip", Content: []byte("PK")},
			wantErr: document.ErrUnsupportedModality,
		},
		{
			name:    "empty content",
			doc:     document.Document{ContentType: "application/pdf"},
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "no source for images",
			doc:     document.Document{ContentType: "image/png", Content: []byte{0x89}},
			wantErr: ErrSourceUnavailable,
		},
		{
			name:       "source failure",
			doc:        document.Document{ContentType: "application/pdf", Content: []byte("%PDF")},
			source:     &testutil.MockTextSource{ExtractTextFunc: func(context.Context, []byte) (string, error) { return "", sourceErr }},
			wantErr:    sourceErr,
			wantSource: true,
		},
		{
			name:       "source returns blank text",
			doc:        document.Document{ContentType: "application/pdf", Content: []byte("%PDF")},
			source:     &testutil.MockTextSource{ExtractTextFunc: func(context.Context, []byte) (string, error) { return "\f \n", nil }},
			wantErr:    ErrNoTextExtracted,
			wantSource: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.source != nil {
				opts = append(opts, WithTextSource(document.ModalityPDF, tt.source))
			}
			s := newTestService(opts...)

			result, err := s.ExtractDocument(context.Background(), tt.doc)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				var se *SourceError
				if errors.As(err, &se) != tt.wantSource {
					t.Errorf("expected SourceError %v, got %T", tt.wantSource, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Modality != tt.wantModality {
				t.Errorf("expected modality %s, got %s", tt.wantModality, result.Modality)
			}
			if result.Fields.Confidence != 1 {
				t.Errorf("expected confidence 1, got %v", result.Fields.Confidence)
			}
		})
	}
}

func TestService_ExtractDocument_SourceTimeout(t *testing.T) {
	source := &testutil.MockTextSource{ExtractTextFunc: func(ctx context.Context, _ []byte) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := NewService(Config{SourceTimeout: 20 * time.Millisecond}, testutil.NewNullLogger(),
		WithTextSource(document.ModalityImage, source))

	_, err := s.ExtractDocument(context.Background(), document.Document{ContentType: "image/jpeg", Content: []byte{1}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestService_ExtractDocument_Cache(t *testing.T) {
	source := &testutil.MockTextSource{ExtractTextFunc: func(context.Context, []byte) (string, error) { return sampleInvoice, nil }}
	recorder := &fakeRecorder{}
	s := newTestService(
		WithTextSource(document.ModalityPDF, source),
		WithCache(cache.NewResultCache[Result](time.Minute, 10)),
		WithMetrics(recorder),
	)
	doc := document.Document{ContentType: "application/pdf", Content: []byte("%PDF-1.4 same")}

	first, err := s.ExtractDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.ExtractDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.CallCount() != 1 {
		t.Errorf("expected source called once, got %d", source.CallCount())
	}
	if first.Cached {
		t.Error("expected first result not cached")
	}
	if !second.Cached {
		t.Error("expected second result cached")
	}
	if *second.Fields.InvoiceNumber != *first.Fields.InvoiceNumber {
		t.Errorf("expected cached invoice number %s, got %s", *first.Fields.InvoiceNumber, *second.Fields.InvoiceNumber)
	}
	if len(recorder.observations) != 2 || recorder.observations[1].outcome != "cached" {
		t.Errorf("expected second observation cached, got %+v", recorder.observations)
	}
}

func TestService_Audit(t *testing.T) {
	repo := &testutil.MockAuditRepository{}
	s := NewService(Config{StoreExcerpt: true, MaxExcerptRunes: 60}, testutil.NewNullLogger(),
		WithAuditRepository(repo))

	ctx := reqctx.WithCorrelationID(context.Background(), "corr-1")
	ctx = reqctx.WithSubject(ctx, "user-7")
	ctx = reqctx.WithRequestHeaders(ctx, map[string]string{"Authorization": "[REDACTED]"})

	if _, err := s.ExtractText(ctx, sampleInvoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.ExtractText(ctx, ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}

	logs, err := s.AuditTrail(context.Background(), "corr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit logs, got %d", len(logs))
	}

	ok := logs[0]
	if ok.Subject != "user-7" {
		t.Errorf("expected subject user-7, got %s", ok.Subject)
	}
	if ok.Confidence != 1 {
		t.Errorf("expected confidence 1, got %v", ok.Confidence)
	}
	if strings.Contains(ok.TextExcerpt, "B12345678") {
		t.Errorf("expected tax id masked in excerpt, got %q", ok.TextExcerpt)
	}
	if !strings.HasSuffix(ok.TextExcerpt, "…") {
		t.Errorf("expected truncated excerpt, got %q", ok.TextExcerpt)
	}
	if len(ok.Fields) == 0 || !strings.Contains(string(ok.Fields), `"invoiceNumber":"FAC-2024-0123"`) {
		t.Errorf("expected fields JSON with invoice number, got %s", ok.Fields)
	}
	if ok.RequestHeaders["Authorization"] != "[REDACTED]" {
		t.Errorf("expected redacted header, got %v", ok.RequestHeaders)
	}

	failed := logs[1]
	if failed.ErrorMessage != ErrEmptyText.Error() {
		t.Errorf("expected error message %q, got %q", ErrEmptyText.Error(), failed.ErrorMessage)
	}
}

func TestService_AuditFailureDoesNotFailExtraction(t *testing.T) {
	repo := &testutil.MockAuditRepository{SaveFunc: func(context.Context, audit.ExtractionAuditLog) error {
		return errors.New("database down")
	}}
	s := newTestService(WithAuditRepository(repo))

	if _, err := s.ExtractText(context.Background(), sampleInvoice); err != nil {
		t.Fatalf("expected extraction to succeed, got %v", err)
	}
}

func TestService_AuditTrail_Disabled(t *testing.T) {
	s := newTestService()
	if _, err := s.AuditTrail(context.Background(), "x"); !errors.Is(err, ErrAuditDisabled) {
		t.Fatalf("expected ErrAuditDisabled, got %v", err)
	}
}
