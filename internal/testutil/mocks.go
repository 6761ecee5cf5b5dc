package testutil

import (
	"context"
	"sync"

	"3tcapital/ms_extraccion_facturas/internal/core/audit"
	"3tcapital/ms_extraccion_facturas/internal/core/document"
)

// MockTextSource is a mock implementation of document.TextSource for testing.
// Without ExtractTextFunc it echoes the content back as text.
type MockTextSource struct {
	ExtractTextFunc func(ctx context.Context, content []byte) (string, error)

	mu    sync.Mutex
	calls int
}

// ExtractText calls the mock function if set.
func (m *MockTextSource) ExtractText(ctx context.Context, content []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ExtractTextFunc != nil {
		return m.ExtractTextFunc(ctx, content)
	}
	return string(content), nil
}

// CallCount returns how many times ExtractText ran.
func (m *MockTextSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockAuditRepository is an in-memory audit.Repository. Func fields override
// the default behaviour.
type MockAuditRepository struct {
	SaveFunc                func(ctx context.Context, log audit.ExtractionAuditLog) error
	FindByCorrelationIDFunc func(ctx context.Context, correlationID string) ([]audit.ExtractionAuditLog, error)

	mu   sync.Mutex
	logs []audit.ExtractionAuditLog
}

// Save records the log and then calls the mock function if set.
func (m *MockAuditRepository) Save(ctx context.Context, log audit.ExtractionAuditLog) error {
	m.mu.Lock()
	m.logs = append(m.logs, log)
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, log)
	}
	return nil
}

// FindByCorrelationID calls the mock function if set, otherwise filters the
// saved logs.
func (m *MockAuditRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ExtractionAuditLog, error) {
	if m.FindByCorrelationIDFunc != nil {
		return m.FindByCorrelationIDFunc(ctx, correlationID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.ExtractionAuditLog, 0)
	for _, l := range m.logs {
		if l.CorrelationID == correlationID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Logs returns a copy of every saved log.
func (m *MockAuditRepository) Logs() []audit.ExtractionAuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.ExtractionAuditLog(nil), m.logs...)
}

var (
	_ document.TextSource = (*MockTextSource)(nil)
	_ audit.Repository    = (*MockAuditRepository)(nil)
)
