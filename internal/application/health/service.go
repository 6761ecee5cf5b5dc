package health

import (
	"context"
	"time"

	corehealth "3tcapital/ms_extraccion_facturas/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Checker probes a collaborator such as the database or the OCR engine.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checkers  []Checker
}

func NewService(meta Metadata, checkers ...Checker) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checkers:  checkers,
	}
}

// Status returns the current availability snapshot. A failing dependency
// degrades the service without taking it down.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, c := range s.checkers {
		dep := corehealth.DependencyStatus{Name: c.Name, Status: corehealth.StatusUp}
		if c.Check != nil {
			if err := c.Check(ctx); err != nil {
				dep.Status = corehealth.StatusDown
				dep.Error = err.Error()
				status.Status = corehealth.StatusDegraded
			}
		}
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
