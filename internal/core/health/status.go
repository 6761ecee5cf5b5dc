package health

import "time"

// Overall and per-dependency states.
const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
	StatusDown     = "DOWN"
)

// DependencyStatus is the outcome of probing one collaborator.
type DependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status captures the state of the service at a moment in time.
type Status struct {
	Service      string             `json:"service"`
	Version      string             `json:"version"`
	Environment  string             `json:"environment"`
	Status       string             `json:"status"`
	StartedAt    time.Time          `json:"startedAt"`
	Uptime       string             `json:"uptime"`
	UptimeSecs   int64              `json:"uptimeSeconds"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}
